package storage

import (
	"bytes"
	"context"
	"errors"
	"io"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"p9e.in/sitelog/models"
)

// DatabaseStore keeps blobs in the stored_blobs table, which keeps a
// single-file SQLite deployment self-contained.
type DatabaseStore struct {
	db *gorm.DB
}

func NewDatabaseStore(db *gorm.DB) *DatabaseStore {
	return &DatabaseStore{db: db}
}

func (s *DatabaseStore) Name() string { return "database" }

func (s *DatabaseStore) Put(ctx context.Context, key, contentType string, r io.Reader) (int64, error) {
	if !validKey(key) {
		return 0, ErrInvalidKey
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	blob := models.StoredBlob{Key: key, ContentType: contentType, Data: data}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&blob).Error
	if err != nil {
		return 0, err
	}
	return int64(len(data)), nil
}

func (s *DatabaseStore) Get(ctx context.Context, key string) (io.ReadCloser, string, error) {
	if !validKey(key) {
		return nil, "", ErrInvalidKey
	}
	var blob models.StoredBlob
	err := s.db.WithContext(ctx).Where(&models.StoredBlob{Key: key}).First(&blob).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", ErrNotFound
	}
	if err != nil {
		return nil, "", err
	}
	return io.NopCloser(bytes.NewReader(blob.Data)), blob.ContentType, nil
}

func (s *DatabaseStore) Delete(ctx context.Context, key string) error {
	if !validKey(key) {
		return ErrInvalidKey
	}
	res := s.db.WithContext(ctx).Where(&models.StoredBlob{Key: key}).Delete(&models.StoredBlob{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
