package handlers

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"p9e.in/sitelog/internal/testdb"
	"p9e.in/sitelog/models"
	"p9e.in/sitelog/storage"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

type upload struct {
	field, name string
	data        []byte
}

func multipartRequest(t *testing.T, target string, fields map[string]string, files ...upload) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, f := range files {
		fw, err := mw.CreateFormFile(f.field, f.name)
		require.NoError(t, err)
		_, err = fw.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func savedReport(t *testing.T, env *testEnv, author *models.User, project *models.Project) *models.DailyReport {
	t.Helper()
	r := &models.DailyReport{
		Date:       testdb.Date(t, "2025-03-10"),
		ProjectID:  project.ID,
		AuthorID:   author.ID,
		Activities: "Excavation",
	}
	require.NoError(t, r.Validate())
	_, err := env.store.Reports.Upsert(context.Background(), r)
	require.NoError(t, err)
	return r
}

func TestUploadAndListPhotos(t *testing.T) {
	env := newEnv(t)
	h := NewPhotoHandler(env.store, env.blobs)
	fiscal := testdb.User(t, env.db, "fiscal", models.RoleFiscal)
	project := testdb.Project(t, env.db, "Bridge", 0)
	report := savedReport(t, env, fiscal, project)
	vars := map[string]string{"id": report.ID.String()}

	req := multipartRequest(t, "/api/v1/reports/x/photos",
		map[string]string{"activity": "Excavation", "description": "North trench"},
		upload{"photos", "a.png", pngHeader},
		upload{"photos", "b.png", pngHeader},
	)
	rec := serveRequest(h.UploadPhotos, req, fiscal, vars)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var uploaded struct {
		Message string         `json:"message"`
		Photos  []models.Photo `json:"photos"`
	}
	decode(t, rec, &uploaded)
	assert.Equal(t, "2 photo(s) uploaded", uploaded.Message)
	require.Len(t, uploaded.Photos, 2)
	assert.Equal(t, "local", uploaded.Photos[0].Backend)
	assert.Equal(t, "image/png", uploaded.Photos[0].ContentType)
	assert.Equal(t, project.ID, uploaded.Photos[0].ProjectID)

	req = multipartRequest(t, "/api/v1/reports/x/photos", nil, upload{"file", "c.png", pngHeader})
	rec = serveRequest(h.UploadPhotos, req, fiscal, vars)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = call(h.ListReportPhotos, http.MethodGet, "/api/v1/reports/x/photos?grouped=true", nil, fiscal, vars)
	require.Equal(t, http.StatusOK, rec.Code)
	var grouped struct {
		Groups []models.PhotoGroup `json:"groups"`
		Count  int                 `json:"count"`
	}
	decode(t, rec, &grouped)
	assert.Equal(t, 3, grouped.Count)
	require.Len(t, grouped.Groups, 2)

	byActivity := map[string]int{}
	for _, g := range grouped.Groups {
		byActivity[g.Activity] = len(g.Photos)
	}
	assert.Equal(t, map[string]int{"Excavation": 2, "": 1}, byActivity)

	rec = call(h.ListProjectPhotos, http.MethodGet, "/api/v1/projects/x/photos", nil, fiscal,
		map[string]string{"id": project.ID.String()})
	require.Equal(t, http.StatusOK, rec.Code)
	var gallery struct {
		Count int `json:"count"`
	}
	decode(t, rec, &gallery)
	assert.Equal(t, 3, gallery.Count)

	photoVars := map[string]string{"id": uploaded.Photos[0].ID.String()}
	rec = call(h.PhotoContent, http.MethodGet, "/api/v1/photos/x/content", nil, fiscal, photoVars)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, pngHeader, rec.Body.Bytes())

	rec = call(h.DeletePhoto, http.MethodDelete, "/api/v1/photos/x", nil, fiscal, photoVars)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = call(h.PhotoContent, http.MethodGet, "/api/v1/photos/x/content", nil, fiscal, photoVars)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUploadRejectsNonImages(t *testing.T) {
	env := newEnv(t)
	h := NewPhotoHandler(env.store, env.blobs)
	fiscal := testdb.User(t, env.db, "fiscal", models.RoleFiscal)
	project := testdb.Project(t, env.db, "Bridge", 0)
	report := savedReport(t, env, fiscal, project)
	vars := map[string]string{"id": report.ID.String()}

	req := multipartRequest(t, "/api/v1/reports/x/photos", nil, upload{"photos", "notes.txt", []byte("just some text")})
	rec := serveRequest(h.UploadPhotos, req, fiscal, vars)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "only image files are accepted")

	req = multipartRequest(t, "/api/v1/reports/x/photos", map[string]string{"activity": "x"})
	rec = serveRequest(h.UploadPhotos, req, fiscal, vars)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	photos, err := env.store.Photos.ListByReport(context.Background(), report.ID)
	require.NoError(t, err)
	assert.Empty(t, photos)
}

func TestPhotosOutOfScopeAreHidden(t *testing.T) {
	env := newEnv(t)
	h := NewPhotoHandler(env.store, env.blobs)
	fiscal := testdb.User(t, env.db, "fiscal", models.RoleFiscal)
	finance := testdb.User(t, env.db, "finance", models.RoleFinance)
	project := testdb.Project(t, env.db, "Bridge", 0)
	report := savedReport(t, env, fiscal, project)

	rec := call(h.ListReportPhotos, http.MethodGet, "/api/v1/reports/x/photos", nil, finance,
		map[string]string{"id": report.ID.String()})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUploadRejectedFileStoresNothing(t *testing.T) {
	env := newEnv(t)
	h := NewPhotoHandler(env.store, env.blobs)
	fiscal := testdb.User(t, env.db, "fiscal", models.RoleFiscal)
	project := testdb.Project(t, env.db, "Bridge", 0)
	report := savedReport(t, env, fiscal, project)
	vars := map[string]string{"id": report.ID.String()}

	req := multipartRequest(t, "/api/v1/reports/x/photos", nil,
		upload{"photos", "a.png", pngHeader},
		upload{"photos", "b.txt", []byte("plain text notes")},
	)
	rec := serveRequest(h.UploadPhotos, req, fiscal, vars)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "b.txt")

	photos, err := env.store.Photos.ListByReport(context.Background(), report.ID)
	require.NoError(t, err)
	assert.Empty(t, photos)
}

// failingStore fails every Put after the first ok ones and records deletes.
type failingStore struct {
	*storage.LocalStore
	ok      int
	puts    []string
	deleted []string
}

func (s *failingStore) Put(ctx context.Context, key, contentType string, r io.Reader) (int64, error) {
	if len(s.puts) >= s.ok {
		return 0, errors.New("bucket unavailable")
	}
	s.puts = append(s.puts, key)
	return s.LocalStore.Put(ctx, key, contentType, r)
}

func (s *failingStore) Delete(ctx context.Context, key string) error {
	s.deleted = append(s.deleted, key)
	return s.LocalStore.Delete(ctx, key)
}

func TestUploadStorageFailureRollsBack(t *testing.T) {
	env := newEnv(t)
	blobs := &failingStore{LocalStore: env.blobs, ok: 1}
	h := NewPhotoHandler(env.store, blobs)
	fiscal := testdb.User(t, env.db, "fiscal", models.RoleFiscal)
	project := testdb.Project(t, env.db, "Bridge", 0)
	report := savedReport(t, env, fiscal, project)
	vars := map[string]string{"id": report.ID.String()}

	req := multipartRequest(t, "/api/v1/reports/x/photos", nil,
		upload{"photos", "a.png", pngHeader},
		upload{"photos", "b.png", pngHeader},
	)
	rec := serveRequest(h.UploadPhotos, req, fiscal, vars)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	photos, err := env.store.Photos.ListByReport(context.Background(), report.ID)
	require.NoError(t, err)
	assert.Empty(t, photos)
	require.Len(t, blobs.puts, 1)
	assert.Equal(t, blobs.puts, blobs.deleted)
}
