package handlers

import (
	"bytes"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"p9e.in/sitelog/models"
	"p9e.in/sitelog/repositories"
	"p9e.in/sitelog/storage"
)

const (
	maxPhotoSize   = 10 << 20
	maxUploadForm  = 64 << 20
	photoKeyPrefix = "photos"
)

// PhotoHandler serves report photos and the project gallery.
type PhotoHandler struct {
	scoper
	reports repositories.ReportRepository
	photos  repositories.PhotoRepository
	blobs   storage.BlobStore
	now     func() time.Time
}

// NewPhotoHandler creates a new photo handler
func NewPhotoHandler(store *repositories.Store, blobs storage.BlobStore) *PhotoHandler {
	return &PhotoHandler{
		scoper:  scoper{store.Projects},
		reports: store.Reports,
		photos:  store.Photos,
		blobs:   blobs,
		now:     time.Now,
	}
}

// reportInScope loads the {id} report when its project is visible.
func (h *PhotoHandler) reportInScope(w http.ResponseWriter, r *http.Request) (*models.DailyReport, bool) {
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid report id", http.StatusBadRequest)
		return nil, false
	}
	report, err := h.reports.Get(r.Context(), id)
	if err != nil {
		writeError(w, err, "report")
		return nil, false
	}
	scope, err := h.scope(r)
	if err != nil {
		writeError(w, err, "report")
		return nil, false
	}
	if !scope.Allows(report.ProjectID) {
		http.Error(w, "report not found", http.StatusNotFound)
		return nil, false
	}
	return report, true
}

// UploadPhotos handles POST /reports/{id}/photos. Files come in the
// "photos" field (repeatable) or a single "file"; "description" and
// "activity" apply to every file of the request.
func (h *PhotoHandler) UploadPhotos(w http.ResponseWriter, r *http.Request) {
	report, ok := h.reportInScope(w, r)
	if !ok {
		return
	}
	if err := r.ParseMultipartForm(maxUploadForm); err != nil {
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return
	}
	files := r.MultipartForm.File["photos"]
	if len(files) == 0 {
		files = r.MultipartForm.File["file"]
	}
	if len(files) == 0 {
		http.Error(w, "No file uploaded", http.StatusBadRequest)
		return
	}
	description := strings.TrimSpace(r.FormValue("description"))
	activity := strings.TrimSpace(r.FormValue("activity"))

	// Every file is checked before any is stored so a rejected file leaves
	// nothing behind.
	pending := make([]pendingPhoto, 0, len(files))
	for _, fh := range files {
		p, err := readPhoto(fh)
		if err != nil {
			var upErr uploadError
			if errors.As(err, &upErr) {
				http.Error(w, fh.Filename+": "+upErr.Error(), http.StatusBadRequest)
				return
			}
			zap.L().Error("failed to read photo", zap.String("file", fh.Filename), zap.Error(err))
			http.Error(w, "failed to read photo", http.StatusBadRequest)
			return
		}
		pending = append(pending, p)
	}

	saved := make([]models.Photo, 0, len(pending))
	for _, p := range pending {
		photo, err := h.storePhoto(r, report, p, description, activity)
		if err != nil {
			zap.L().Error("failed to store photo", zap.String("file", p.name), zap.Error(err))
			h.discard(r, saved)
			http.Error(w, "failed to store photo", http.StatusInternalServerError)
			return
		}
		saved = append(saved, *photo)
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": strconv.Itoa(len(saved)) + " photo(s) uploaded",
		"photos":  saved,
	})
}

type uploadError string

func (e uploadError) Error() string { return string(e) }

// pendingPhoto is an upload that passed validation and is held in memory.
type pendingPhoto struct {
	name        string
	contentType string
	data        []byte
}

func readPhoto(fh *multipart.FileHeader) (pendingPhoto, error) {
	if fh.Size > maxPhotoSize {
		return pendingPhoto{}, uploadError("file exceeds 10 MB")
	}
	f, err := fh.Open()
	if err != nil {
		return pendingPhoto{}, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxPhotoSize+1))
	if err != nil {
		return pendingPhoto{}, err
	}
	if len(data) > maxPhotoSize {
		return pendingPhoto{}, uploadError("file exceeds 10 MB")
	}
	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		return pendingPhoto{}, uploadError("only image files are accepted")
	}
	return pendingPhoto{name: fh.Filename, contentType: contentType, data: data}, nil
}

func (h *PhotoHandler) storePhoto(r *http.Request, report *models.DailyReport, p pendingPhoto, description, activity string) (*models.Photo, error) {
	key := storage.NewKey(photoKeyPrefix, p.name, h.now())
	size, err := h.blobs.Put(r.Context(), key, p.contentType, bytes.NewReader(p.data))
	if err != nil {
		return nil, err
	}
	photo := &models.Photo{
		ReportID:    report.ID,
		ProjectID:   report.ProjectID,
		Backend:     h.blobs.Name(),
		StorageKey:  key,
		FileName:    p.name,
		ContentType: p.contentType,
		Size:        size,
		Description: description,
		Activity:    activity,
	}
	if err := h.photos.Create(r.Context(), photo); err != nil {
		if delErr := h.blobs.Delete(r.Context(), key); delErr != nil {
			zap.L().Warn("failed to remove orphaned blob", zap.String("key", key), zap.Error(delErr))
		}
		return nil, err
	}
	return photo, nil
}

// discard removes the photos already stored by a failed upload.
func (h *PhotoHandler) discard(r *http.Request, photos []models.Photo) {
	for _, p := range photos {
		if err := h.photos.Delete(r.Context(), p.ID); err != nil {
			zap.L().Warn("failed to roll back photo", zap.String("photo_id", p.ID.String()), zap.Error(err))
		}
	}
	removeBlobs(r, h.blobs, photos)
}

// ListReportPhotos handles GET /reports/{id}/photos?grouped=true
func (h *PhotoHandler) ListReportPhotos(w http.ResponseWriter, r *http.Request) {
	report, ok := h.reportInScope(w, r)
	if !ok {
		return
	}
	photos, err := h.photos.ListByReport(r.Context(), report.ID)
	if err != nil {
		writeError(w, err, "photo")
		return
	}
	writePhotos(w, r, photos)
}

// ListProjectPhotos is the project gallery.
func (h *PhotoHandler) ListProjectPhotos(w http.ResponseWriter, r *http.Request) {
	project, ok := h.projectFromPath(w, r)
	if !ok {
		return
	}
	photos, err := h.photos.ListByProject(r.Context(), project.ID)
	if err != nil {
		writeError(w, err, "photo")
		return
	}
	writePhotos(w, r, photos)
}

func writePhotos(w http.ResponseWriter, r *http.Request, photos []models.Photo) {
	if r.URL.Query().Get("grouped") == "true" {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"groups": models.GroupPhotosByActivity(photos),
			"count":  len(photos),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"photos": photos,
		"count":  len(photos),
	})
}

func (h *PhotoHandler) photo(w http.ResponseWriter, r *http.Request) (*models.Photo, bool) {
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid photo id", http.StatusBadRequest)
		return nil, false
	}
	photo, err := h.photos.Get(r.Context(), id)
	if err != nil {
		writeError(w, err, "photo")
		return nil, false
	}
	scope, err := h.scope(r)
	if err != nil {
		writeError(w, err, "photo")
		return nil, false
	}
	if !scope.Allows(photo.ProjectID) {
		http.Error(w, "photo not found", http.StatusNotFound)
		return nil, false
	}
	return photo, true
}

// PhotoContent streams the stored image.
func (h *PhotoHandler) PhotoContent(w http.ResponseWriter, r *http.Request) {
	photo, ok := h.photo(w, r)
	if !ok {
		return
	}
	if photo.Backend != h.blobs.Name() {
		http.Error(w, "photo content not available on this storage backend", http.StatusNotFound)
		return
	}
	rc, contentType, err := h.blobs.Get(r.Context(), photo.StorageKey)
	if errors.Is(err, storage.ErrNotFound) {
		http.Error(w, "photo content not found", http.StatusNotFound)
		return
	}
	if err != nil {
		writeError(w, err, "photo")
		return
	}
	defer rc.Close()

	if photo.ContentType != "" {
		contentType = photo.ContentType
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "private, max-age=3600")
	if photo.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(photo.Size, 10))
	}
	if _, err := io.Copy(w, rc); err != nil {
		zap.L().Warn("photo stream interrupted", zap.String("photo_id", photo.ID.String()), zap.Error(err))
	}
}

// DeletePhoto removes the photo row and its stored image.
func (h *PhotoHandler) DeletePhoto(w http.ResponseWriter, r *http.Request) {
	photo, ok := h.photo(w, r)
	if !ok {
		return
	}
	if err := h.photos.Delete(r.Context(), photo.ID); err != nil {
		writeError(w, err, "photo")
		return
	}
	removeBlobs(r, h.blobs, []models.Photo{*photo})
	writeJSON(w, http.StatusOK, map[string]interface{}{"message": "Photo deleted"})
}
