package httpapi

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"thaimooc-backend-go/internal/services"
)

const maxUploadBytes = 20 << 20

var allowedBuckets = map[string]bool{
	services.BucketCourses:      true,
	services.BucketInstitutions: true,
	services.BucketInstructors:  true,
	services.BucketContent:      true,
}

type UploadResponse struct {
	AssetID string `json:"assetId"`
	URL     string `json:"url"`
}

func (s *Server) UploadMedia(w http.ResponseWriter, r *http.Request) {
	bucket := chi.URLParam(r, "bucket")
	if !allowedBuckets[bucket] {
		WriteError(w, http.StatusBadRequest, "Unknown upload bucket")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer func() { _ = file.Close() }()
	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	assetID, url, err := services.SaveMediaAsset(s.DB, s.Config.MediaStoragePath, bucket, contentType, header.Filename, file)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteData(w, http.StatusCreated, UploadResponse{AssetID: assetID, URL: url})
}

func (s *Server) MediaContent(w http.ResponseWriter, r *http.Request) {
	assetID := chi.URLParam(r, "assetId")
	row := struct {
		Bucket      string `db:"bucket"`
		StorageKey  string `db:"storage_key"`
		Filename    string `db:"filename"`
		ContentType string `db:"content_type"`
	}{}
	err := s.DB.Get(&row, `
SELECT bucket, storage_key, filename, content_type
FROM media_assets WHERE id = $1`, assetID)
	if err != nil {
		WriteError(w, http.StatusNotFound, "Asset not found")
		return
	}
	path := filepath.Join(s.Config.MediaStoragePath, row.Bucket, row.StorageKey)
	if _, err := os.Stat(path); err != nil {
		WriteError(w, http.StatusNotFound, "Asset not found")
		return
	}
	if row.ContentType != "" {
		w.Header().Set("Content-Type", row.ContentType)
	}
	w.Header().Set("Cache-Control", "public, max-age=86400")
	http.ServeFile(w, r, path)
}
