package services

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const (
	BucketCourses      = "courses"
	BucketInstitutions = "institutions"
	BucketInstructors  = "instructors"
	BucketContent      = "content"
)

func EnsureStoragePath(base string, bucket string) (string, error) {
	path := filepath.Join(base, bucket)
	if err := os.MkdirAll(path, 0755); err != nil {
		return "", err
	}
	return path, nil
}

// SaveMediaAsset streams an upload to disk, records its bookkeeping row and
// returns the asset id plus its public URL.
func SaveMediaAsset(database *sqlx.DB, basePath, bucket, contentType, filename string, body io.Reader) (string, string, error) {
	assetID := uuid.NewString()
	storageKey := assetID
	bucketPath, err := EnsureStoragePath(basePath, bucket)
	if err != nil {
		return "", "", err
	}
	targetPath := filepath.Join(bucketPath, storageKey)

	file, err := os.Create(targetPath)
	if err != nil {
		return "", "", err
	}
	hasher := sha256.New()
	writer := io.MultiWriter(file, hasher)
	size, err := io.Copy(writer, body)
	_ = file.Close()
	if err != nil {
		return "", "", err
	}
	if size == 0 {
		_ = os.Remove(targetPath)
		return "", "", ErrBadRequest("uploaded file is empty")
	}
	sha := hex.EncodeToString(hasher.Sum(nil))

	_, err = database.Exec(`
INSERT INTO media_assets (id, bucket, storage_key, filename, content_type, size_bytes, sha256, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		assetID, bucket, storageKey, filename, contentType, size, sha, time.Now().UTC())
	if err != nil {
		_ = os.Remove(targetPath)
		return "", "", err
	}
	return assetID, BuildAssetURL(assetID), nil
}

func BuildAssetURL(assetID string) string {
	return "/api/media/assets/" + assetID + "/content"
}

func assetURLOrNil(assetID *string) *string {
	if assetID == nil || *assetID == "" {
		return nil
	}
	url := BuildAssetURL(*assetID)
	return &url
}

func DeleteAsset(database *sqlx.DB, basePath string, assetID string) error {
	row := struct {
		Bucket     string `db:"bucket"`
		StorageKey string `db:"storage_key"`
	}{}
	if err := database.Get(&row, `SELECT bucket, storage_key FROM media_assets WHERE id = $1`, assetID); err != nil {
		return nil
	}
	_, _ = database.Exec(`DELETE FROM media_assets WHERE id = $1`, assetID)
	_ = os.Remove(filepath.Join(basePath, row.Bucket, row.StorageKey))
	return nil
}
