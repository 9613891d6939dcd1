package services

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type NewsDTO struct {
	ID          string  `json:"id" db:"id"`
	TitleTh     string  `json:"titleTh" db:"title_th"`
	TitleEn     string  `json:"titleEn" db:"title_en"`
	ContentTh   *string `json:"contentTh" db:"content_th"`
	ContentEn   *string `json:"contentEn" db:"content_en"`
	ImageID     *string `json:"imageAssetId" db:"image_media_id"`
	ImageURL    *string `json:"imageUrl"`
	PublishedAt *string `json:"publishedAt"`
}

type newsRow struct {
	ID          string     `db:"id"`
	TitleTh     string     `db:"title_th"`
	TitleEn     string     `db:"title_en"`
	ContentTh   *string    `db:"content_th"`
	ContentEn   *string    `db:"content_en"`
	ImageID     *string    `db:"image_media_id"`
	PublishedAt *time.Time `db:"published_at"`
}

func (row newsRow) toDTO() NewsDTO {
	return NewsDTO{
		ID:          row.ID,
		TitleTh:     row.TitleTh,
		TitleEn:     row.TitleEn,
		ContentTh:   row.ContentTh,
		ContentEn:   row.ContentEn,
		ImageID:     row.ImageID,
		ImageURL:    assetURLOrNil(row.ImageID),
		PublishedAt: formatTime(row.PublishedAt),
	}
}

// ClampNewsLimit normalizes a requested page size; callers that cache by
// limit must key off the clamped value, not the raw query string.
func ClampNewsLimit(limit int) int {
	if limit < 1 || limit > 100 {
		return 20
	}
	return limit
}

func ListNews(database *sqlx.DB, publishedOnly bool, limit int) ([]NewsDTO, error) {
	limit = ClampNewsLimit(limit)
	query := `
SELECT id, title_th, title_en, content_th, content_en, image_media_id, published_at
FROM news`
	if publishedOnly {
		query += " WHERE published_at IS NOT NULL AND published_at <= now()"
	}
	query += " ORDER BY published_at DESC NULLS LAST, created_at DESC LIMIT $1"
	rows := []newsRow{}
	if err := database.Select(&rows, query, limit); err != nil {
		return nil, WrapError(err, "list news")
	}
	items := make([]NewsDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toDTO())
	}
	return items, nil
}

func GetNews(database *sqlx.DB, id string) (*NewsDTO, error) {
	row := newsRow{}
	err := database.Get(&row, `
SELECT id, title_th, title_en, content_th, content_en, image_media_id, published_at
FROM news WHERE id = $1`, id)
	if err != nil {
		return nil, NotFoundOr(err, "news not found", "load news")
	}
	item := row.toDTO()
	return &item, nil
}

type NewsInput struct {
	TitleTh     string  `json:"titleTh" validate:"required"`
	TitleEn     string  `json:"titleEn" validate:"required"`
	ContentTh   *string `json:"contentTh"`
	ContentEn   *string `json:"contentEn"`
	ImageID     *string `json:"imageAssetId"`
	PublishedAt *string `json:"publishedAt"`
}

func CreateNews(database *sqlx.DB, input NewsInput) (*NewsDTO, error) {
	titleTh, err := NormalizeRequired(input.TitleTh, "titleTh is required")
	if err != nil {
		return nil, ErrBadRequest(err.Error())
	}
	titleEn, err := NormalizeRequired(input.TitleEn, "titleEn is required")
	if err != nil {
		return nil, ErrBadRequest(err.Error())
	}
	publishedAt, err := parseTimestamp(input.PublishedAt)
	if err != nil {
		return nil, err
	}
	if publishedAt == nil {
		now := time.Now().UTC()
		publishedAt = &now
	}
	id := uuid.NewString()
	_, err = database.Exec(`
INSERT INTO news (id, title_th, title_en, content_th, content_en, image_media_id, published_at, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$8)`,
		id, titleTh, titleEn, input.ContentTh, input.ContentEn, input.ImageID, publishedAt, time.Now().UTC())
	if err != nil {
		return nil, WrapError(err, "insert news")
	}
	return GetNews(database, id)
}

type NewsUpdateInput struct {
	TitleTh     *string `json:"titleTh"`
	TitleEn     *string `json:"titleEn"`
	ContentTh   *string `json:"contentTh"`
	ContentEn   *string `json:"contentEn"`
	ImageID     *string `json:"imageAssetId"`
	PublishedAt *string `json:"publishedAt"`
}

func UpdateNews(database *sqlx.DB, id string, input NewsUpdateInput) (*NewsDTO, error) {
	builder := NewUpdate()
	builder.SetString("title_th", input.TitleTh)
	builder.SetString("title_en", input.TitleEn)
	builder.SetString("content_th", input.ContentTh)
	builder.SetString("content_en", input.ContentEn)
	builder.SetString("image_media_id", input.ImageID)
	if input.PublishedAt != nil {
		publishedAt, err := parseTimestamp(input.PublishedAt)
		if err != nil {
			return nil, err
		}
		builder.Set("published_at", publishedAt)
	}
	if err := applyUpdate(database, builder, "news", id, "news not found"); err != nil {
		return nil, err
	}
	return GetNews(database, id)
}

func DeleteNews(database *sqlx.DB, id string) error {
	result, err := database.Exec(`DELETE FROM news WHERE id = $1`, id)
	if err != nil {
		return WrapError(err, "delete news")
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return ErrNotFound("news not found")
	}
	return nil
}

type BannerDTO struct {
	ID        string  `json:"id" db:"id"`
	TitleTh   *string `json:"titleTh" db:"title_th"`
	TitleEn   *string `json:"titleEn" db:"title_en"`
	ImageID   *string `json:"imageAssetId" db:"image_media_id"`
	ImageURL  *string `json:"imageUrl"`
	LinkURL   *string `json:"linkUrl" db:"link_url"`
	IsActive  bool    `json:"isActive" db:"is_active"`
	SortOrder int     `json:"sortOrder" db:"sort_order"`
}

func ListBanners(database *sqlx.DB, activeOnly bool) ([]BannerDTO, error) {
	query := `
SELECT id, title_th, title_en, image_media_id, link_url, is_active, sort_order
FROM banners`
	if activeOnly {
		query += " WHERE is_active = TRUE"
	}
	query += " ORDER BY sort_order ASC, created_at DESC"
	items := []BannerDTO{}
	if err := database.Select(&items, query); err != nil {
		return nil, WrapError(err, "list banners")
	}
	for idx := range items {
		items[idx].ImageURL = assetURLOrNil(items[idx].ImageID)
	}
	return items, nil
}

type BannerInput struct {
	TitleTh   *string `json:"titleTh"`
	TitleEn   *string `json:"titleEn"`
	ImageID   *string `json:"imageAssetId" validate:"required"`
	LinkURL   *string `json:"linkUrl"`
	IsActive  *bool   `json:"isActive"`
	SortOrder *int    `json:"sortOrder"`
}

func CreateBanner(database *sqlx.DB, input BannerInput) (*BannerDTO, error) {
	if input.ImageID == nil || strings.TrimSpace(*input.ImageID) == "" {
		return nil, ErrBadRequest("imageAssetId is required")
	}
	isActive := true
	if input.IsActive != nil {
		isActive = *input.IsActive
	}
	sortOrder := 0
	if input.SortOrder != nil {
		sortOrder = *input.SortOrder
	} else {
		_ = database.Get(&sortOrder, `SELECT COALESCE(MAX(sort_order), 0) + 1 FROM banners`)
	}
	id := uuid.NewString()
	_, err := database.Exec(`
INSERT INTO banners (id, title_th, title_en, image_media_id, link_url, is_active, sort_order, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$8)`,
		id, input.TitleTh, input.TitleEn, input.ImageID, input.LinkURL, isActive, sortOrder, time.Now().UTC())
	if err != nil {
		return nil, WrapError(err, "insert banner")
	}
	return &BannerDTO{
		ID:        id,
		TitleTh:   input.TitleTh,
		TitleEn:   input.TitleEn,
		ImageID:   input.ImageID,
		ImageURL:  assetURLOrNil(input.ImageID),
		LinkURL:   input.LinkURL,
		IsActive:  isActive,
		SortOrder: sortOrder,
	}, nil
}

type BannerUpdateInput struct {
	TitleTh   *string `json:"titleTh"`
	TitleEn   *string `json:"titleEn"`
	ImageID   *string `json:"imageAssetId"`
	LinkURL   *string `json:"linkUrl"`
	IsActive  *bool   `json:"isActive"`
	SortOrder *int    `json:"sortOrder"`
}

func UpdateBanner(database *sqlx.DB, id string, input BannerUpdateInput) (*BannerDTO, error) {
	builder := NewUpdate()
	builder.SetString("title_th", input.TitleTh)
	builder.SetString("title_en", input.TitleEn)
	builder.SetString("image_media_id", input.ImageID)
	builder.SetString("link_url", input.LinkURL)
	builder.SetBool("is_active", input.IsActive)
	builder.SetInt("sort_order", input.SortOrder)
	if err := applyUpdate(database, builder, "banners", id, "banner not found"); err != nil {
		return nil, err
	}
	item := BannerDTO{}
	err := database.Get(&item, `
SELECT id, title_th, title_en, image_media_id, link_url, is_active, sort_order
FROM banners WHERE id = $1`, id)
	if err != nil {
		return nil, NotFoundOr(err, "banner not found", "load banner")
	}
	item.ImageURL = assetURLOrNil(item.ImageID)
	return &item, nil
}

func DeleteBanner(database *sqlx.DB, id string) error {
	result, err := database.Exec(`DELETE FROM banners WHERE id = $1`, id)
	if err != nil {
		return WrapError(err, "delete banner")
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return ErrNotFound("banner not found")
	}
	return nil
}

type PopupDTO struct {
	ID        string  `json:"id"`
	TitleTh   *string `json:"titleTh"`
	TitleEn   *string `json:"titleEn"`
	ImageID   *string `json:"imageAssetId"`
	ImageURL  *string `json:"imageUrl"`
	LinkURL   *string `json:"linkUrl"`
	IsActive  bool    `json:"isActive"`
	ShowOnce  bool    `json:"showOnce"`
	StartDate *string `json:"startDate"`
	EndDate   *string `json:"endDate"`
	SortOrder int     `json:"sortOrder"`
}

type popupRow struct {
	ID        string     `db:"id"`
	TitleTh   *string    `db:"title_th"`
	TitleEn   *string    `db:"title_en"`
	ImageID   *string    `db:"image_media_id"`
	LinkURL   *string    `db:"link_url"`
	IsActive  bool       `db:"is_active"`
	ShowOnce  bool       `db:"show_once"`
	StartDate *time.Time `db:"start_date"`
	EndDate   *time.Time `db:"end_date"`
	SortOrder int        `db:"sort_order"`
}

func (row popupRow) toDTO() PopupDTO {
	return PopupDTO{
		ID:        row.ID,
		TitleTh:   row.TitleTh,
		TitleEn:   row.TitleEn,
		ImageID:   row.ImageID,
		ImageURL:  assetURLOrNil(row.ImageID),
		LinkURL:   row.LinkURL,
		IsActive:  row.IsActive,
		ShowOnce:  row.ShowOnce,
		StartDate: formatTime(row.StartDate),
		EndDate:   formatTime(row.EndDate),
		SortOrder: row.SortOrder,
	}
}

// ListPopups with activeOnly returns popups that are active and inside their
// display window right now.
func ListPopups(database *sqlx.DB, activeOnly bool) ([]PopupDTO, error) {
	query := `
SELECT id, title_th, title_en, image_media_id, link_url, is_active, show_once, start_date, end_date, sort_order
FROM popups`
	if activeOnly {
		query += `
WHERE is_active = TRUE
  AND (start_date IS NULL OR start_date <= now())
  AND (end_date IS NULL OR end_date >= now())`
	}
	query += " ORDER BY sort_order ASC, created_at DESC"
	rows := []popupRow{}
	if err := database.Select(&rows, query); err != nil {
		return nil, WrapError(err, "list popups")
	}
	items := make([]PopupDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toDTO())
	}
	return items, nil
}

type PopupInput struct {
	TitleTh   *string `json:"titleTh"`
	TitleEn   *string `json:"titleEn"`
	ImageID   *string `json:"imageAssetId" validate:"required"`
	LinkURL   *string `json:"linkUrl"`
	IsActive  *bool   `json:"isActive"`
	ShowOnce  *bool   `json:"showOnce"`
	StartDate *string `json:"startDate"`
	EndDate   *string `json:"endDate"`
	SortOrder *int    `json:"sortOrder"`
}

func CreatePopup(database *sqlx.DB, input PopupInput) (*PopupDTO, error) {
	if input.ImageID == nil || strings.TrimSpace(*input.ImageID) == "" {
		return nil, ErrBadRequest("imageAssetId is required")
	}
	startDate, err := parseTimestamp(input.StartDate)
	if err != nil {
		return nil, err
	}
	endDate, err := parseTimestamp(input.EndDate)
	if err != nil {
		return nil, err
	}
	if startDate != nil && endDate != nil && endDate.Before(*startDate) {
		return nil, ErrBadRequest("endDate must not be before startDate")
	}
	isActive := true
	if input.IsActive != nil {
		isActive = *input.IsActive
	}
	showOnce := false
	if input.ShowOnce != nil {
		showOnce = *input.ShowOnce
	}
	sortOrder := 0
	if input.SortOrder != nil {
		sortOrder = *input.SortOrder
	}
	id := uuid.NewString()
	_, err = database.Exec(`
INSERT INTO popups (id, title_th, title_en, image_media_id, link_url, is_active, show_once, start_date, end_date, sort_order, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$11)`,
		id, input.TitleTh, input.TitleEn, input.ImageID, input.LinkURL, isActive, showOnce, startDate, endDate, sortOrder, time.Now().UTC())
	if err != nil {
		return nil, WrapError(err, "insert popup")
	}
	row := popupRow{}
	if err := database.Get(&row, `
SELECT id, title_th, title_en, image_media_id, link_url, is_active, show_once, start_date, end_date, sort_order
FROM popups WHERE id = $1`, id); err != nil {
		return nil, WrapError(err, "reload popup")
	}
	item := row.toDTO()
	return &item, nil
}

type PopupUpdateInput struct {
	TitleTh   *string `json:"titleTh"`
	TitleEn   *string `json:"titleEn"`
	ImageID   *string `json:"imageAssetId"`
	LinkURL   *string `json:"linkUrl"`
	IsActive  *bool   `json:"isActive"`
	ShowOnce  *bool   `json:"showOnce"`
	StartDate *string `json:"startDate"`
	EndDate   *string `json:"endDate"`
	SortOrder *int    `json:"sortOrder"`
}

func UpdatePopup(database *sqlx.DB, id string, input PopupUpdateInput) (*PopupDTO, error) {
	builder := NewUpdate()
	builder.SetString("title_th", input.TitleTh)
	builder.SetString("title_en", input.TitleEn)
	builder.SetString("image_media_id", input.ImageID)
	builder.SetString("link_url", input.LinkURL)
	builder.SetBool("is_active", input.IsActive)
	builder.SetBool("show_once", input.ShowOnce)
	builder.SetInt("sort_order", input.SortOrder)
	if input.StartDate != nil {
		startDate, err := parseTimestamp(input.StartDate)
		if err != nil {
			return nil, err
		}
		builder.Set("start_date", startDate)
	}
	if input.EndDate != nil {
		endDate, err := parseTimestamp(input.EndDate)
		if err != nil {
			return nil, err
		}
		builder.Set("end_date", endDate)
	}
	if err := applyUpdate(database, builder, "popups", id, "popup not found"); err != nil {
		return nil, err
	}
	row := popupRow{}
	if err := database.Get(&row, `
SELECT id, title_th, title_en, image_media_id, link_url, is_active, show_once, start_date, end_date, sort_order
FROM popups WHERE id = $1`, id); err != nil {
		return nil, NotFoundOr(err, "popup not found", "load popup")
	}
	item := row.toDTO()
	return &item, nil
}

func DeletePopup(database *sqlx.DB, id string) error {
	result, err := database.Exec(`DELETE FROM popups WHERE id = $1`, id)
	if err != nil {
		return WrapError(err, "delete popup")
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return ErrNotFound("popup not found")
	}
	return nil
}

const settingsRowID = "settings"

type SettingsDTO struct {
	ContactEmail *string `json:"contactEmail" db:"contact_email"`
	ContactPhone *string `json:"contactPhone" db:"contact_phone"`
	AddressTh    *string `json:"addressTh" db:"address_th"`
	AddressEn    *string `json:"addressEn" db:"address_en"`
	FacebookURL  *string `json:"facebookUrl" db:"facebook_url"`
	YoutubeURL   *string `json:"youtubeUrl" db:"youtube_url"`
	LineURL      *string `json:"lineUrl" db:"line_url"`
}

// GetSettings returns the singleton settings row, empty when never saved.
func GetSettings(database *sqlx.DB) (*SettingsDTO, error) {
	item := SettingsDTO{}
	err := database.Get(&item, `
SELECT contact_email, contact_phone, address_th, address_en, facebook_url, youtube_url, line_url
FROM webapp_settings WHERE id = $1`, settingsRowID)
	if errors.Is(err, sql.ErrNoRows) {
		return &SettingsDTO{}, nil
	}
	if err != nil {
		return nil, WrapError(err, "load settings")
	}
	return &item, nil
}

// SaveSettings upserts the singleton row; partial fields merge over the
// stored values.
func SaveSettings(database *sqlx.DB, input SettingsDTO) (*SettingsDTO, error) {
	_, err := database.Exec(`
INSERT INTO webapp_settings (id, contact_email, contact_phone, address_th, address_en, facebook_url, youtube_url, line_url, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
ON CONFLICT (id) DO UPDATE SET
  contact_email = COALESCE(EXCLUDED.contact_email, webapp_settings.contact_email),
  contact_phone = COALESCE(EXCLUDED.contact_phone, webapp_settings.contact_phone),
  address_th = COALESCE(EXCLUDED.address_th, webapp_settings.address_th),
  address_en = COALESCE(EXCLUDED.address_en, webapp_settings.address_en),
  facebook_url = COALESCE(EXCLUDED.facebook_url, webapp_settings.facebook_url),
  youtube_url = COALESCE(EXCLUDED.youtube_url, webapp_settings.youtube_url),
  line_url = COALESCE(EXCLUDED.line_url, webapp_settings.line_url),
  updated_at = EXCLUDED.updated_at`,
		settingsRowID, input.ContactEmail, input.ContactPhone, input.AddressTh, input.AddressEn,
		input.FacebookURL, input.YoutubeURL, input.LineURL, time.Now().UTC())
	if err != nil {
		return nil, WrapError(err, "save settings")
	}
	return GetSettings(database)
}

func parseTimestamp(value *string) (*time.Time, error) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, strings.TrimSpace(*value))
	if err != nil {
		parsed, err = time.Parse("2006-01-02", strings.TrimSpace(*value))
		if err != nil {
			return nil, ErrBadRequest("invalid timestamp: " + *value)
		}
	}
	utc := parsed.UTC()
	return &utc, nil
}
