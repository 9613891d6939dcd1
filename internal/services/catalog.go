package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"thaimooc-backend-go/internal/db"
)

// Categories, course types, institutions and instructors are plain CRUD, but
// every delete that other tables point at runs its dependency count and the
// delete inside one transaction so the guard cannot race a concurrent write.

func ListCategories(database *sqlx.DB) ([]CategoryDTO, error) {
	items := []CategoryDTO{}
	err := database.Select(&items, `
SELECT id, name_th, name_en, icon, sort_order
FROM categories
ORDER BY sort_order ASC, id ASC`)
	if err != nil {
		return nil, WrapError(err, "list categories")
	}
	return items, nil
}

type CategoryInput struct {
	ID        string  `json:"id"`
	NameTh    string  `json:"nameTh" validate:"required"`
	NameEn    string  `json:"nameEn" validate:"required"`
	Icon      *string `json:"icon"`
	SortOrder *int    `json:"sortOrder"`
}

func CreateCategory(database *sqlx.DB, input CategoryInput) (*CategoryDTO, error) {
	nameTh, err := NormalizeRequired(input.NameTh, "nameTh is required")
	if err != nil {
		return nil, ErrBadRequest(err.Error())
	}
	nameEn, err := NormalizeRequired(input.NameEn, "nameEn is required")
	if err != nil {
		return nil, ErrBadRequest(err.Error())
	}
	id := strings.TrimSpace(input.ID)
	if id == "" {
		id = uuid.NewString()
	}
	sortOrder := 0
	if input.SortOrder != nil {
		sortOrder = *input.SortOrder
	} else {
		_ = database.Get(&sortOrder, `SELECT COALESCE(MAX(sort_order), 0) + 1 FROM categories`)
	}
	_, err = database.Exec(`
INSERT INTO categories (id, name_th, name_en, icon, sort_order, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$6)`, id, nameTh, nameEn, input.Icon, sortOrder, time.Now().UTC())
	if err != nil {
		return nil, WrapError(err, "insert category")
	}
	return &CategoryDTO{ID: id, NameTh: nameTh, NameEn: nameEn, Icon: input.Icon, SortOrder: sortOrder}, nil
}

type CategoryUpdateInput struct {
	NameTh    *string `json:"nameTh"`
	NameEn    *string `json:"nameEn"`
	Icon      *string `json:"icon"`
	SortOrder *int    `json:"sortOrder"`
}

func UpdateCategory(database *sqlx.DB, id string, input CategoryUpdateInput) (*CategoryDTO, error) {
	builder := NewUpdate()
	builder.SetString("name_th", input.NameTh)
	builder.SetString("name_en", input.NameEn)
	builder.SetString("icon", input.Icon)
	builder.SetInt("sort_order", input.SortOrder)
	if err := applyUpdate(database, builder, "categories", id, "category not found"); err != nil {
		return nil, err
	}
	item := CategoryDTO{}
	if err := database.Get(&item, `SELECT id, name_th, name_en, icon, sort_order FROM categories WHERE id = $1`, id); err != nil {
		return nil, NotFoundOr(err, "category not found", "load category")
	}
	return &item, nil
}

func DeleteCategory(database *sqlx.DB, id string) error {
	return guardedDelete(database, guardedDeleteSpec{
		table:    "categories",
		id:       id,
		notFound: "category not found",
		dependents: []dependentSpec{{
			countQuery: `SELECT count(*) FROM course_categories WHERE category_id = $1`,
			message:    "category is used by %d course(s)",
		}},
	})
}

func ListCourseTypes(database *sqlx.DB) ([]CourseTypeDTO, error) {
	items := []CourseTypeDTO{}
	err := database.Select(&items, `
SELECT id, name_th, name_en, icon, description
FROM course_types
ORDER BY id ASC`)
	if err != nil {
		return nil, WrapError(err, "list course types")
	}
	return items, nil
}

type CourseTypeInput struct {
	ID          string  `json:"id"`
	NameTh      string  `json:"nameTh" validate:"required"`
	NameEn      string  `json:"nameEn" validate:"required"`
	Icon        *string `json:"icon"`
	Description *string `json:"description"`
}

func CreateCourseType(database *sqlx.DB, input CourseTypeInput) (*CourseTypeDTO, error) {
	nameTh, err := NormalizeRequired(input.NameTh, "nameTh is required")
	if err != nil {
		return nil, ErrBadRequest(err.Error())
	}
	nameEn, err := NormalizeRequired(input.NameEn, "nameEn is required")
	if err != nil {
		return nil, ErrBadRequest(err.Error())
	}
	id := strings.TrimSpace(input.ID)
	if id == "" {
		id = uuid.NewString()
	}
	_, err = database.Exec(`
INSERT INTO course_types (id, name_th, name_en, icon, description, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$6)`, id, nameTh, nameEn, input.Icon, input.Description, time.Now().UTC())
	if err != nil {
		return nil, WrapError(err, "insert course type")
	}
	return &CourseTypeDTO{ID: id, NameTh: nameTh, NameEn: nameEn, Icon: input.Icon, Description: input.Description}, nil
}

type CourseTypeUpdateInput struct {
	NameTh      *string `json:"nameTh"`
	NameEn      *string `json:"nameEn"`
	Icon        *string `json:"icon"`
	Description *string `json:"description"`
}

func UpdateCourseType(database *sqlx.DB, id string, input CourseTypeUpdateInput) (*CourseTypeDTO, error) {
	builder := NewUpdate()
	builder.SetString("name_th", input.NameTh)
	builder.SetString("name_en", input.NameEn)
	builder.SetString("icon", input.Icon)
	builder.SetString("description", input.Description)
	if err := applyUpdate(database, builder, "course_types", id, "course type not found"); err != nil {
		return nil, err
	}
	item := CourseTypeDTO{}
	if err := database.Get(&item, `SELECT id, name_th, name_en, icon, description FROM course_types WHERE id = $1`, id); err != nil {
		return nil, NotFoundOr(err, "course type not found", "load course type")
	}
	return &item, nil
}

func DeleteCourseType(database *sqlx.DB, id string) error {
	return guardedDelete(database, guardedDeleteSpec{
		table:    "course_types",
		id:       id,
		notFound: "course type not found",
		dependents: []dependentSpec{{
			countQuery: `SELECT count(*) FROM course_course_types WHERE course_type_id = $1`,
			message:    "course type is used by %d course(s)",
		}},
	})
}

type InstitutionDTO struct {
	ID           string  `json:"id" db:"id"`
	NameTh       string  `json:"nameTh" db:"name_th"`
	NameEn       string  `json:"nameEn" db:"name_en"`
	Abbreviation string  `json:"abbreviation" db:"abbreviation"`
	LogoID       *string `json:"logoAssetId" db:"logo_media_id"`
	LogoURL      *string `json:"logoUrl"`
	Website      *string `json:"website" db:"website"`
	Description  *string `json:"description" db:"description"`
	CourseCount  int     `json:"courseCount" db:"course_count"`
}

func ListInstitutions(database *sqlx.DB) ([]InstitutionDTO, error) {
	items := []InstitutionDTO{}
	err := database.Select(&items, `
SELECT i.id, i.name_th, i.name_en, i.abbreviation, i.logo_media_id, i.website, i.description,
       (SELECT count(*) FROM courses c WHERE c.institution_id = i.id) AS course_count
FROM institutions i
ORDER BY i.id ASC`)
	if err != nil {
		return nil, WrapError(err, "list institutions")
	}
	for idx := range items {
		items[idx].LogoURL = assetURLOrNil(items[idx].LogoID)
	}
	return items, nil
}

type InstitutionInput struct {
	ID           string  `json:"id"`
	NameTh       string  `json:"nameTh" validate:"required"`
	NameEn       string  `json:"nameEn" validate:"required"`
	Abbreviation string  `json:"abbreviation"`
	LogoID       *string `json:"logoAssetId"`
	Website      *string `json:"website"`
	Description  *string `json:"description"`
}

func CreateInstitution(database *sqlx.DB, input InstitutionInput) (*InstitutionDTO, error) {
	nameTh, err := NormalizeRequired(input.NameTh, "nameTh is required")
	if err != nil {
		return nil, ErrBadRequest(err.Error())
	}
	nameEn, err := NormalizeRequired(input.NameEn, "nameEn is required")
	if err != nil {
		return nil, ErrBadRequest(err.Error())
	}
	id := strings.TrimSpace(input.ID)
	if id == "" {
		id = uuid.NewString()
	}
	_, err = database.Exec(`
INSERT INTO institutions (id, name_th, name_en, abbreviation, logo_media_id, website, description, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$8)`,
		id, nameTh, nameEn, strings.TrimSpace(input.Abbreviation), input.LogoID, input.Website, input.Description, time.Now().UTC())
	if err != nil {
		return nil, WrapError(err, "insert institution")
	}
	return &InstitutionDTO{
		ID:           id,
		NameTh:       nameTh,
		NameEn:       nameEn,
		Abbreviation: strings.TrimSpace(input.Abbreviation),
		LogoID:       input.LogoID,
		LogoURL:      assetURLOrNil(input.LogoID),
		Website:      input.Website,
		Description:  input.Description,
	}, nil
}

type InstitutionUpdateInput struct {
	NameTh       *string `json:"nameTh"`
	NameEn       *string `json:"nameEn"`
	Abbreviation *string `json:"abbreviation"`
	LogoID       *string `json:"logoAssetId"`
	Website      *string `json:"website"`
	Description  *string `json:"description"`
}

func UpdateInstitution(database *sqlx.DB, id string, input InstitutionUpdateInput) (*InstitutionDTO, error) {
	builder := NewUpdate()
	builder.SetString("name_th", input.NameTh)
	builder.SetString("name_en", input.NameEn)
	builder.SetString("abbreviation", input.Abbreviation)
	builder.SetString("logo_media_id", input.LogoID)
	builder.SetString("website", input.Website)
	builder.SetString("description", input.Description)
	if err := applyUpdate(database, builder, "institutions", id, "institution not found"); err != nil {
		return nil, err
	}
	item := InstitutionDTO{}
	err := database.Get(&item, `
SELECT i.id, i.name_th, i.name_en, i.abbreviation, i.logo_media_id, i.website, i.description,
       (SELECT count(*) FROM courses c WHERE c.institution_id = i.id) AS course_count
FROM institutions i WHERE i.id = $1`, id)
	if err != nil {
		return nil, NotFoundOr(err, "institution not found", "load institution")
	}
	item.LogoURL = assetURLOrNil(item.LogoID)
	return &item, nil
}

func DeleteInstitution(database *sqlx.DB, id string) error {
	return guardedDelete(database, guardedDeleteSpec{
		table:    "institutions",
		id:       id,
		notFound: "institution not found",
		dependents: []dependentSpec{
			{
				countQuery: `SELECT count(*) FROM courses WHERE institution_id = $1`,
				message:    "institution has %d dependent course(s)",
			},
			{
				countQuery: `SELECT count(*) FROM instructors WHERE institution_id = $1`,
				message:    "institution has %d dependent instructor(s)",
			},
		},
	})
}

type InstructorDetailDTO struct {
	ID            string  `json:"id" db:"id"`
	NameTh        string  `json:"nameTh" db:"name_th"`
	NameEn        string  `json:"nameEn" db:"name_en"`
	Title         *string `json:"title" db:"title"`
	InstitutionID *string `json:"institutionId" db:"institution_id"`
	Bio           *string `json:"bio" db:"bio"`
	Email         *string `json:"email" db:"email"`
	ImageID       *string `json:"imageAssetId" db:"image_media_id"`
	ImageURL      *string `json:"imageUrl"`
}

func ListInstructors(database *sqlx.DB, institutionID string) ([]InstructorDetailDTO, error) {
	items := []InstructorDetailDTO{}
	query := `
SELECT id, name_th, name_en, title, institution_id, bio, email, image_media_id
FROM instructors`
	args := []interface{}{}
	if institutionID != "" {
		query += " WHERE institution_id = $1"
		args = append(args, institutionID)
	}
	query += " ORDER BY id ASC"
	if err := database.Select(&items, query, args...); err != nil {
		return nil, WrapError(err, "list instructors")
	}
	for idx := range items {
		items[idx].ImageURL = assetURLOrNil(items[idx].ImageID)
	}
	return items, nil
}

type InstructorInput struct {
	ID            string  `json:"id"`
	NameTh        string  `json:"nameTh" validate:"required"`
	NameEn        string  `json:"nameEn" validate:"required"`
	Title         *string `json:"title"`
	InstitutionID *string `json:"institutionId"`
	Bio           *string `json:"bio"`
	Email         *string `json:"email"`
	ImageID       *string `json:"imageAssetId"`
}

func CreateInstructor(database *sqlx.DB, input InstructorInput) (*InstructorDetailDTO, error) {
	nameTh, err := NormalizeRequired(input.NameTh, "nameTh is required")
	if err != nil {
		return nil, ErrBadRequest(err.Error())
	}
	nameEn, err := NormalizeRequired(input.NameEn, "nameEn is required")
	if err != nil {
		return nil, ErrBadRequest(err.Error())
	}
	id := strings.TrimSpace(input.ID)
	if id == "" {
		id = uuid.NewString()
	}
	_, err = database.Exec(`
INSERT INTO instructors (id, name_th, name_en, title, institution_id, bio, email, image_media_id, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$9)`,
		id, nameTh, nameEn, input.Title, input.InstitutionID, input.Bio, input.Email, input.ImageID, time.Now().UTC())
	if err != nil {
		return nil, WrapError(err, "insert instructor")
	}
	return &InstructorDetailDTO{
		ID:            id,
		NameTh:        nameTh,
		NameEn:        nameEn,
		Title:         input.Title,
		InstitutionID: input.InstitutionID,
		Bio:           input.Bio,
		Email:         input.Email,
		ImageID:       input.ImageID,
		ImageURL:      assetURLOrNil(input.ImageID),
	}, nil
}

type InstructorUpdateInput struct {
	NameTh        *string `json:"nameTh"`
	NameEn        *string `json:"nameEn"`
	Title         *string `json:"title"`
	InstitutionID *string `json:"institutionId"`
	Bio           *string `json:"bio"`
	Email         *string `json:"email"`
	ImageID       *string `json:"imageAssetId"`
}

func UpdateInstructor(database *sqlx.DB, id string, input InstructorUpdateInput) (*InstructorDetailDTO, error) {
	builder := NewUpdate()
	builder.SetString("name_th", input.NameTh)
	builder.SetString("name_en", input.NameEn)
	builder.SetString("title", input.Title)
	builder.SetString("institution_id", input.InstitutionID)
	builder.SetString("bio", input.Bio)
	builder.SetString("email", input.Email)
	builder.SetString("image_media_id", input.ImageID)
	if err := applyUpdate(database, builder, "instructors", id, "instructor not found"); err != nil {
		return nil, err
	}
	item := InstructorDetailDTO{}
	err := database.Get(&item, `
SELECT id, name_th, name_en, title, institution_id, bio, email, image_media_id
FROM instructors WHERE id = $1`, id)
	if err != nil {
		return nil, NotFoundOr(err, "instructor not found", "load instructor")
	}
	item.ImageURL = assetURLOrNil(item.ImageID)
	return &item, nil
}

func DeleteInstructor(database *sqlx.DB, id string) error {
	return guardedDelete(database, guardedDeleteSpec{
		table:    "instructors",
		id:       id,
		notFound: "instructor not found",
		dependents: []dependentSpec{{
			countQuery: `SELECT count(*) FROM course_instructors WHERE instructor_id = $1`,
			message:    "instructor is assigned to %d course(s)",
		}},
	})
}

type dependentSpec struct {
	countQuery string
	message    string
}

type guardedDeleteSpec struct {
	table      string
	id         string
	notFound   string
	dependents []dependentSpec
}

// guardedDelete counts dependents and deletes inside the same transaction, so
// a dependent row created between the check and the delete cannot slip
// through. Nothing ever cascades silently.
func guardedDelete(database *sqlx.DB, spec guardedDeleteSpec) error {
	return db.WithTx(database, func(tx *sqlx.Tx) error {
		return runGuardedDelete(tx, spec)
	})
}

func runGuardedDelete(q db.Queryer, spec guardedDeleteSpec) error {
	var exists bool
	query := fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s WHERE id = $1)", spec.table)
	if err := q.Get(&exists, query, spec.id); err != nil {
		return WrapError(err, "check "+spec.table)
	}
	if !exists {
		return ErrNotFound(spec.notFound)
	}
	for _, dependent := range spec.dependents {
		var count int
		if err := q.Get(&count, dependent.countQuery, spec.id); err != nil {
			return WrapError(err, "count dependents")
		}
		if count > 0 {
			return ErrConflict(fmt.Sprintf(dependent.message, count))
		}
	}
	_, err := q.Exec(fmt.Sprintf("DELETE FROM %s WHERE id = $1", spec.table), spec.id)
	return WrapError(err, "delete from "+spec.table)
}

// applyUpdate runs a partial update and reports not-found; an empty builder
// still verifies the row exists.
func applyUpdate(database *sqlx.DB, builder *UpdateBuilder, table, id, notFound string) error {
	if builder.Empty() {
		var exists bool
		query := fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s WHERE id = $1)", table)
		if err := database.Get(&exists, query, id); err != nil {
			return WrapError(err, "check "+table)
		}
		if !exists {
			return ErrNotFound(notFound)
		}
		return nil
	}
	builder.Set("updated_at", time.Now().UTC())
	query, args := builder.Build(table, "id", id)
	result, err := database.Exec(query, args...)
	if err != nil {
		return WrapError(err, "update "+table)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return ErrNotFound(notFound)
	}
	return nil
}
