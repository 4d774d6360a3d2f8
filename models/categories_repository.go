package models

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// ErrCategoryExists is returned when a category name or slug is taken.
var ErrCategoryExists = errors.New("category already exists")

const uniqueViolation = "23505"

type CategoriesRepository struct {
	db *gorm.DB
}

func NewCategoriesRepository(db *gorm.DB) *CategoriesRepository {
	return &CategoriesRepository{db: db}
}

func (r *CategoriesRepository) GetAllCategories(ctx context.Context) ([]Category, error) {
	var categories []Category
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// CreateCategory inserts a category. An empty slug is derived from the name.
func (r *CategoriesRepository) CreateCategory(ctx context.Context, category *Category) error {
	if category.Slug == "" {
		s, err := UniqueSlug(ctx, category.Name, "category", r.slugTaken)
		if err != nil {
			return err
		}
		category.Slug = s
	}
	if err := r.db.WithContext(ctx).Create(category).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrCategoryExists
		}
		return err
	}
	return nil
}

func (r *CategoriesRepository) slugTaken(ctx context.Context, slug string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&Category{}).Where("slug = ?", slug).Count(&n).Error
	return n > 0, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
