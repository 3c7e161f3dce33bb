package repository

import (
	"context"
	"errors"
	"time"

	"gastoscan/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type CategoryRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewCategoryRepository(db *pgxpool.Pool, logger *zap.Logger) *CategoryRepository {
	return &CategoryRepository{
		db:     db,
		logger: logger,
	}
}

// FindByName looks a category up by exact name. A missing category is not
// an error: (nil, nil) is returned.
func (r *CategoryRepository) FindByName(ctx context.Context, name string) (*models.Category, error) {
	query := squirrel.Select("id", "name", "created_at", "updated_at").
		From("categories").
		Where(squirrel.Eq{"name": name}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	var category models.Category
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&category.ID, &category.Name, &category.CreatedAt, &category.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &category, nil
}

func (r *CategoryRepository) Create(ctx context.Context, name string) (*models.Category, error) {
	now := time.Now()
	category := &models.Category{
		ID:        uuid.New(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}

	query := squirrel.Insert("categories").
		Columns("id", "name", "created_at", "updated_at").
		Values(category.ID, category.Name, category.CreatedAt, category.UpdatedAt).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		return nil, err
	}

	return category, nil
}
