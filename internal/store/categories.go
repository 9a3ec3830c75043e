package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kinhtot/marketplace/internal/database"
	"github.com/kinhtot/marketplace/internal/models"
)

func ListCategories(ctx context.Context, db *sql.DB) ([]models.Category, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, name, slug FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		var category models.Category
		if err := rows.Scan(&category.ID, &category.Name, &category.Slug); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, category)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return categories, nil
}

func CreateCategory(ctx context.Context, db *sql.DB, name, slug string) (*models.Category, error) {
	if slug == "" {
		slug = Slugify(name)
	}

	category := &models.Category{Name: name, Slug: slug}
	err := db.QueryRowContext(ctx,
		`INSERT INTO categories (name, slug) VALUES ($1, $2) RETURNING id`,
		name, slug).Scan(&category.ID)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, database.ErrSlugTaken
		}
		return nil, fmt.Errorf("create category: %w", err)
	}

	return category, nil
}

func GetCategory(ctx context.Context, db *sql.DB, id int64) (*models.Category, error) {
	category := &models.Category{}
	err := db.QueryRowContext(ctx,
		`SELECT id, name, slug FROM categories WHERE id = $1`, id).
		Scan(&category.ID, &category.Name, &category.Slug)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("get category: %w", err)
	}
	return category, nil
}
