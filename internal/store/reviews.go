package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/kinhtot/marketplace/internal/database"
	"github.com/kinhtot/marketplace/internal/models"
)

// CreateReview enforces one review per (user, product) through the
// unique constraint; there is no purchase-verification gate.
func CreateReview(ctx context.Context, db *sql.DB, userID, productID int64, rating int, comment string) (*models.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, fmt.Errorf("%w: rating must be between 1 and 5", database.ErrInvalidOrderInput)
	}

	var active bool
	err := db.QueryRowContext(ctx,
		`SELECT is_active FROM products WHERE id = $1`, productID).Scan(&active)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrProductNotFound
		}
		return nil, fmt.Errorf("check product: %w", err)
	}
	if !active {
		return nil, database.ErrProductNotFound
	}

	review := &models.Review{UserID: userID, ProductID: productID, Rating: rating, Comment: comment}
	err = db.QueryRowContext(ctx,
		`INSERT INTO reviews (user_id, product_id, rating, comment, created_at)
		 VALUES ($1, $2, $3, $4, NOW())
		 RETURNING id, created_at`,
		userID, productID, rating, nullString(comment)).
		Scan(&review.ID, &review.CreatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, database.ErrDuplicateReview
		}
		return nil, fmt.Errorf("create review: %w", err)
	}

	return review, nil
}

type ReviewFilter struct {
	ProductID *int64
	UserID    *int64
	Page      int
	Limit     int
}

func ListReviews(ctx context.Context, db *sql.DB, filter ReviewFilter) (*OffsetPage, error) {
	page, limit := ClampPage(filter.Page, filter.Limit, 10, 50)

	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.ProductID != nil {
		where = append(where, "r.product_id = "+arg(*filter.ProductID))
	}
	if filter.UserID != nil {
		where = append(where, "r.user_id = "+arg(*filter.UserID))
	}

	whereClause := ""
	if len(where) > 0 {
		whereClause = " WHERE " + strings.Join(where, " AND ")
	}

	base := ` FROM reviews r JOIN users u ON u.id = r.user_id JOIN products p ON p.id = r.product_id` + whereClause

	var total int64
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*)`+base, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count reviews: %w", err)
	}

	query := `SELECT r.id, r.user_id, r.product_id, r.rating, COALESCE(r.comment, ''), r.created_at,
		u.full_name, p.name, p.slug` + base +
		fmt.Sprintf(` ORDER BY r.created_at DESC, r.id DESC LIMIT %s OFFSET %s`, arg(limit), arg((page-1)*limit))

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	var reviews []models.Review
	for rows.Next() {
		var (
			review models.Review
			ref    models.ProductRef
		)
		err := rows.Scan(
			&review.ID,
			&review.UserID,
			&review.ProductID,
			&review.Rating,
			&review.Comment,
			&review.CreatedAt,
			&review.UserName,
			&ref.Name,
			&ref.Slug,
		)
		if err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		ref.ID = review.ProductID
		review.Product = &ref
		reviews = append(reviews, review)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return &OffsetPage{
		Items:      reviews,
		Total:      total,
		Page:       page,
		PageSize:   limit,
		TotalPages: totalPages(total, limit),
	}, nil
}

// DeleteReview allows the author to remove their own review, and
// staff/admin to remove any.
func DeleteReview(ctx context.Context, db *sql.DB, reviewID, actorID int64, actorRole string) error {
	var authorID int64
	err := db.QueryRowContext(ctx,
		`SELECT user_id FROM reviews WHERE id = $1`, reviewID).Scan(&authorID)
	if err != nil {
		if err == sql.ErrNoRows {
			return database.ErrReviewNotFound
		}
		return fmt.Errorf("get review: %w", err)
	}

	canManageAny := actorRole == models.RoleStaff || actorRole == models.RoleAdmin
	if !canManageAny && authorID != actorID {
		return database.ErrForbidden
	}

	if _, err := db.ExecContext(ctx, `DELETE FROM reviews WHERE id = $1`, reviewID); err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	return nil
}
