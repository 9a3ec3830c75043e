package store

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/kinhtot/marketplace/internal/database"
	"github.com/kinhtot/marketplace/internal/models"
)

const productColumns = `p.id, p.seller_id, p.category_id, p.name, p.slug, COALESCE(p.description, ''),
	p.price, p.sale_price, p.stock, p.condition, COALESCE(p.frame_shape, ''), COALESCE(p.frame_material, ''),
	p.images, p.is_active, p.created_at, p.updated_at, p.version`

func scanProduct(row interface{ Scan(...any) error }, product *models.Product) error {
	var (
		categoryID sql.NullInt64
		salePrice  decimal.NullDecimal
		images     pq.StringArray
	)
	err := row.Scan(
		&product.ID,
		&product.SellerID,
		&categoryID,
		&product.Name,
		&product.Slug,
		&product.Description,
		&product.Price,
		&salePrice,
		&product.Stock,
		&product.Condition,
		&product.FrameShape,
		&product.FrameMaterial,
		&images,
		&product.IsActive,
		&product.CreatedAt,
		&product.UpdatedAt,
		&product.Version,
	)
	if err != nil {
		return err
	}
	if categoryID.Valid {
		product.CategoryID = &categoryID.Int64
	}
	if salePrice.Valid {
		product.SalePrice = &salePrice.Decimal
	}
	product.Images = images
	return nil
}

var slugStrip = regexp.MustCompile(`[^a-z0-9-]`)

// Slugify derives a URL slug from a product name the way the
// storefront expects: lowercase, spaces to hyphens, ASCII only.
func Slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = strings.Join(strings.Fields(slug), "-")
	return slugStrip.ReplaceAllString(slug, "")
}

type CreateProductRequest struct {
	SellerID      int64
	CategoryID    *int64
	Name          string
	Slug          string
	Description   string
	Price         decimal.Decimal
	SalePrice     *decimal.Decimal
	Stock         int
	Condition     string
	FrameShape    string
	FrameMaterial string
	Images        []string
}

func CreateProduct(ctx context.Context, db *sql.DB, req CreateProductRequest) (*models.Product, error) {
	slug := req.Slug
	if slug == "" {
		slug = Slugify(req.Name)
	}

	var sellerRole string
	err := db.QueryRowContext(ctx, `SELECT role FROM users WHERE id = $1`, req.SellerID).Scan(&sellerRole)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrUserNotFound
		}
		return nil, fmt.Errorf("check seller: %w", err)
	}
	if sellerRole != models.RoleSeller {
		return nil, fmt.Errorf("%w: user %d is not a seller", database.ErrForbidden, req.SellerID)
	}

	product := &models.Product{}
	err = scanProduct(db.QueryRowContext(ctx,
		`INSERT INTO products (seller_id, category_id, name, slug, description, price, sale_price, stock,
		                       condition, frame_shape, frame_material, images, is_active, created_at, updated_at, version)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, TRUE, NOW(), NOW(), 1)
		 RETURNING `+strings.ReplaceAll(productColumns, "p.", ""),
		req.SellerID, nullInt64(req.CategoryID), req.Name, slug, nullString(req.Description),
		req.Price, nullDecimal(req.SalePrice), req.Stock, req.Condition,
		nullString(req.FrameShape), nullString(req.FrameMaterial), pq.Array(req.Images)), product)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, database.ErrSlugTaken
		}
		return nil, fmt.Errorf("create product: %w", err)
	}

	return product, nil
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func nullDecimal(v *decimal.Decimal) decimal.NullDecimal {
	if v == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *v, Valid: true}
}

func GetProduct(ctx context.Context, db *sql.DB, id int64) (*models.Product, error) {
	product := &models.Product{}
	err := scanProduct(db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products p WHERE p.id = $1`, id), product)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrProductNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return product, nil
}

// GetProductBySlug resolves an active product for the storefront
// detail page; inactive products are invisible here.
func GetProductBySlug(ctx context.Context, db *sql.DB, slug string) (*models.Product, error) {
	product := &models.Product{}
	err := scanProduct(db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products p WHERE p.slug = $1 AND p.is_active = TRUE`, slug), product)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrProductNotFound
		}
		return nil, fmt.Errorf("get product by slug: %w", err)
	}

	if err := attachCategory(ctx, db, product); err != nil {
		return nil, err
	}
	return product, nil
}

func attachCategory(ctx context.Context, db *sql.DB, product *models.Product) error {
	if product.CategoryID == nil {
		return nil
	}
	category := &models.Category{}
	err := db.QueryRowContext(ctx,
		`SELECT id, name, slug FROM categories WHERE id = $1`, *product.CategoryID).
		Scan(&category.ID, &category.Name, &category.Slug)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil
		}
		return fmt.Errorf("get category: %w", err)
	}
	product.Category = category
	return nil
}

type ProductFilter struct {
	CategoryID    *int64
	FrameShape    string
	FrameShapes   []string
	FrameMaterial string
	Condition     string
	Search        string
	SellerID      *int64
	Page          int
	Limit         int
}

func ListProducts(ctx context.Context, db *sql.DB, filter ProductFilter) (*OffsetPage, error) {
	page, limit := ClampPage(filter.Page, filter.Limit, 12, 50)

	var (
		where = []string{"p.is_active = TRUE"}
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.CategoryID != nil {
		where = append(where, "p.category_id = "+arg(*filter.CategoryID))
	}
	if filter.FrameShape != "" {
		where = append(where, "p.frame_shape = "+arg(filter.FrameShape))
	}
	if len(filter.FrameShapes) > 0 {
		where = append(where, "p.frame_shape = ANY("+arg(pq.Array(filter.FrameShapes))+")")
	}
	if filter.FrameMaterial != "" {
		where = append(where, "p.frame_material = "+arg(filter.FrameMaterial))
	}
	if filter.Condition != "" {
		where = append(where, "p.condition = "+arg(filter.Condition))
	}
	if filter.SellerID != nil {
		where = append(where, "p.seller_id = "+arg(*filter.SellerID))
	}
	if filter.Search != "" {
		p := arg("%" + filter.Search + "%")
		where = append(where, fmt.Sprintf("(p.name ILIKE %[1]s OR p.description ILIKE %[1]s)", p))
	}

	base := ` FROM products p WHERE ` + strings.Join(where, " AND ")

	var total int64
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*)`+base, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}

	query := `SELECT ` + productColumns + `, u.full_name` +
		strings.Replace(base, "FROM products p", "FROM products p JOIN users u ON u.id = p.seller_id", 1) +
		fmt.Sprintf(` ORDER BY p.created_at DESC, p.id DESC LIMIT %s OFFSET %s`, arg(limit), arg((page-1)*limit))

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		var (
			product    models.Product
			categoryID sql.NullInt64
			salePrice  decimal.NullDecimal
			images     pq.StringArray
		)
		err := rows.Scan(
			&product.ID,
			&product.SellerID,
			&categoryID,
			&product.Name,
			&product.Slug,
			&product.Description,
			&product.Price,
			&salePrice,
			&product.Stock,
			&product.Condition,
			&product.FrameShape,
			&product.FrameMaterial,
			&images,
			&product.IsActive,
			&product.CreatedAt,
			&product.UpdatedAt,
			&product.Version,
			&product.SellerName,
		)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		if categoryID.Valid {
			product.CategoryID = &categoryID.Int64
		}
		if salePrice.Valid {
			product.SalePrice = &salePrice.Decimal
		}
		product.Images = images
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return &OffsetPage{
		Items:      products,
		Total:      total,
		Page:       page,
		PageSize:   limit,
		TotalPages: totalPages(total, limit),
	}, nil
}

type UpdateProductRequest struct {
	CategoryID    *int64
	Name          *string
	Description   *string
	Price         *decimal.Decimal
	SalePrice     *decimal.Decimal
	ClearSale     bool
	Stock         *int
	Condition     *string
	FrameShape    *string
	FrameMaterial *string
	Images        []string
}

// UpdateProduct applies a partial update. Only the owning seller or
// staff/admin may call it; the handler enforces that with CanMutate.
func UpdateProduct(ctx context.Context, db *sql.DB, id int64, req UpdateProductRequest) (*models.Product, error) {
	var (
		sets []string
		args []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if req.CategoryID != nil {
		sets = append(sets, "category_id = "+arg(*req.CategoryID))
	}
	if req.Name != nil {
		sets = append(sets, "name = "+arg(*req.Name))
	}
	if req.Description != nil {
		sets = append(sets, "description = "+arg(*req.Description))
	}
	if req.Price != nil {
		sets = append(sets, "price = "+arg(*req.Price))
	}
	if req.ClearSale {
		sets = append(sets, "sale_price = NULL")
	} else if req.SalePrice != nil {
		sets = append(sets, "sale_price = "+arg(*req.SalePrice))
	}
	if req.Stock != nil {
		sets = append(sets, "stock = "+arg(*req.Stock))
	}
	if req.Condition != nil {
		sets = append(sets, "condition = "+arg(*req.Condition))
	}
	if req.FrameShape != nil {
		sets = append(sets, "frame_shape = "+arg(*req.FrameShape))
	}
	if req.FrameMaterial != nil {
		sets = append(sets, "frame_material = "+arg(*req.FrameMaterial))
	}
	if req.Images != nil {
		sets = append(sets, "images = "+arg(pq.Array(req.Images)))
	}

	if len(sets) == 0 {
		return GetProduct(ctx, db, id)
	}
	sets = append(sets, "updated_at = NOW()", "version = version + 1")

	result, err := db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE products SET %s WHERE id = %s`, strings.Join(sets, ", "), arg(id)),
		args...)
	if err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, database.ErrProductNotFound
	}

	return GetProduct(ctx, db, id)
}

// DeactivateProduct soft-deletes: the row stays for order-line history
// but disappears from the storefront and rejects new orders.
func DeactivateProduct(ctx context.Context, db *sql.DB, id int64) error {
	result, err := db.ExecContext(ctx,
		`UPDATE products SET is_active = FALSE, updated_at = NOW(), version = version + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deactivate product: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return database.ErrProductNotFound
	}
	return nil
}

// CanMutateProduct checks the role × ownership rule for product
// writes: staff/admin always, a seller only on their own product.
func CanMutateProduct(actorID int64, actorRole string, product *models.Product) error {
	switch actorRole {
	case models.RoleStaff, models.RoleAdmin:
		return nil
	case models.RoleSeller:
		if product.SellerID == actorID {
			return nil
		}
	}
	return database.ErrForbidden
}
