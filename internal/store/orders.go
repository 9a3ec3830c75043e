package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/kinhtot/marketplace/internal/database"
	"github.com/kinhtot/marketplace/internal/models"
)

type CreateOrderRequest struct {
	BuyerID         int64
	Items           []OrderItemRequest
	ShippingAddress string
	Phone           string
	Note            string
}

type OrderItemRequest struct {
	ProductID int64
	Quantity  int
}

func generateOrderNumber() string {
	return "ORD-" + uuid.NewString()
}

// CreateOrder validates the cart, snapshots effective prices into line
// items and decrements stock, all in one serializable transaction.
// The decrement is conditional on stock remaining sufficient; zero
// rows affected aborts the whole order, so concurrent checkouts can
// never drive stock negative.
func CreateOrder(ctx context.Context, db *sql.DB, req CreateOrderRequest) (*models.Order, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: empty item list", database.ErrInvalidOrderInput)
	}
	if strings.TrimSpace(req.ShippingAddress) == "" || strings.TrimSpace(req.Phone) == "" {
		return nil, fmt.Errorf("%w: missing shipping address or phone", database.ErrInvalidOrderInput)
	}

	// Duplicate product lines are merged so the stock decrement runs
	// once per product with the summed quantity. Missing or
	// non-positive quantities count as one unit.
	quantities := make(map[int64]int)
	var productIDs []int64
	for _, item := range req.Items {
		qty := item.Quantity
		if qty < 1 {
			qty = 1
		}
		if _, seen := quantities[item.ProductID]; !seen {
			productIDs = append(productIDs, item.ProductID)
		}
		quantities[item.ProductID] += qty
	}

	var order *models.Order

	err := database.WithRetry(ctx, db, database.SerializableTxOptions(), func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx,
			`SELECT id, name, slug, images, price, sale_price, stock
			 FROM products
			 WHERE id = ANY($1) AND is_active = TRUE
			 FOR UPDATE`,
			pq.Array(productIDs))
		if err != nil {
			return fmt.Errorf("lock products: %w", err)
		}

		type lockedProduct struct {
			ref       models.ProductRef
			unitPrice decimal.Decimal
			stock     int
		}
		locked := make(map[int64]lockedProduct)

		for rows.Next() {
			var (
				p         lockedProduct
				images    pq.StringArray
				price     decimal.Decimal
				salePrice decimal.NullDecimal
			)
			if err := rows.Scan(&p.ref.ID, &p.ref.Name, &p.ref.Slug, &images, &price, &salePrice, &p.stock); err != nil {
				rows.Close()
				return fmt.Errorf("scan product: %w", err)
			}
			p.ref.Images = images
			p.unitPrice = price
			if salePrice.Valid {
				p.unitPrice = salePrice.Decimal
			}
			locked[p.ref.ID] = p
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("rows error: %w", err)
		}

		// All referenced products must exist and be active; a single
		// unknown or retired product rejects the whole cart.
		if len(locked) != len(productIDs) {
			return fmt.Errorf("%w: one or more products do not exist or are no longer for sale", database.ErrInvalidOrderInput)
		}

		var totalAmount decimal.Decimal
		for _, id := range productIDs {
			p := locked[id]
			qty := quantities[id]
			if p.stock < qty {
				return fmt.Errorf("%w: product %q", database.ErrInsufficientStock, p.ref.Name)
			}
			totalAmount = totalAmount.Add(p.unitPrice.Mul(decimal.NewFromInt(int64(qty))))
		}

		order = &models.Order{
			OrderNumber:     generateOrderNumber(),
			BuyerID:         req.BuyerID,
			Status:          models.OrderStatusPending,
			TotalAmount:     totalAmount,
			ShippingAddress: req.ShippingAddress,
			Phone:           req.Phone,
			Note:            req.Note,
		}
		err = tx.QueryRowContext(ctx,
			`INSERT INTO orders (order_number, buyer_id, status, total_amount, shipping_address, phone, note, created_at, updated_at, version)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW(), 1)
			 RETURNING id, created_at, updated_at`,
			order.OrderNumber, order.BuyerID, order.Status, order.TotalAmount,
			order.ShippingAddress, order.Phone, nullString(order.Note)).
			Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
		if err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		for _, id := range productIDs {
			p := locked[id]
			qty := quantities[id]
			subtotal := p.unitPrice.Mul(decimal.NewFromInt(int64(qty)))

			item := models.OrderItem{
				OrderID:   order.ID,
				ProductID: id,
				Quantity:  qty,
				UnitPrice: p.unitPrice,
				Subtotal:  subtotal,
				Product:   &models.ProductRef{ID: p.ref.ID, Name: p.ref.Name, Slug: p.ref.Slug, Images: p.ref.Images},
			}
			err = tx.QueryRowContext(ctx,
				`INSERT INTO order_items (order_id, product_id, quantity, unit_price, subtotal, created_at)
				 VALUES ($1, $2, $3, $4, $5, NOW())
				 RETURNING id, created_at`,
				order.ID, id, qty, p.unitPrice, subtotal).
				Scan(&item.ID, &item.CreatedAt)
			if err != nil {
				return fmt.Errorf("create order item: %w", err)
			}
			order.Items = append(order.Items, item)

			result, err := tx.ExecContext(ctx,
				`UPDATE products
				 SET stock = stock - $1,
				     updated_at = NOW()
				 WHERE id = $2
				   AND stock >= $1`,
				qty, id)
			if err != nil {
				return fmt.Errorf("decrement stock: %w", err)
			}
			rowsAffected, err := result.RowsAffected()
			if err != nil {
				return fmt.Errorf("get rows affected: %w", err)
			}
			if rowsAffected == 0 {
				return fmt.Errorf("%w: product %q", database.ErrInsufficientStock, p.ref.Name)
			}
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return order, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

const orderColumns = `id, order_number, buyer_id, status, total_amount, shipping_address, phone,
	COALESCE(note, ''), COALESCE(vnp_transaction_no, ''), created_at, updated_at, version`

func scanOrder(row interface{ Scan(...any) error }, order *models.Order) error {
	return row.Scan(
		&order.ID,
		&order.OrderNumber,
		&order.BuyerID,
		&order.Status,
		&order.TotalAmount,
		&order.ShippingAddress,
		&order.Phone,
		&order.Note,
		&order.VNPTransactionNo,
		&order.CreatedAt,
		&order.UpdatedAt,
		&order.Version,
	)
}

func GetOrder(ctx context.Context, db *sql.DB, id int64) (*models.Order, error) {
	order := &models.Order{}

	err := scanOrder(db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id), order)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	if err := attachItems(ctx, db, order); err != nil {
		return nil, err
	}
	if err := attachBuyer(ctx, db, order); err != nil {
		return nil, err
	}

	return order, nil
}

func GetOrderByNumber(ctx context.Context, db *sql.DB, orderNumber string) (*models.Order, error) {
	order := &models.Order{}

	err := scanOrder(db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE order_number = $1`, orderNumber), order)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order by number: %w", err)
	}

	return order, nil
}

func attachItems(ctx context.Context, db *sql.DB, order *models.Order) error {
	rows, err := db.QueryContext(ctx,
		`SELECT oi.id, oi.order_id, oi.product_id, oi.quantity, oi.unit_price, oi.subtotal, oi.created_at,
		        p.name, p.slug, p.images
		 FROM order_items oi
		 JOIN products p ON p.id = oi.product_id
		 WHERE oi.order_id = $1
		 ORDER BY oi.id`,
		order.ID)
	if err != nil {
		return fmt.Errorf("get order items: %w", err)
	}
	defer rows.Close()

	var items []models.OrderItem
	for rows.Next() {
		var (
			item   models.OrderItem
			ref    models.ProductRef
			images pq.StringArray
		)
		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.Quantity,
			&item.UnitPrice,
			&item.Subtotal,
			&item.CreatedAt,
			&ref.Name,
			&ref.Slug,
			&images,
		)
		if err != nil {
			return fmt.Errorf("scan order item: %w", err)
		}
		ref.ID = item.ProductID
		ref.Images = images
		item.Product = &ref
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("rows error: %w", err)
	}

	order.Items = items
	return nil
}

func attachBuyer(ctx context.Context, db *sql.DB, order *models.Order) error {
	buyer := &models.BuyerRef{}
	err := db.QueryRowContext(ctx,
		`SELECT id, full_name, email, COALESCE(phone, '') FROM users WHERE id = $1`,
		order.BuyerID).Scan(&buyer.ID, &buyer.FullName, &buyer.Email, &buyer.Phone)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil
		}
		return fmt.Errorf("get order buyer: %w", err)
	}
	order.Buyer = buyer
	return nil
}

// ListMyOrders returns the buyer's orders, newest first, with line
// items and product projections, cursor-paginated.
func ListMyOrders(ctx context.Context, db *sql.DB, buyerID int64, cursor string, limit int) (*CursorPage, error) {
	cursorData, err := DecodeCursor(cursor)
	if err != nil {
		return nil, fmt.Errorf("decode cursor: %w", err)
	}

	rows, err := db.QueryContext(ctx,
		`SELECT `+orderColumns+`
		 FROM orders
		 WHERE buyer_id = $1
		   AND (created_at, id) < ($2, $3)
		 ORDER BY created_at DESC, id DESC
		 LIMIT $4`,
		buyerID, cursorData.CreatedAt, cursorData.ID, limit+1)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var order models.Order
		if err := scanOrder(rows, &order); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	hasMore := len(orders) > limit
	if hasMore {
		orders = orders[:limit]
	}

	for i := range orders {
		if err := attachItems(ctx, db, &orders[i]); err != nil {
			return nil, err
		}
	}

	var nextCursor string
	if hasMore && len(orders) > 0 {
		last := orders[len(orders)-1]
		nextCursor = EncodeCursor(OrderCursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}

	return &CursorPage{
		Items:      orders,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}

type ManageOrdersFilter struct {
	Status      string
	OrderNumber string
	Search      string
	Page        int
	Limit       int
}

// ListManageOrders is the management listing: offset-paginated,
// filterable, and scoped so a seller only sees orders that contain at
// least one of their own products.
func ListManageOrders(ctx context.Context, db *sql.DB, actorID int64, actorRole string, filter ManageOrdersFilter) (*OffsetPage, error) {
	switch actorRole {
	case models.RoleSeller, models.RoleStaff, models.RoleAdmin:
	default:
		return nil, database.ErrForbidden
	}

	page, limit := ClampPage(filter.Page, filter.Limit, 20, 100)

	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Status != "" {
		where = append(where, "o.status = "+arg(filter.Status))
	}
	if filter.OrderNumber != "" {
		where = append(where, "o.order_number ILIKE "+arg("%"+filter.OrderNumber+"%"))
	}
	if filter.Search != "" {
		p := arg("%" + filter.Search + "%")
		where = append(where, fmt.Sprintf(
			"(o.order_number ILIKE %[1]s OR u.full_name ILIKE %[1]s OR u.email ILIKE %[1]s OR u.phone ILIKE %[1]s)", p))
	}
	if actorRole == models.RoleSeller {
		where = append(where, fmt.Sprintf(
			`EXISTS (SELECT 1 FROM order_items oi
			         JOIN products p ON p.id = oi.product_id
			         WHERE oi.order_id = o.id AND p.seller_id = %s)`, arg(actorID)))
	}

	whereClause := ""
	if len(where) > 0 {
		whereClause = " WHERE " + strings.Join(where, " AND ")
	}

	base := ` FROM orders o JOIN users u ON u.id = o.buyer_id` + whereClause

	var total int64
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*)`+base, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count orders: %w", err)
	}

	query := `SELECT o.id, o.order_number, o.buyer_id, o.status, o.total_amount, o.shipping_address, o.phone,
		COALESCE(o.note, ''), COALESCE(o.vnp_transaction_no, ''), o.created_at, o.updated_at, o.version,
		u.full_name, u.email, COALESCE(u.phone, '')` + base +
		fmt.Sprintf(` ORDER BY o.created_at DESC, o.id DESC LIMIT %s OFFSET %s`,
			arg(limit), arg((page-1)*limit))

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list manage orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var (
			order models.Order
			buyer models.BuyerRef
		)
		err := rows.Scan(
			&order.ID,
			&order.OrderNumber,
			&order.BuyerID,
			&order.Status,
			&order.TotalAmount,
			&order.ShippingAddress,
			&order.Phone,
			&order.Note,
			&order.VNPTransactionNo,
			&order.CreatedAt,
			&order.UpdatedAt,
			&order.Version,
			&buyer.FullName,
			&buyer.Email,
			&buyer.Phone,
		)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		buyer.ID = order.BuyerID
		order.Buyer = &buyer
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	for i := range orders {
		if err := attachItems(ctx, db, &orders[i]); err != nil {
			return nil, err
		}
	}

	return &OffsetPage{
		Items:      orders,
		Total:      total,
		Page:       page,
		PageSize:   limit,
		TotalPages: totalPages(total, limit),
	}, nil
}

// UpdateOrderStatus applies the transition table for the given actor.
// Cancelling an order restores each line's quantity to product stock
// inside the same transaction; repeating the current status is a no-op
// that skips side effects but still runs the permission checks.
func UpdateOrderStatus(ctx context.Context, db *sql.DB, orderID int64, target string, actorID int64, actorRole string) (*models.Order, error) {
	err := database.WithRetry(ctx, db, database.SerializableTxOptions(), func(tx *sql.Tx) error {
		var (
			buyerID int64
			current string
		)
		err := tx.QueryRowContext(ctx,
			`SELECT buyer_id, status FROM orders WHERE id = $1 FOR UPDATE`,
			orderID).Scan(&buyerID, &current)
		if err != nil {
			if err == sql.ErrNoRows {
				return database.ErrOrderNotFound
			}
			return fmt.Errorf("lock order: %w", err)
		}

		if err := CanTransition(actorRole, buyerID == actorID, current, target); err != nil {
			return err
		}
		if current == target {
			return nil
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE orders SET status = $1, updated_at = NOW(), version = version + 1 WHERE id = $2`,
			target, orderID); err != nil {
			return fmt.Errorf("update status: %w", err)
		}

		// Stock is decremented once at creation, so any reachable
		// cancellation (from PENDING, CONFIRMED or SHIPPING) gives
		// the quantities back. The same-status no-op above keeps a
		// repeated cancel from restoring twice.
		if target == models.OrderStatusCancelled {
			if err := restoreStock(ctx, tx, orderID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return GetOrder(ctx, db, orderID)
}

func restoreStock(ctx context.Context, tx *sql.Tx, orderID int64) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE products p
		 SET stock = p.stock + oi.quantity,
		     updated_at = NOW()
		 FROM order_items oi
		 WHERE oi.order_id = $1 AND oi.product_id = p.id`,
		orderID)
	if err != nil {
		return fmt.Errorf("restore stock: %w", err)
	}
	return nil
}

// ConfirmPayment transitions PENDING -> CONFIRMED and stores the
// gateway transaction reference. The update is conditional on the
// order still being PENDING so a replayed notification is a no-op
// reported as ErrOrderNotPending.
func ConfirmPayment(ctx context.Context, db *sql.DB, orderNumber, transactionNo string) error {
	result, err := db.ExecContext(ctx,
		`UPDATE orders
		 SET status = $1, vnp_transaction_no = $2, updated_at = NOW(), version = version + 1
		 WHERE order_number = $3 AND status = $4`,
		models.OrderStatusConfirmed, transactionNo, orderNumber, models.OrderStatusPending)
	if err != nil {
		return fmt.Errorf("confirm payment: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return database.ErrOrderNotPending
	}
	return nil
}
