package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"
)

type DashboardStats struct {
	TotalUsers     int64            `json:"totalUsers"`
	TotalProducts  int64            `json:"totalProducts"`
	TotalOrders    int64            `json:"totalOrders"`
	Revenue        decimal.Decimal  `json:"revenue"`
	OrdersByStatus map[string]int64 `json:"ordersByStatus"`
	TopProducts    []ProductOrders  `json:"topProducts"`
}

type ProductOrders struct {
	ProductID  int64  `json:"productId"`
	Name       string `json:"name"`
	OrderCount int64  `json:"orderCount"`
}

// GetDashboardStats aggregates the admin dashboard counters. Revenue
// counts confirmed and later statuses, not pending or cancelled.
func GetDashboardStats(ctx context.Context, db *sql.DB) (*DashboardStats, error) {
	stats := &DashboardStats{
		Revenue:        decimal.Zero,
		OrdersByStatus: make(map[string]int64),
	}

	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&stats.TotalUsers); err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products WHERE is_active = TRUE`).Scan(&stats.TotalProducts); err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders`).Scan(&stats.TotalOrders); err != nil {
		return nil, fmt.Errorf("count orders: %w", err)
	}

	var revenue decimal.NullDecimal
	err := db.QueryRowContext(ctx,
		`SELECT SUM(total_amount) FROM orders WHERE status IN ('CONFIRMED', 'SHIPPING', 'DELIVERED')`).
		Scan(&revenue)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("sum revenue: %w", err)
	}
	if revenue.Valid {
		stats.Revenue = revenue.Decimal
	}

	rows, err := db.QueryContext(ctx, `SELECT status, COUNT(*) FROM orders GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("orders by status: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			status string
			count  int64
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		stats.OrdersByStatus[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	topRows, err := db.QueryContext(ctx,
		`SELECT p.id, p.name, COUNT(oi.id) AS order_count
		 FROM products p
		 LEFT JOIN order_items oi ON oi.product_id = p.id
		 GROUP BY p.id, p.name
		 ORDER BY order_count DESC, p.id
		 LIMIT 10`)
	if err != nil {
		return nil, fmt.Errorf("top products: %w", err)
	}
	defer topRows.Close()
	for topRows.Next() {
		var po ProductOrders
		if err := topRows.Scan(&po.ProductID, &po.Name, &po.OrderCount); err != nil {
			return nil, fmt.Errorf("scan top product: %w", err)
		}
		stats.TopProducts = append(stats.TopProducts, po)
	}
	if err := topRows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return stats, nil
}
