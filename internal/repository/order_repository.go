package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Nick0086/ManageSphere-sub000/internal/database"
	"github.com/Nick0086/ManageSphere-sub000/internal/model"
	"github.com/Nick0086/ManageSphere-sub000/internal/utils"
)

// OrderRepo persists customer orders and their line items. Item rows are
// written with the same chunked multi-row INSERT and transient-failure retry
// used by the invoice reconciler.
type OrderRepo struct {
	DB    *sql.DB
	NewID utils.IDGenerator
}

func NewOrderRepo(db *sql.DB, ids utils.IDGenerator) *OrderRepo {
	return &OrderRepo{DB: db, NewID: ids}
}

const orderColumns = "id, unique_id, user_id, table_id, customer_name, status, total, created_at, updated_at"

// Create inserts the order row and batch-inserts its items in chunks of at
// most 50 rows per statement. On success o.UniqueID and every item's UniqueID
// and OrderID are populated.
func (r *OrderRepo) Create(ctx context.Context, o *model.Order, items []model.OrderItem) error {
	o.UniqueID = r.NewID()
	err := database.WithRetry(ctx, "insert orders", func(ctx context.Context) error {
		_, err := r.DB.ExecContext(ctx,
			"INSERT INTO orders (unique_id, user_id, table_id, customer_name, status, total) VALUES (?,?,?,?,?,?)",
			o.UniqueID, o.UserID, o.TableID, o.CustomerName, o.Status, o.Total)
		return err
	})
	if err != nil {
		return err
	}

	for start := 0; start < len(items); start += maxBatchSize {
		end := start + maxBatchSize
		if end > len(items) {
			end = len(items)
		}
		chunk := items[start:end]

		query := "INSERT INTO order_items (unique_id, order_id, item_id, name, price, quantity) VALUES "
		var args []interface{}
		for i := range chunk {
			if i > 0 {
				query += ","
			}
			query += "(?,?,?,?,?,?)"
			chunk[i].UniqueID = r.NewID()
			chunk[i].OrderID = o.UniqueID
			args = append(args, chunk[i].UniqueID, chunk[i].OrderID, chunk[i].ItemID,
				chunk[i].Name, chunk[i].Price, chunk[i].Quantity)
		}
		err := database.WithRetry(ctx, "insert order_items", func(ctx context.Context) error {
			res, err := r.DB.ExecContext(ctx, query, args...)
			if err != nil {
				return err
			}
			if n, _ := res.RowsAffected(); n != int64(len(chunk)) {
				return fmt.Errorf("order_items: inserted %d of %d rows", n, len(chunk))
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// ListByOwner returns an owner's orders, newest first.
func (r *OrderRepo) ListByOwner(ctx context.Context, userID string) ([]model.Order, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE user_id=? ORDER BY id DESC", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Order
	for rows.Next() {
		var o model.Order
		if err := rows.Scan(&o.ID, &o.UniqueID, &o.UserID, &o.TableID, &o.CustomerName,
			&o.Status, &o.Total, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, o)
	}
	return result, rows.Err()
}

// GetWithItems fetches one owned order together with its line items.
func (r *OrderRepo) GetWithItems(ctx context.Context, userID, orderID string) (model.Order, []model.OrderItem, error) {
	var o model.Order
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE unique_id=? AND user_id=? LIMIT 1",
		orderID, userID).
		Scan(&o.ID, &o.UniqueID, &o.UserID, &o.TableID, &o.CustomerName,
			&o.Status, &o.Total, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Order{}, nil, ErrNotFound
	}
	if err != nil {
		return model.Order{}, nil, err
	}

	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, unique_id, order_id, item_id, name, price, quantity, created_at FROM order_items WHERE order_id=? ORDER BY id",
		orderID)
	if err != nil {
		return model.Order{}, nil, err
	}
	defer rows.Close()

	var items []model.OrderItem
	for rows.Next() {
		var it model.OrderItem
		if err := rows.Scan(&it.ID, &it.UniqueID, &it.OrderID, &it.ItemID, &it.Name, &it.Price, &it.Quantity, &it.CreatedAt); err != nil {
			return model.Order{}, nil, err
		}
		items = append(items, it)
	}
	return o, items, rows.Err()
}

// UpdateStatus moves an owned order through its lifecycle.
func (r *OrderRepo) UpdateStatus(ctx context.Context, userID, orderID, status string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE orders SET status=?, updated_at=CURRENT_TIMESTAMP WHERE unique_id=? AND user_id=?",
		status, orderID, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
