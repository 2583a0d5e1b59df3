package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Nick0086/ManageSphere-sub000/internal/model"
	"github.com/Nick0086/ManageSphere-sub000/internal/utils"
)

// MenuRepo persists categories and menu items for one owner's menu.
type MenuRepo struct {
	DB    *sql.DB
	NewID utils.IDGenerator
}

func NewMenuRepo(db *sql.DB, ids utils.IDGenerator) *MenuRepo {
	return &MenuRepo{DB: db, NewID: ids}
}

// ----- categories -----

const categoryColumns = "id, unique_id, user_id, name, status, created_at, updated_at"

// CreateCategory inserts a category. Duplicate per-owner names map to
// ErrDuplicateName.
func (r *MenuRepo) CreateCategory(ctx context.Context, c *model.Category) error {
	c.UniqueID = r.NewID()
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO categories (unique_id, user_id, name, status) VALUES (?,?,?,?)",
		c.UniqueID, c.UserID, c.Name, c.Status)
	if isDuplicateKey(err) {
		return ErrDuplicateName
	}
	return err
}

// ListCategories returns all categories of an owner.
func (r *MenuRepo) ListCategories(ctx context.Context, userID string) ([]model.Category, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+categoryColumns+" FROM categories WHERE user_id=? ORDER BY name", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Category
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.UniqueID, &c.UserID, &c.Name, &c.Status, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

// UpdateCategory rewrites name and status of an owned category.
func (r *MenuRepo) UpdateCategory(ctx context.Context, c *model.Category) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE categories SET name=?, status=?, updated_at=CURRENT_TIMESTAMP WHERE unique_id=? AND user_id=?",
		c.Name, c.Status, c.UniqueID, c.UserID)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicateName
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteCategory removes an owned category; its items cascade at the schema
// level.
func (r *MenuRepo) DeleteCategory(ctx context.Context, userID, categoryID string) error {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM categories WHERE unique_id=? AND user_id=?", categoryID, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ----- menu items -----

const menuItemColumns = "id, unique_id, category_id, user_id, name, price, description, status, created_at, updated_at"

// CreateItem inserts a menu item under an owned category.
func (r *MenuRepo) CreateItem(ctx context.Context, m *model.MenuItem) error {
	m.UniqueID = r.NewID()
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO menu_items (unique_id, category_id, user_id, name, price, description, status) VALUES (?,?,?,?,?,?,?)",
		m.UniqueID, m.CategoryID, m.UserID, m.Name, m.Price, m.Description, m.Status)
	return err
}

// ListItems returns an owner's menu items, optionally filtered by category.
func (r *MenuRepo) ListItems(ctx context.Context, userID, categoryID string) ([]model.MenuItem, error) {
	query := "SELECT " + menuItemColumns + " FROM menu_items WHERE user_id=?"
	args := []interface{}{userID}
	if categoryID != "" {
		query += " AND category_id=?"
		args = append(args, categoryID)
	}
	query += " ORDER BY name"

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.MenuItem
	for rows.Next() {
		var m model.MenuItem
		if err := rows.Scan(&m.ID, &m.UniqueID, &m.CategoryID, &m.UserID, &m.Name, &m.Price,
			&m.Description, &m.Status, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	return result, rows.Err()
}

// GetItem fetches one owned menu item.
func (r *MenuRepo) GetItem(ctx context.Context, userID, itemID string) (model.MenuItem, error) {
	var m model.MenuItem
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+menuItemColumns+" FROM menu_items WHERE unique_id=? AND user_id=? LIMIT 1",
		itemID, userID).
		Scan(&m.ID, &m.UniqueID, &m.CategoryID, &m.UserID, &m.Name, &m.Price,
			&m.Description, &m.Status, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.MenuItem{}, ErrNotFound
	}
	return m, err
}

// UpdateItem rewrites the editable columns of an owned menu item.
func (r *MenuRepo) UpdateItem(ctx context.Context, m *model.MenuItem) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE menu_items
		 SET category_id=?, name=?, price=?, description=?, status=?, updated_at=CURRENT_TIMESTAMP
		 WHERE unique_id=? AND user_id=?`,
		m.CategoryID, m.Name, m.Price, m.Description, m.Status, m.UniqueID, m.UserID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteItem removes an owned menu item.
func (r *MenuRepo) DeleteItem(ctx context.Context, userID, itemID string) error {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM menu_items WHERE unique_id=? AND user_id=?", itemID, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ActiveMenu returns the active categories and items of an owner, as served
// to customers through a table QR code.
func (r *MenuRepo) ActiveMenu(ctx context.Context, userID string) ([]model.Category, []model.MenuItem, error) {
	cats, err := r.activeCategories(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+menuItemColumns+" FROM menu_items WHERE user_id=? AND status=? ORDER BY name",
		userID, model.StatusActive)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var items []model.MenuItem
	for rows.Next() {
		var m model.MenuItem
		if err := rows.Scan(&m.ID, &m.UniqueID, &m.CategoryID, &m.UserID, &m.Name, &m.Price,
			&m.Description, &m.Status, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, nil, err
		}
		items = append(items, m)
	}
	return cats, items, rows.Err()
}

func (r *MenuRepo) activeCategories(ctx context.Context, userID string) ([]model.Category, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+categoryColumns+" FROM categories WHERE user_id=? AND status=? ORDER BY name",
		userID, model.StatusActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Category
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.UniqueID, &c.UserID, &c.Name, &c.Status, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}
