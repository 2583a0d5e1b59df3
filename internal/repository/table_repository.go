package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Nick0086/ManageSphere-sub000/internal/model"
	"github.com/Nick0086/ManageSphere-sub000/internal/utils"
)

// TableRepo persists café tables and their QR identifiers.
type TableRepo struct {
	DB    *sql.DB
	NewID utils.IDGenerator
}

func NewTableRepo(db *sql.DB, ids utils.IDGenerator) *TableRepo {
	return &TableRepo{DB: db, NewID: ids}
}

const tableColumns = "id, unique_id, user_id, name, qr_code, status, created_at, updated_at"

// Create inserts a table with fresh unique and QR identifiers.
func (r *TableRepo) Create(ctx context.Context, t *model.Table) error {
	t.UniqueID = r.NewID()
	t.QRCode = r.NewID()
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO tables (unique_id, user_id, name, qr_code, status) VALUES (?,?,?,?,?)",
		t.UniqueID, t.UserID, t.Name, t.QRCode, t.Status)
	if isDuplicateKey(err) {
		return ErrDuplicateName
	}
	return err
}

// List returns all tables of an owner.
func (r *TableRepo) List(ctx context.Context, userID string) ([]model.Table, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+tableColumns+" FROM tables WHERE user_id=? ORDER BY name", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Table
	for rows.Next() {
		var t model.Table
		if err := rows.Scan(&t.ID, &t.UniqueID, &t.UserID, &t.Name, &t.QRCode, &t.Status, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	return result, rows.Err()
}

// Update rewrites name and status of an owned table. The QR identifier is
// immutable; reprinting stickers would invalidate deployed codes.
func (r *TableRepo) Update(ctx context.Context, t *model.Table) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE tables SET name=?, status=?, updated_at=CURRENT_TIMESTAMP WHERE unique_id=? AND user_id=?",
		t.Name, t.Status, t.UniqueID, t.UserID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes an owned table.
func (r *TableRepo) Delete(ctx context.Context, userID, tableID string) error {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM tables WHERE unique_id=? AND user_id=?", tableID, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByQRCode resolves a scanned QR identifier to its table. Only active
// tables are served to customers.
func (r *TableRepo) GetByQRCode(ctx context.Context, qrCode string) (model.Table, error) {
	var t model.Table
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+tableColumns+" FROM tables WHERE qr_code=? AND status=? LIMIT 1",
		qrCode, model.StatusActive).
		Scan(&t.ID, &t.UniqueID, &t.UserID, &t.Name, &t.QRCode, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Table{}, ErrNotFound
	}
	return t, err
}
