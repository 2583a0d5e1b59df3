package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/Nick0086/ManageSphere-sub000/internal/database"
	"github.com/Nick0086/ManageSphere-sub000/internal/model"
	"github.com/Nick0086/ManageSphere-sub000/internal/utils"
)

// maxBatchSize bounds the number of rows per multi-row INSERT statement.
const maxBatchSize = 50

// InvoiceRepo persists invoice templates and their tax/charge line-items.
// Child rows are only ever written through Reconcile*, which converges the
// stored set to an incoming list by diffing: rows missing from the submission
// are deleted, rows carrying a known unique id are updated, the rest are
// inserted with freshly generated ids.
type InvoiceRepo struct {
	DB    *sql.DB
	NewID utils.IDGenerator
}

func NewInvoiceRepo(db *sql.DB, ids utils.IDGenerator) *InvoiceRepo {
	return &InvoiceRepo{DB: db, NewID: ids}
}

// ----- templates -----

const templateColumns = "id, unique_id, user_id, name, header_text, footer_text, logo_url, is_default, created_at, updated_at"

// CreateTemplate inserts a template row. On success t.UniqueID is populated.
func (r *InvoiceRepo) CreateTemplate(ctx context.Context, t *model.InvoiceTemplate) error {
	t.UniqueID = r.NewID()
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO invoice_templates (unique_id, user_id, name, header_text, footer_text, logo_url, is_default)
		 VALUES (?,?,?,?,?,?,?)`,
		t.UniqueID, t.UserID, t.Name, t.HeaderText, t.FooterText, t.LogoURL, t.IsDefault)
	return err
}

// UpdateTemplate rewrites the scalar fields of an owned template.
func (r *InvoiceRepo) UpdateTemplate(ctx context.Context, t *model.InvoiceTemplate) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE invoice_templates
		 SET name=?, header_text=?, footer_text=?, logo_url=?, updated_at=CURRENT_TIMESTAMP
		 WHERE unique_id=? AND user_id=?`,
		t.Name, t.HeaderText, t.FooterText, t.LogoURL, t.UniqueID, t.UserID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetTemplate fetches one owned template.
func (r *InvoiceRepo) GetTemplate(ctx context.Context, userID, templateID string) (model.InvoiceTemplate, error) {
	var t model.InvoiceTemplate
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+templateColumns+" FROM invoice_templates WHERE unique_id=? AND user_id=? LIMIT 1",
		templateID, userID).
		Scan(&t.ID, &t.UniqueID, &t.UserID, &t.Name, &t.HeaderText, &t.FooterText,
			&t.LogoURL, &t.IsDefault, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.InvoiceTemplate{}, ErrNotFound
	}
	return t, err
}

// ListTemplates returns all templates of an owner, default first.
func (r *InvoiceRepo) ListTemplates(ctx context.Context, userID string) ([]model.InvoiceTemplate, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+templateColumns+" FROM invoice_templates WHERE user_id=? ORDER BY is_default DESC, name",
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.InvoiceTemplate
	for rows.Next() {
		var t model.InvoiceTemplate
		if err := rows.Scan(&t.ID, &t.UniqueID, &t.UserID, &t.Name, &t.HeaderText, &t.FooterText,
			&t.LogoURL, &t.IsDefault, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	return result, rows.Err()
}

// NameExists reports whether the owner already has a template with this name,
// optionally excluding one template id (self on update).
func (r *InvoiceRepo) NameExists(ctx context.Context, userID, name, excludeID string) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx,
		"SELECT 1 FROM invoice_templates WHERE user_id=? AND name=? AND unique_id<>? LIMIT 1",
		userID, name, excludeID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// SetDefault clears every other default flag for the owner and sets this
// template's flag, inside one transaction so readers never observe zero or
// two defaults.
func (r *InvoiceRepo) SetDefault(ctx context.Context, userID, templateID string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"UPDATE invoice_templates SET is_default=0 WHERE user_id=? AND unique_id<>?",
		userID, templateID); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx,
		"UPDATE invoice_templates SET is_default=1 WHERE user_id=? AND unique_id=?",
		userID, templateID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}

// ----- child line-items -----

const taxColumns = "id, unique_id, template_id, user_id, name, rate, apply_on, is_active, created_at, updated_at"
const chargeColumns = "id, unique_id, template_id, user_id, name, amount, charge_type, is_active, created_at, updated_at"

// ListTaxConfigs returns all tax rows of a template.
func (r *InvoiceRepo) ListTaxConfigs(ctx context.Context, templateID string) ([]model.TaxConfig, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+taxColumns+" FROM tax_configurations WHERE template_id=? ORDER BY id",
		templateID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.TaxConfig
	for rows.Next() {
		var t model.TaxConfig
		if err := rows.Scan(&t.ID, &t.UniqueID, &t.TemplateID, &t.UserID, &t.Name, &t.Rate,
			&t.ApplyOn, &t.IsActive, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	return result, rows.Err()
}

// ListCharges returns all additional-charge rows of a template.
func (r *InvoiceRepo) ListCharges(ctx context.Context, templateID string) ([]model.AdditionalCharge, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+chargeColumns+" FROM additional_charges WHERE template_id=? ORDER BY id",
		templateID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.AdditionalCharge
	for rows.Next() {
		var a model.AdditionalCharge
		if err := rows.Scan(&a.ID, &a.UniqueID, &a.TemplateID, &a.UserID, &a.Name, &a.Amount,
			&a.ChargeType, &a.IsActive, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

// childFamily describes one line-item table for the reconciler: the per-row
// update statement (user-editable columns only, unique_id then template_id
// bound last) and the bulk insert shape. Updates are scoped to the owning
// template so an id submitted against the wrong template matches zero rows
// instead of mutating a sibling's data.
type childFamily struct {
	table        string
	updateSQL    string
	insertPrefix string
	rowValues    string
}

var taxFamily = childFamily{
	table: "tax_configurations",
	updateSQL: `UPDATE tax_configurations
	            SET name=?, rate=?, apply_on=?, is_active=?, updated_at=CURRENT_TIMESTAMP
	            WHERE unique_id=? AND template_id=?`,
	insertPrefix: "INSERT INTO tax_configurations (unique_id, template_id, user_id, name, rate, apply_on, is_active) VALUES ",
	rowValues:    "(?,?,?,?,?,?,?)",
}

var chargeFamily = childFamily{
	table: "additional_charges",
	updateSQL: `UPDATE additional_charges
	            SET name=?, amount=?, charge_type=?, is_active=?, updated_at=CURRENT_TIMESTAMP
	            WHERE unique_id=? AND template_id=?`,
	insertPrefix: "INSERT INTO additional_charges (unique_id, template_id, user_id, name, amount, charge_type, is_active) VALUES ",
	rowValues:    "(?,?,?,?,?,?,?)",
}

// childItem is one incoming line-item in reconciler form. An empty id marks
// the item for insertion under a freshly generated id.
type childItem struct {
	id         string
	updateArgs []interface{}
	insertArgs func(newID string) []interface{}
}

// childIDs fetches the set of persisted child ids for a template.
func (r *InvoiceRepo) childIDs(ctx context.Context, table, templateID string) (map[string]struct{}, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT unique_id FROM "+table+" WHERE template_id=?", templateID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids[id] = struct{}{}
	}
	return ids, rows.Err()
}

// reconcile converges one family's persisted rows to match items:
// delete → update → insert, each statement wrapped in the transient-failure
// retry helper. Updates run concurrently; a zero-row update fails that row
// and propagates, while sibling statements may already have committed
// (best-effort reconciliation, no cross-row transaction).
func (r *InvoiceRepo) reconcile(ctx context.Context, f childFamily, templateID string, existing map[string]struct{}, items []childItem) error {
	incoming := make(map[string]struct{}, len(items))
	var updates, inserts []childItem
	for _, it := range items {
		if it.id == "" {
			inserts = append(inserts, it)
			continue
		}
		updates = append(updates, it)
		incoming[it.id] = struct{}{}
	}

	// Set difference: every persisted id not re-submitted is hard-deleted in
	// a single IN statement.
	var toDelete []string
	for id := range existing {
		if _, ok := incoming[id]; !ok {
			toDelete = append(toDelete, id)
		}
	}
	if len(toDelete) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(toDelete)), ",")
		args := make([]interface{}, len(toDelete))
		for i, id := range toDelete {
			args[i] = id
		}
		err := database.WithRetry(ctx, "delete "+f.table, func(ctx context.Context) error {
			_, err := r.DB.ExecContext(ctx,
				"DELETE FROM "+f.table+" WHERE unique_id IN ("+placeholders+")", args...)
			return err
		})
		if err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, it := range updates {
		it := it
		g.Go(func() error {
			return database.WithRetry(gctx, "update "+f.table, func(ctx context.Context) error {
				args := append(append([]interface{}{}, it.updateArgs...), it.id, templateID)
				res, err := r.DB.ExecContext(ctx, f.updateSQL, args...)
				if err != nil {
					return err
				}
				if n, _ := res.RowsAffected(); n == 0 {
					return fmt.Errorf("%s: no row matched id %s", f.table, it.id)
				}
				return nil
			})
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for start := 0; start < len(inserts); start += maxBatchSize {
		end := start + maxBatchSize
		if end > len(inserts) {
			end = len(inserts)
		}
		chunk := inserts[start:end]

		query := f.insertPrefix
		var args []interface{}
		for i, it := range chunk {
			if i > 0 {
				query += ","
			}
			query += f.rowValues
			args = append(args, it.insertArgs(r.NewID())...)
		}
		err := database.WithRetry(ctx, "insert "+f.table, func(ctx context.Context) error {
			res, err := r.DB.ExecContext(ctx, query, args...)
			if err != nil {
				return err
			}
			if n, _ := res.RowsAffected(); n != int64(len(chunk)) {
				return fmt.Errorf("%s: inserted %d of %d rows", f.table, n, len(chunk))
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// ReconcileTaxConfigs converges the tax rows of a template to the incoming
// list. Items without a UniqueID are inserted; persisted rows missing from
// the list are deleted.
func (r *InvoiceRepo) ReconcileTaxConfigs(ctx context.Context, templateID, userID string, taxes []model.TaxConfig) error {
	existing, err := r.childIDs(ctx, taxFamily.table, templateID)
	if err != nil {
		return err
	}
	items := make([]childItem, len(taxes))
	for i, t := range taxes {
		t := t
		items[i] = childItem{
			id:         t.UniqueID,
			updateArgs: []interface{}{t.Name, t.Rate, t.ApplyOn, t.IsActive},
			insertArgs: func(newID string) []interface{} {
				return []interface{}{newID, templateID, userID, t.Name, t.Rate, t.ApplyOn, t.IsActive}
			},
		}
	}
	return r.reconcile(ctx, taxFamily, templateID, existing, items)
}

// ReconcileCharges converges the additional-charge rows of a template to the
// incoming list.
func (r *InvoiceRepo) ReconcileCharges(ctx context.Context, templateID, userID string, charges []model.AdditionalCharge) error {
	existing, err := r.childIDs(ctx, chargeFamily.table, templateID)
	if err != nil {
		return err
	}
	items := make([]childItem, len(charges))
	for i, a := range charges {
		a := a
		items[i] = childItem{
			id:         a.UniqueID,
			updateArgs: []interface{}{a.Name, a.Amount, a.ChargeType, a.IsActive},
			insertArgs: func(newID string) []interface{} {
				return []interface{}{newID, templateID, userID, a.Name, a.Amount, a.ChargeType, a.IsActive}
			},
		}
	}
	return r.reconcile(ctx, chargeFamily, templateID, existing, items)
}

// ReconcileChildren runs both families in parallel. Each family's own
// delete→update→insert sequence stays sequential; the first failure cancels
// the sibling and propagates.
func (r *InvoiceRepo) ReconcileChildren(ctx context.Context, templateID, userID string, taxes []model.TaxConfig, charges []model.AdditionalCharge) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return r.ReconcileTaxConfigs(gctx, templateID, userID, taxes) })
	g.Go(func() error { return r.ReconcileCharges(gctx, templateID, userID, charges) })
	return g.Wait()
}
