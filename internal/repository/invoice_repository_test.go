package repository

import (
	"context"
	"fmt"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nick0086/ManageSphere-sub000/internal/model"
)

func newInvoiceRepoMock(t *testing.T) (*InvoiceRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewInvoiceRepo(db, sequentialIDs("new")), mock
}

func taxRow(id string, name string) model.TaxConfig {
	return model.TaxConfig{UniqueID: id, Name: name, Rate: 5, ApplyOn: "subtotal", IsActive: true}
}

// A submission mixing a kept row, an edited row and a brand-new row against a
// persisted set that also contains a row the client dropped: the dropped row
// is deleted, the kept/edited rows are updated in place and the new row is
// inserted under a generated id.
func TestReconcileTaxConfigsMixedSubmission(t *testing.T) {
	repo, mock := newInvoiceRepoMock(t)
	mock.MatchExpectationsInOrder(false)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT unique_id FROM tax_configurations WHERE template_id=?")).
		WithArgs("tpl-1").
		WillReturnRows(sqlmock.NewRows([]string{"unique_id"}).
			AddRow("tax-a").AddRow("tax-b").AddRow("tax-dropped"))

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM tax_configurations WHERE unique_id IN (?)")).
		WithArgs("tax-dropped").
		WillReturnResult(sqlmock.NewResult(0, 1))

	mock.ExpectExec("UPDATE tax_configurations").
		WithArgs("GST", 5.0, "subtotal", true, "tax-a", "tpl-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE tax_configurations").
		WithArgs("Service Tax", 5.0, "subtotal", true, "tax-b", "tpl-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	mock.ExpectExec("INSERT INTO tax_configurations").
		WithArgs("new-1", "tpl-1", "user-1", "City Tax", 5.0, "subtotal", true).
		WillReturnResult(sqlmock.NewResult(1, 1))

	taxes := []model.TaxConfig{
		taxRow("tax-a", "GST"),
		taxRow("tax-b", "Service Tax"),
		taxRow("", "City Tax"),
	}
	require.NoError(t, repo.ReconcileTaxConfigs(context.Background(), "tpl-1", "user-1", taxes))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Submitting the identical list again issues only updates: no deletes, no
// inserts, and the stored set is unchanged.
func TestReconcileTaxConfigsIdempotentResubmission(t *testing.T) {
	repo, mock := newInvoiceRepoMock(t)
	mock.MatchExpectationsInOrder(false)

	for i := 0; i < 2; i++ {
		mock.ExpectQuery("SELECT unique_id FROM tax_configurations").
			WithArgs("tpl-1").
			WillReturnRows(sqlmock.NewRows([]string{"unique_id"}).AddRow("tax-a").AddRow("tax-b"))
		mock.ExpectExec("UPDATE tax_configurations").
			WithArgs("GST", 5.0, "subtotal", true, "tax-a", "tpl-1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("UPDATE tax_configurations").
			WithArgs("VAT", 5.0, "subtotal", true, "tax-b", "tpl-1").
			WillReturnResult(sqlmock.NewResult(0, 1))
	}

	taxes := []model.TaxConfig{taxRow("tax-a", "GST"), taxRow("tax-b", "VAT")}
	require.NoError(t, repo.ReconcileTaxConfigs(context.Background(), "tpl-1", "user-1", taxes))
	require.NoError(t, repo.ReconcileTaxConfigs(context.Background(), "tpl-1", "user-1", taxes))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// 120 new rows are inserted in chunks of at most 50. The affected-row check
// inside the repo only passes when each statement carries exactly the chunk's
// row count, so the returned results double as a chunk-size assertion.
func TestReconcileTaxConfigsChunksBulkInserts(t *testing.T) {
	repo, mock := newInvoiceRepoMock(t)

	mock.ExpectQuery("SELECT unique_id FROM tax_configurations").
		WithArgs("tpl-1").
		WillReturnRows(sqlmock.NewRows([]string{"unique_id"}))

	mock.ExpectExec("INSERT INTO tax_configurations").WillReturnResult(sqlmock.NewResult(0, 50))
	mock.ExpectExec("INSERT INTO tax_configurations").WillReturnResult(sqlmock.NewResult(0, 50))
	mock.ExpectExec("INSERT INTO tax_configurations").WillReturnResult(sqlmock.NewResult(0, 20))

	taxes := make([]model.TaxConfig, 120)
	for i := range taxes {
		taxes[i] = taxRow("", fmt.Sprintf("Tax %d", i))
	}
	require.NoError(t, repo.ReconcileTaxConfigs(context.Background(), "tpl-1", "user-1", taxes))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// An update naming an id that matches no row fails that row and surfaces as an
// error instead of silently dropping the edit.
func TestReconcileTaxConfigsUpdateMissingRow(t *testing.T) {
	repo, mock := newInvoiceRepoMock(t)

	mock.ExpectQuery("SELECT unique_id FROM tax_configurations").
		WithArgs("tpl-1").
		WillReturnRows(sqlmock.NewRows([]string{"unique_id"}).AddRow("tax-gone"))

	mock.ExpectExec("UPDATE tax_configurations").
		WithArgs("GST", 5.0, "subtotal", true, "tax-gone", "tpl-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.ReconcileTaxConfigs(context.Background(), "tpl-1", "user-1",
		[]model.TaxConfig{taxRow("tax-gone", "GST")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no row matched id tax-gone")
}

// Per-row updates carry the owning template id, so an id that belongs to a
// different template matches zero rows and fails the edit instead of rewriting
// the other template's data.
func TestReconcileTaxConfigsUpdateScopedToTemplate(t *testing.T) {
	repo, mock := newInvoiceRepoMock(t)

	mock.ExpectQuery("SELECT unique_id FROM tax_configurations").
		WithArgs("tpl-1").
		WillReturnRows(sqlmock.NewRows([]string{"unique_id"}))

	mock.ExpectExec(`(?s)UPDATE tax_configurations.*WHERE unique_id=\? AND template_id=\?`).
		WithArgs("GST", 5.0, "subtotal", true, "tax-theirs", "tpl-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.ReconcileTaxConfigs(context.Background(), "tpl-1", "user-1",
		[]model.TaxConfig{taxRow("tax-theirs", "GST")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no row matched id tax-theirs")
	assert.NoError(t, mock.ExpectationsWereMet())
}

// A deadlock on the delete statement is retried and the reconciliation still
// converges.
func TestReconcileTaxConfigsRetriesDeadlock(t *testing.T) {
	repo, mock := newInvoiceRepoMock(t)

	mock.ExpectQuery("SELECT unique_id FROM tax_configurations").
		WithArgs("tpl-1").
		WillReturnRows(sqlmock.NewRows([]string{"unique_id"}).AddRow("tax-old"))

	mock.ExpectExec("DELETE FROM tax_configurations").
		WithArgs("tax-old").
		WillReturnError(&mysql.MySQLError{Number: 1213, Message: "Deadlock found when trying to get lock"})
	mock.ExpectExec("DELETE FROM tax_configurations").
		WithArgs("tax-old").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.ReconcileTaxConfigs(context.Background(), "tpl-1", "user-1", nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Both families converge in one call: taxes and charges each run their own
// delete/update/insert sequence.
func TestReconcileChildrenCoversBothFamilies(t *testing.T) {
	repo, mock := newInvoiceRepoMock(t)
	mock.MatchExpectationsInOrder(false)

	mock.ExpectQuery("SELECT unique_id FROM tax_configurations").
		WithArgs("tpl-1").
		WillReturnRows(sqlmock.NewRows([]string{"unique_id"}).AddRow("tax-a"))
	mock.ExpectExec("UPDATE tax_configurations").
		WithArgs("GST", 5.0, "subtotal", true, "tax-a", "tpl-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	mock.ExpectQuery("SELECT unique_id FROM additional_charges").
		WithArgs("tpl-1").
		WillReturnRows(sqlmock.NewRows([]string{"unique_id"}).AddRow("chg-old"))
	mock.ExpectExec("DELETE FROM additional_charges").
		WithArgs("chg-old").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO additional_charges").
		WithArgs(sqlmock.AnyArg(), "tpl-1", "user-1", "Service Charge", 40.0, "fixed", true).
		WillReturnResult(sqlmock.NewResult(1, 1))

	taxes := []model.TaxConfig{taxRow("tax-a", "GST")}
	charges := []model.AdditionalCharge{{Name: "Service Charge", Amount: 40, ChargeType: "fixed", IsActive: true}}
	require.NoError(t, repo.ReconcileChildren(context.Background(), "tpl-1", "user-1", taxes, charges))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetDefaultSwapsFlagInOneTransaction(t *testing.T) {
	repo, mock := newInvoiceRepoMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE invoice_templates SET is_default=0 WHERE user_id=? AND unique_id<>?")).
		WithArgs("user-1", "tpl-2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE invoice_templates SET is_default=1 WHERE user_id=? AND unique_id=?")).
		WithArgs("user-1", "tpl-2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.SetDefault(context.Background(), "user-1", "tpl-2"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetDefaultUnknownTemplateRollsBack(t *testing.T) {
	repo, mock := newInvoiceRepoMock(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE invoice_templates SET is_default=0").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("UPDATE invoice_templates SET is_default=1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.SetDefault(context.Background(), "user-1", "tpl-missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNameExistsExcludesSelf(t *testing.T) {
	repo, mock := newInvoiceRepoMock(t)

	mock.ExpectQuery("SELECT 1 FROM invoice_templates").
		WithArgs("user-1", "Default", "tpl-1").
		WillReturnRows(sqlmock.NewRows([]string{"1"}))

	exists, err := repo.NameExists(context.Background(), "user-1", "Default", "tpl-1")
	require.NoError(t, err)
	assert.False(t, exists)

	mock.ExpectQuery("SELECT 1 FROM invoice_templates").
		WithArgs("user-1", "Default", "").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	exists, err = repo.NameExists(context.Background(), "user-1", "Default", "")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}
