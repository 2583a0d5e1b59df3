package handler

import (
	"net/http"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nick0086/ManageSphere-sub000/internal/middleware"
	"github.com/Nick0086/ManageSphere-sub000/internal/repository"
	"github.com/Nick0086/ManageSphere-sub000/internal/utils"
)

func newInvoiceTestHandler(t *testing.T) (*InvoiceHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewInvoiceHandler(repository.NewInvoiceRepo(db, testIDs())), mock
}

func asOwner(c echo.Context) echo.Context {
	c.Set(middleware.ContextUserKey, utils.TokenProfile{
		UniqueID: "user-1",
		Name:     "Cafe Owner",
		Email:    "owner@example.com",
	})
	return c
}

// Creating a template is pure insert. A client duplicating an existing
// template echoes that template's child ids in the payload; those ids are
// discarded and every row is inserted under a fresh id, so create never
// issues an update against rows another template owns.
func TestCreateTemplateDiscardsEchoedChildIDs(t *testing.T) {
	h, mock := newInvoiceTestHandler(t)
	mock.MatchExpectationsInOrder(false)

	mock.ExpectQuery("SELECT 1 FROM invoice_templates").
		WithArgs("user-1", "New Template", "").
		WillReturnRows(sqlmock.NewRows([]string{"1"}))
	mock.ExpectExec("INSERT INTO invoice_templates").
		WillReturnResult(sqlmock.NewResult(1, 1))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT unique_id FROM tax_configurations WHERE template_id=?")).
		WithArgs("test-id-1").
		WillReturnRows(sqlmock.NewRows([]string{"unique_id"}))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT unique_id FROM additional_charges WHERE template_id=?")).
		WithArgs("test-id-1").
		WillReturnRows(sqlmock.NewRows([]string{"unique_id"}))

	// The echoed id "foreign-tax-row" must land as an INSERT under a
	// generated id. An UPDATE here would fail the unexpected-call check.
	mock.ExpectExec("INSERT INTO tax_configurations").
		WithArgs(sqlmock.AnyArg(), "test-id-1", "user-1", "GST", 5.0, "subtotal", true).
		WillReturnResult(sqlmock.NewResult(1, 1))

	c, rec := postJSON(`{
		"name": "New Template",
		"tax_configurations": [
			{"unique_id": "foreign-tax-row", "name": "GST", "rate": 5, "apply_on": "subtotal"}
		]
	}`)
	require.NoError(t, h.Create(asOwner(c)))

	assert.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "TEMPLATE_CREATED", body["code"])
	assert.Equal(t, "test-id-1", body["templateId"])
	assert.NoError(t, mock.ExpectationsWereMet())
}
