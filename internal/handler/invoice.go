package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Nick0086/ManageSphere-sub000/internal/middleware"
	"github.com/Nick0086/ManageSphere-sub000/internal/model"
	"github.com/Nick0086/ManageSphere-sub000/internal/repository"
)

const maxTemplateNameLength = 255

// InvoiceHandler exposes invoice template management. Child tax/charge rows
// are written exclusively through the repository's reconciler.
type InvoiceHandler struct {
	Invoices *repository.InvoiceRepo
}

func NewInvoiceHandler(r *repository.InvoiceRepo) *InvoiceHandler {
	return &InvoiceHandler{Invoices: r}
}

// ----- DTOs -----

type taxConfigReq struct {
	UniqueID string  `json:"unique_id"`
	Name     string  `json:"name"`
	Rate     float64 `json:"rate"`
	ApplyOn  string  `json:"apply_on"`
	IsActive *bool   `json:"is_active"`
}

type chargeReq struct {
	UniqueID   string  `json:"unique_id"`
	Name       string  `json:"name"`
	Amount     float64 `json:"amount"`
	ChargeType string  `json:"charge_type"`
	IsActive   *bool   `json:"is_active"`
}

type templateReq struct {
	Name              string         `json:"name"`
	HeaderText        string         `json:"header_text"`
	FooterText        string         `json:"footer_text"`
	LogoURL           string         `json:"logo_url"`
	IsDefault         bool           `json:"is_default"`
	TaxConfigurations []taxConfigReq `json:"tax_configurations"`
	AdditionalCharges []chargeReq    `json:"additional_charges"`
}

type taxConfigResp struct {
	UniqueID string  `json:"unique_id"`
	Name     string  `json:"name"`
	Rate     float64 `json:"rate"`
	ApplyOn  string  `json:"apply_on"`
	IsActive bool    `json:"is_active"`
}

type chargeResp struct {
	UniqueID   string  `json:"unique_id"`
	Name       string  `json:"name"`
	Amount     float64 `json:"amount"`
	ChargeType string  `json:"charge_type"`
	IsActive   bool    `json:"is_active"`
}

type templateResp struct {
	UniqueID   string    `json:"unique_id"`
	Name       string    `json:"name"`
	HeaderText string    `json:"header_text"`
	FooterText string    `json:"footer_text"`
	LogoURL    string    `json:"logo_url"`
	IsDefault  bool      `json:"is_default"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type templateDetailResp struct {
	templateResp
	TaxConfigurations []taxConfigResp `json:"tax_configurations"`
	AdditionalCharges []chargeResp    `json:"additional_charges"`
}

func toTemplateResp(t model.InvoiceTemplate) templateResp {
	return templateResp{
		UniqueID:   t.UniqueID,
		Name:       t.Name,
		HeaderText: t.HeaderText,
		FooterText: t.FooterText,
		LogoURL:    t.LogoURL,
		IsDefault:  t.IsDefault,
		CreatedAt:  t.CreatedAt,
		UpdatedAt:  t.UpdatedAt,
	}
}

func toTaxResps(taxes []model.TaxConfig) []taxConfigResp {
	out := make([]taxConfigResp, 0, len(taxes))
	for _, t := range taxes {
		out = append(out, taxConfigResp{UniqueID: t.UniqueID, Name: t.Name, Rate: t.Rate, ApplyOn: t.ApplyOn, IsActive: t.IsActive})
	}
	return out
}

func toChargeResps(charges []model.AdditionalCharge) []chargeResp {
	out := make([]chargeResp, 0, len(charges))
	for _, a := range charges {
		out = append(out, chargeResp{UniqueID: a.UniqueID, Name: a.Name, Amount: a.Amount, ChargeType: a.ChargeType, IsActive: a.IsActive})
	}
	return out
}

func toTaxModels(reqs []taxConfigReq) []model.TaxConfig {
	out := make([]model.TaxConfig, 0, len(reqs))
	for _, r := range reqs {
		active := true
		if r.IsActive != nil {
			active = *r.IsActive
		}
		out = append(out, model.TaxConfig{
			UniqueID: strings.TrimSpace(r.UniqueID),
			Name:     strings.TrimSpace(r.Name),
			Rate:     r.Rate,
			ApplyOn:  r.ApplyOn,
			IsActive: active,
		})
	}
	return out
}

func toChargeModels(reqs []chargeReq) []model.AdditionalCharge {
	out := make([]model.AdditionalCharge, 0, len(reqs))
	for _, r := range reqs {
		active := true
		if r.IsActive != nil {
			active = *r.IsActive
		}
		out = append(out, model.AdditionalCharge{
			UniqueID:   strings.TrimSpace(r.UniqueID),
			Name:       strings.TrimSpace(r.Name),
			Amount:     r.Amount,
			ChargeType: r.ChargeType,
			IsActive:   active,
		})
	}
	return out
}

// bindTemplateReq binds and validates the shared create/update body. A nil
// request means the error response has already been written.
func bindTemplateReq(c echo.Context) (*templateReq, error) {
	var req templateReq
	if err := c.Bind(&req); err != nil {
		return nil, c.JSON(http.StatusBadRequest,
			echo.Map{"code": "INVALID_INPUT", "message": "tax_configurations and additional_charges must be arrays"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || len(req.Name) > maxTemplateNameLength {
		return nil, c.JSON(http.StatusBadRequest,
			echo.Map{"code": "INVALID_NAME", "message": "name must be non-empty and at most 255 characters"})
	}
	return &req, nil
}

// Create stores a new template. Every submitted child item is inserted under
// a freshly generated id; ids the client echoes (for example when duplicating
// an existing template) are discarded so the create path never updates rows
// belonging to another template.
func (h *InvoiceHandler) Create(c echo.Context) error {
	profile, ok := middleware.CurrentUser(c)
	if !ok {
		return unauthenticated(c)
	}
	req, verr := bindTemplateReq(c)
	if req == nil {
		return verr
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), handlerDBTimeout)
	defer cancel()

	exists, err := h.Invoices.NameExists(ctx, profile.UniqueID, req.Name, "")
	if err != nil {
		return serverError(c, err)
	}
	if exists {
		return c.JSON(http.StatusBadRequest, echo.Map{"code": "DUPLICATE_NAME", "message": "a template with this name already exists"})
	}

	t := model.InvoiceTemplate{
		UserID:     profile.UniqueID,
		Name:       req.Name,
		HeaderText: req.HeaderText,
		FooterText: req.FooterText,
		LogoURL:    req.LogoURL,
	}
	if err := h.Invoices.CreateTemplate(ctx, &t); err != nil {
		return serverError(c, err)
	}
	if req.IsDefault {
		if err := h.Invoices.SetDefault(ctx, profile.UniqueID, t.UniqueID); err != nil {
			return serverError(c, err)
		}
	}
	taxes := toTaxModels(req.TaxConfigurations)
	for i := range taxes {
		taxes[i].UniqueID = ""
	}
	charges := toChargeModels(req.AdditionalCharges)
	for i := range charges {
		charges[i].UniqueID = ""
	}
	if err := h.Invoices.ReconcileChildren(ctx, t.UniqueID, profile.UniqueID, taxes, charges); err != nil {
		return serverError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"code": "TEMPLATE_CREATED", "templateId": t.UniqueID})
}

// Update rewrites the template's scalar fields and converges both child
// families to the submitted arrays.
func (h *InvoiceHandler) Update(c echo.Context) error {
	profile, ok := middleware.CurrentUser(c)
	if !ok {
		return unauthenticated(c)
	}
	templateID := c.Param("templateId")
	req, verr := bindTemplateReq(c)
	if req == nil {
		return verr
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), handlerDBTimeout)
	defer cancel()

	if _, err := h.Invoices.GetTemplate(ctx, profile.UniqueID, templateID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"code": "TEMPLATE_NOT_FOUND", "message": "template not found"})
		}
		return serverError(c, err)
	}

	exists, err := h.Invoices.NameExists(ctx, profile.UniqueID, req.Name, templateID)
	if err != nil {
		return serverError(c, err)
	}
	if exists {
		return c.JSON(http.StatusBadRequest, echo.Map{"code": "DUPLICATE_NAME", "message": "a template with this name already exists"})
	}

	t := model.InvoiceTemplate{
		UniqueID:   templateID,
		UserID:     profile.UniqueID,
		Name:       req.Name,
		HeaderText: req.HeaderText,
		FooterText: req.FooterText,
		LogoURL:    req.LogoURL,
	}
	if err := h.Invoices.UpdateTemplate(ctx, &t); err != nil {
		return serverError(c, err)
	}
	if req.IsDefault {
		if err := h.Invoices.SetDefault(ctx, profile.UniqueID, templateID); err != nil {
			return serverError(c, err)
		}
	}
	if err := h.Invoices.ReconcileChildren(ctx, templateID, profile.UniqueID,
		toTaxModels(req.TaxConfigurations), toChargeModels(req.AdditionalCharges)); err != nil {
		return serverError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"code": "TEMPLATE_UPDATED", "templateId": templateID})
}

// List returns the owner's templates without children.
func (h *InvoiceHandler) List(c echo.Context) error {
	profile, ok := middleware.CurrentUser(c)
	if !ok {
		return unauthenticated(c)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), handlerDBTimeout)
	defer cancel()

	templates, err := h.Invoices.ListTemplates(ctx, profile.UniqueID)
	if err != nil {
		return serverError(c, err)
	}
	out := make([]templateResp, 0, len(templates))
	for _, t := range templates {
		out = append(out, toTemplateResp(t))
	}
	return c.JSON(http.StatusOK, echo.Map{"templates": out})
}

// Detail returns one template without children.
func (h *InvoiceHandler) Detail(c echo.Context) error {
	profile, ok := middleware.CurrentUser(c)
	if !ok {
		return unauthenticated(c)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), handlerDBTimeout)
	defer cancel()

	t, err := h.Invoices.GetTemplate(ctx, profile.UniqueID, c.Param("templateId"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"code": "TEMPLATE_NOT_FOUND", "message": "template not found"})
		}
		return serverError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"template": toTemplateResp(t)})
}

// DetailWithItems returns one template together with its tax and charge rows.
func (h *InvoiceHandler) DetailWithItems(c echo.Context) error {
	profile, ok := middleware.CurrentUser(c)
	if !ok {
		return unauthenticated(c)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), handlerDBTimeout)
	defer cancel()

	t, err := h.Invoices.GetTemplate(ctx, profile.UniqueID, c.Param("templateId"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"code": "TEMPLATE_NOT_FOUND", "message": "template not found"})
		}
		return serverError(c, err)
	}
	detail, err := h.loadDetail(ctx, t)
	if err != nil {
		return serverError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"template": detail})
}

// ListWithItems returns every template of the owner with children attached.
func (h *InvoiceHandler) ListWithItems(c echo.Context) error {
	profile, ok := middleware.CurrentUser(c)
	if !ok {
		return unauthenticated(c)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), handlerDBTimeout)
	defer cancel()

	templates, err := h.Invoices.ListTemplates(ctx, profile.UniqueID)
	if err != nil {
		return serverError(c, err)
	}
	out := make([]templateDetailResp, 0, len(templates))
	for _, t := range templates {
		detail, err := h.loadDetail(ctx, t)
		if err != nil {
			return serverError(c, err)
		}
		out = append(out, detail)
	}
	return c.JSON(http.StatusOK, echo.Map{"templates": out})
}

func (h *InvoiceHandler) loadDetail(ctx context.Context, t model.InvoiceTemplate) (templateDetailResp, error) {
	taxes, err := h.Invoices.ListTaxConfigs(ctx, t.UniqueID)
	if err != nil {
		return templateDetailResp{}, err
	}
	charges, err := h.Invoices.ListCharges(ctx, t.UniqueID)
	if err != nil {
		return templateDetailResp{}, err
	}
	return templateDetailResp{
		templateResp:      toTemplateResp(t),
		TaxConfigurations: toTaxResps(taxes),
		AdditionalCharges: toChargeResps(charges),
	}, nil
}

// SetDefault marks one template as the owner's default, clearing the flag on
// every sibling in the same transaction.
func (h *InvoiceHandler) SetDefault(c echo.Context) error {
	profile, ok := middleware.CurrentUser(c)
	if !ok {
		return unauthenticated(c)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), handlerDBTimeout)
	defer cancel()

	if err := h.Invoices.SetDefault(ctx, profile.UniqueID, c.Param("templateId")); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"code": "TEMPLATE_NOT_FOUND", "message": "template not found"})
		}
		return serverError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"code": "DEFAULT_SET", "message": "default template updated"})
}
