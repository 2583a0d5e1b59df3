package model

import "time"

// InvoiceTemplate is a named, reusable invoice layout owned by a user.
// Name is unique per owner and at most one template per owner carries
// IsDefault. A template owns zero or more TaxConfig and AdditionalCharge
// rows which are only ever written through the reconciliation engine.
type InvoiceTemplate struct {
	ID         uint64    // invoice_templates.id
	UniqueID   string    // invoice_templates.unique_id
	UserID     string    // invoice_templates.user_id
	Name       string    // invoice_templates.name
	HeaderText string    // invoice_templates.header_text
	FooterText string    // invoice_templates.footer_text
	LogoURL    string    // invoice_templates.logo_url
	IsDefault  bool      // invoice_templates.is_default
	CreatedAt  time.Time // invoice_templates.created_at
	UpdatedAt  time.Time // invoice_templates.updated_at
}

// TaxConfig is a tax line-item of an invoice template.
type TaxConfig struct {
	ID         uint64    // tax_configurations.id
	UniqueID   string    // tax_configurations.unique_id
	TemplateID string    // tax_configurations.template_id
	UserID     string    // tax_configurations.user_id (denormalized owner)
	Name       string    // tax_configurations.name
	Rate       float64   // tax_configurations.rate
	ApplyOn    string    // tax_configurations.apply_on
	IsActive   bool      // tax_configurations.is_active
	CreatedAt  time.Time // tax_configurations.created_at
	UpdatedAt  time.Time // tax_configurations.updated_at
}

// AdditionalCharge is a surcharge line-item of an invoice template.
type AdditionalCharge struct {
	ID         uint64    // additional_charges.id
	UniqueID   string    // additional_charges.unique_id
	TemplateID string    // additional_charges.template_id
	UserID     string    // additional_charges.user_id (denormalized owner)
	Name       string    // additional_charges.name
	Amount     float64   // additional_charges.amount
	ChargeType string    // additional_charges.charge_type
	IsActive   bool      // additional_charges.is_active
	CreatedAt  time.Time // additional_charges.created_at
	UpdatedAt  time.Time // additional_charges.updated_at
}
