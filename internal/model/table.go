package model

import "time"

// Table is a physical café table. QRCode is the opaque identifier encoded in
// the printed QR sticker; customers reach the public menu and order flow
// through it. Rendering/printing of the code itself happens client-side.
type Table struct {
	ID        uint64    // tables.id
	UniqueID  string    // tables.unique_id
	UserID    string    // tables.user_id
	Name      string    // tables.name
	QRCode    string    // tables.qr_code
	Status    string    // tables.status
	CreatedAt time.Time // tables.created_at
	UpdatedAt time.Time // tables.updated_at
}
