package entity

import (
	"time"

	"github.com/google/uuid"
)

// Base carries the audit columns shared by mutable rows.
type Base struct {
	ID        uuid.UUID `db:"id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// BaseSimple is used by append-only rows (payments, cancellations).
type BaseSimple struct {
	ID        uuid.UUID `db:"id"`
	CreatedAt time.Time `db:"created_at"`
}
