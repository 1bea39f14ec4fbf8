package entity

import (
	"time"

	"github.com/google/uuid"
)

// Project is a couple's wedding plan.
type Project struct {
	Base
	CoupleID    uuid.UUID  `db:"couple_id"`
	Name        string     `db:"name"`
	WeddingDate *time.Time `db:"wedding_date"`
}
