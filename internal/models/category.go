package models

import (
	"time"

	"github.com/google/uuid"
)

// Category is a persisted expense category. The store may create new
// categories as a side effect of classification.
type Category struct {
	ID        uuid.UUID `db:"id"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}
