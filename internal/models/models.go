// package models defines the data model for the card migration tool
package models

import (
	"time"
)

// Model is a row of the local run history.
//
// MigrationRun and CardRecord implement it; API payload types such as Card do not.
type Model interface {
	ID() string
	CreatedAt() time.Time
	UpdatedAt() time.Time
	Validate() error
}

// Repository is the storage contract shared by the run history stores.
//
// Delete soft-deletes where the table has a deleted_at column. List criteria keys
// are store specific ("status", "run_id", "limit").
type Repository[T Model] interface {
	Create(model T) error
	Get(id string) (T, error)
	Update(model T) error
	Delete(id string) error
	List(criteria map[string]any) ([]T, error)
}
