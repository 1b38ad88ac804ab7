package tutorial

import (
	"time"
)

// Tutorial represents a tutorial in the system.
// Corresponds to the 'tutorials' table.
type Tutorial struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"type:varchar(255);not null" json:"title"`
	Description *string   `gorm:"type:text" json:"description"` // NULL when not provided
	Published   bool      `gorm:"not null;default:false" json:"published"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (Tutorial) TableName() string {
	return "tutorials"
}

// Filter narrows a listing. The zero value matches every row.
type Filter struct {
	// TitleContains is matched with the storage LIKE operator as %value%.
	// Wildcards inside the value are not escaped.
	TitleContains string
	PublishedOnly bool
}

// Patch carries the fields of an update. Nil fields are left untouched.
type Patch struct {
	Title       *string
	Description *string
	Published   *bool
}

// IsEmpty reports whether the patch would change nothing.
func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Published == nil
}

// Columns returns the patch as a column -> value map, skipping nil fields.
func (p Patch) Columns() map[string]interface{} {
	cols := make(map[string]interface{}, 3)
	if p.Title != nil {
		cols["title"] = *p.Title
	}
	if p.Description != nil {
		cols["description"] = *p.Description
	}
	if p.Published != nil {
		cols["published"] = *p.Published
	}
	return cols
}
