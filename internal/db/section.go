package db

import "time"

// Section carries the columns every content row shares. SortOrder is the
// list sort key and IsActive hides a row from the public site.
type Section struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	SortOrder int       `gorm:"index" json:"order"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Base exposes the shared columns to generic services.
func (s *Section) Base() *Section {
	return s
}

// Entry is implemented by every content model through the embedded Section.
type Entry interface {
	Base() *Section
}
