package db

import "gorm.io/gorm"

// Page is a standalone markdown page such as the privacy policy.
type Page struct {
	gorm.Model
	Slug    string `gorm:"uniqueIndex;not null"`
	Title   string `gorm:"not null"`
	Summary string
	Content string `gorm:"type:text"`
}
