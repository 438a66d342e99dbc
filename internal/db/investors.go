package db

import (
	"time"

	"gorm.io/datatypes"
)

// InvestorsPageContent is the investors landing page. Sections holds
// [{title, documents: [{title, url, date}]}].
type InvestorsPageContent struct {
	Section
	Title    string         `json:"title"`
	Intro    string         `gorm:"type:text" json:"intro"`
	Sections datatypes.JSON `json:"sections"`
}

// TableName keeps the singular content naming.
func (InvestorsPageContent) TableName() string {
	return "investors_page_contents"
}

// InvestorDocument is a filing, report or disclosure listed by category.
type InvestorDocument struct {
	Section
	Category    string     `gorm:"index" json:"category"`
	Title       string     `json:"title"`
	FileURL     string     `json:"fileUrl"`
	PublishedOn *time.Time `json:"publishedOn"`
}
