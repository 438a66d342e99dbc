package db

import "gorm.io/datatypes"

// HomeHero is the landing page slider. Slides holds
// [{image, title, subtitle, ctaLabel, ctaLink}].
type HomeHero struct {
	Section
	Title    string         `json:"title"`
	Subtitle string         `json:"subtitle"`
	CTALabel string         `json:"ctaLabel"`
	CTALink  string         `json:"ctaLink"`
	Slides   datatypes.JSON `json:"slides"`
}

// WhoWeAre is the company introduction block on the home page.
type WhoWeAre struct {
	Section
	Heading  string         `json:"heading"`
	Body     string         `gorm:"type:text" json:"body"`
	ImageURL string         `json:"imageUrl"`
	Points   datatypes.JSON `json:"points"`
	Stats    datatypes.JSON `json:"stats"`
}

// TableName keeps the table name readable.
func (WhoWeAre) TableName() string {
	return "who_we_are"
}

// Feature is a highlight card on the home page.
type Feature struct {
	Section
	Title       string `json:"title"`
	Description string `gorm:"type:text" json:"description"`
	Icon        string `json:"icon"`
	ImageURL    string `json:"imageUrl"`
	Link        string `json:"link"`
}

// Impact is a headline figure such as "1.2 Mn tonnes of ash handled".
type Impact struct {
	Section
	Value       string `json:"value"`
	Unit        string `json:"unit"`
	Label       string `json:"label"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// Business is one slide of the business verticals carousel.
type Business struct {
	Section
	Title       string         `json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	ImageURL    string         `json:"imageUrl"`
	Link        string         `json:"link"`
	Points      datatypes.JSON `json:"points"`
}

// TableName avoids the awkward default pluralisation.
func (Business) TableName() string {
	return "businesses"
}

// Client is a logo in the clients strip.
type Client struct {
	Section
	Name    string `json:"name"`
	LogoURL string `json:"logoUrl"`
	Website string `json:"website"`
}

// Award is one card of the awards carousel.
type Award struct {
	Section
	Title       string `json:"title"`
	Description string `gorm:"type:text" json:"description"`
	ImageURL    string `json:"imageUrl"`
	Year        string `json:"year"`
	Issuer      string `json:"issuer"`
}
