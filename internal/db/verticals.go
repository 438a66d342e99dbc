package db

import "gorm.io/datatypes"

// VerticalPage is the layout shared by the business vertical and ESG pages.
type VerticalPage struct {
	Section
	Title       string         `json:"title"`
	Subtitle    string         `json:"subtitle"`
	BannerImage string         `json:"bannerImage"`
	Sections    datatypes.JSON `json:"sections"`
}

// AshUtilizationPage is the ash handling and utilisation vertical.
type AshUtilizationPage struct {
	VerticalPage
}

// GreenMobilityPage is the electric mobility vertical.
type GreenMobilityPage struct {
	VerticalPage
}

// EsgPage is the environment, social and governance landing page.
type EsgPage struct {
	VerticalPage
}

// EsgPolicy is a downloadable ESG policy document.
type EsgPolicy struct {
	Section
	Title       string `json:"title"`
	Description string `json:"description"`
	DocumentURL string `json:"documentUrl"`
}
