package db

import "gorm.io/datatypes"

// HeaderContent configures the site header.
type HeaderContent struct {
	Section
	LogoURL  string `json:"logoUrl"`
	LogoAlt  string `json:"logoAlt"`
	CTALabel string `json:"ctaLabel"`
	CTALink  string `json:"ctaLink"`
}

// NavigationItem is a top-level menu entry. Children holds nested
// [{label, href}] entries for dropdowns.
type NavigationItem struct {
	Section
	Label    string         `json:"label"`
	Href     string         `json:"href"`
	Children datatypes.JSON `json:"children"`
}

// FooterContent is the footer block shared by every page.
type FooterContent struct {
	Section
	LogoURL     string         `json:"logoUrl"`
	Description string         `gorm:"type:text" json:"description"`
	Address     string         `gorm:"type:text" json:"address"`
	Email       string         `json:"email"`
	Phone       string         `json:"phone"`
	Copyright   string         `json:"copyright"`
	Socials     datatypes.JSON `json:"socials"`
}

// FooterLink is a link in one of the footer columns.
type FooterLink struct {
	Section
	Group string `gorm:"index" json:"group"`
	Label string `json:"label"`
	Href  string `json:"href"`
}
