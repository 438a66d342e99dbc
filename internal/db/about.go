package db

import "gorm.io/datatypes"

// AboutPage holds the about-us hero and free-form sections.
type AboutPage struct {
	Section
	Hero     datatypes.JSON `json:"hero"`
	Sections datatypes.JSON `json:"sections"`
}

// Leader is a member of the leadership team.
type Leader struct {
	Section
	Name        string `json:"name"`
	Designation string `json:"designation"`
	Bio         string `gorm:"type:text" json:"bio"`
	ImageURL    string `json:"imageUrl"`
	LinkedIn    string `json:"linkedin"`
}
