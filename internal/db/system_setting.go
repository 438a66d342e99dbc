package db

import "gorm.io/gorm"

// SystemSetting stores admin-editable key/value pairs.
type SystemSetting struct {
	gorm.Model
	Key   string `gorm:"size:100;uniqueIndex;not null"`
	Value string `gorm:"type:text"`
}

// TableName keeps the table name stable.
func (SystemSetting) TableName() string {
	return "system_settings"
}

const (
	// SettingKeySiteName is the display name of the site.
	SettingKeySiteName = "site_name"
	// SettingKeyContactEmail is where enquiry links point.
	SettingKeyContactEmail = "contact_email"
	// SettingKeyStockAPIKey overrides the configured quote API key.
	SettingKeyStockAPIKey = "stock_api_key"
	// SettingKeyStockAPIHost overrides the configured quote API host header.
	SettingKeyStockAPIHost = "stock_api_host"
)
