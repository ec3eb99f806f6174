package models

import "time"

// UserPreference holds the durable per-user flags that must survive webview
// reloads and new sessions. Keyed by the Telegram user id.
type UserPreference struct {
	UserID           int64     `gorm:"column:user_id;primaryKey"`
	WriteAccessAsked bool      `gorm:"column:write_access_asked;not null;default:false"`
	LanguageCode     string    `gorm:"column:language_code;size:16"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName pins the table name independent of gorm pluralization rules.
func (UserPreference) TableName() string {
	return "user_preferences"
}
