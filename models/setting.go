package models

// Setting is a single durable key/value entry backing filter persistence and
// the auth token. It corresponds to the 'settings' table.
type Setting struct {
	Key       string `gorm:"primaryKey" json:"key"`
	Value     string `gorm:"not null" json:"value"`
	UpdatedAt int64  `gorm:"not null" json:"updated_at"` // Unix timestamp
}

// TableName explicitly sets the table name for GORM.
func (Setting) TableName() string {
	return "settings"
}
