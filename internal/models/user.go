package models

// User is a registered account. The token is the only credential; the name
// is never exposed to other users, only its salted fingerprint is.
type User struct {
	ID      int64  `gorm:"primaryKey;autoIncrement;column:id" json:"id"`
	Name    string `gorm:"type:varchar(64);not null;uniqueIndex;column:name" json:"name"`
	Token   string `gorm:"type:varchar(64);not null;uniqueIndex;column:token" json:"token"`
	IsAdmin bool   `gorm:"not null;default:false;column:is_admin" json:"is_admin"`
}

// TableName specifies the table name for User
func (User) TableName() string {
	return "users"
}
