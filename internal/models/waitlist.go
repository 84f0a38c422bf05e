package models

import "time"

const WaitlistTableName = "waitlist"

// WaitlistEntry is one captured email. The store owns id and created_at;
// nothing here reads them back.
type WaitlistEntry struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	Email     string    `gorm:"type:text;not null;uniqueIndex:waitlist_email_key" json:"email"`
	CreatedAt time.Time `gorm:"not null" json:"-"`
}

func (WaitlistEntry) TableName() string {
	return WaitlistTableName
}

// ModelRegistry lists the models AutoMigrate manages outside SQL migrations.
var ModelRegistry = []any{
	&WaitlistEntry{},
}
