package model

import "gorm.io/gorm"

// AutoMigrate creates/updates all platform tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Promotion{},
		&CreditTransaction{},
		&Event{},
		&Ticket{},
		&Conversation{},
		&Message{},
	)
}
