package domain

import "time"

// Secret holds a sealed value. Ciphertext is nonce||sealed bytes.
type Secret struct {
	ID          uint    `gorm:"primaryKey"`
	Name        string  `gorm:"size:128;not null;uniqueIndex"`
	Description *string `gorm:"size:500"`
	Ciphertext  []byte  `gorm:"not null"`
	Version     int     `gorm:"not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (Secret) TableName() string { return "secrets" }
