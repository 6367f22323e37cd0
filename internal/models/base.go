package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"gorm.io/gorm"
)

// Base is the base model for all entities.
// ID is a 24-hex ObjectID string regardless of the backing store, so the
// same identifiers work against MongoDB and MySQL.
type Base struct {
	ID        string    `json:"id"        gorm:"type:char(24);primaryKey"`
	CreatedAt time.Time `json:"createdAt" gorm:"index"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = NewID()
	}
	return nil
}

// NewID returns a fresh ObjectID in hex form.
func NewID() string {
	return primitive.NewObjectID().Hex()
}

// IsObjectID reports whether s has the 24-hex-character ObjectID shape.
func IsObjectID(s string) bool {
	if len(s) != 24 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

// NormalizeID lowercases a token of ObjectID shape, the form every store
// keeps ids in. Other tokens are returned trimmed.
func NormalizeID(s string) string {
	s = strings.TrimSpace(s)
	if IsObjectID(s) {
		return strings.ToLower(s)
	}
	return s
}
