package models

import "time"

// User represents an account in the store.
type User struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Username  string    `json:"username" gorm:"uniqueIndex;type:varchar(30)" validate:"required,min=3,max=30"`
	Email     string    `json:"email" gorm:"uniqueIndex;type:varchar(255)" validate:"required,email"`
	Password  string    `json:"-" gorm:"type:varchar(255)" validate:"required,min=6"` // bcrypt hash, never serialized
	IsAdmin   bool      `json:"isAdmin" gorm:"default:false"`
	IsActive  bool      `json:"isActive" gorm:"default:true"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ProfileUpdate lists the profile fields a user may patch. A nil
// field means "leave unchanged"; update logic branches per field
// rather than spreading an untyped map into the store call.
type ProfileUpdate struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
}
