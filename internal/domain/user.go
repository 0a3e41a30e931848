package domain

import "time"

// User is an account that owns workout sessions and authored plans.
type User struct {
	ID           string    `bson:"_id" json:"id" db:"id"`
	Email        string    `bson:"email" json:"email" db:"email"`            // Unique, stored lower-cased
	FullName     string    `bson:"fullName" json:"fullName" db:"full_name"`  // The only mutable field
	PasswordHash string    `bson:"passwordHash" json:"-" db:"password_hash"` // Never exposed via JSON
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt" db:"created_at"`
}
