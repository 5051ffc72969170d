// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Roles a user can hold. The set is closed.
const (
	RoleResident = "resident"
	RoleOfficial = "official"
)

// User is a registered resident or official.
//
// NOTE:
//   - Email is stored lowercased and trimmed; the unique index on email
//     enforces one account per address.
//   - PasswordHash is a bcrypt hash. It never leaves the server.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FullName     string             `bson:"full_name" json:"name"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"password_hash" json:"-"`
	Role         string             `bson:"role" json:"role"` // resident | official

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// IsValidRole reports whether role is one of the closed set of roles.
func IsValidRole(role string) bool {
	return role == RoleResident || role == RoleOfficial
}
