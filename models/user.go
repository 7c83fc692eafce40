package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RoleAdmin and RoleClient are the two roles a user can hold. Admins may
// mutate FIRs; clients may only file them and read their own.
const (
	RoleAdmin  = "admin"
	RoleClient = "client"
)

// User holds the structure for the users collection in MongoDB
type User struct {
	ID        primitive.ObjectID `json:"_id" bson:"_id"`
	Name      string             `json:"name" bson:"name"`
	Email     string             `json:"email" bson:"email"`
	Password  string             `json:"password,omitempty" bson:"password"`
	Role      string             `json:"role" bson:"role"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
}
