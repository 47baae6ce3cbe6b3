package models

import "time"

// User is an identity seen by the service, keyed by its OIDC subject.
type User struct {
	Sub       string    `bson:"_id" json:"sub"`
	Username  string    `bson:"username" json:"username"`
	Email     string    `bson:"email,omitempty" json:"email,omitempty"`
	Name      string    `bson:"name,omitempty" json:"name,omitempty"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	LastSeen  time.Time `bson:"lastSeen" json:"lastSeen"`
}
