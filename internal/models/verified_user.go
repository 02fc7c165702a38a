package models

import "time"

// VerifiedUser is one claim of a Discord user on a Habbo name. Verified stays false while the
// challenge is outstanding or after it failed.
type VerifiedUser struct {
	ID        string    `json:"id,omitempty" bson:"-"`
	UserID    string    `json:"user_id" bson:"id"`
	Habbo     string    `json:"habbo" bson:"habbo"`
	Verified  bool      `json:"verified" bson:"verified"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}
