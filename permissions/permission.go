package permissions

import "time"

// Record is the access-control entry for one user. Records are created lazily
// with HasAccess=false; granting access is an administrative action outside the client.
type Record struct {
	UserID    string    `json:"user_id"`
	HasAccess bool      `json:"has_access"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}
