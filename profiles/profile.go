package profiles

// Profile denormalises identity data so other clients can show who added an item.
type Profile struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
}
