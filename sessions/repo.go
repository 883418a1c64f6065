package sessions

// Repo persists the one active session of a client across restarts.
type Repo interface {
	// Load returns the stored session, or nil when there is none
	Load() (*Session, error)

	// Save replaces the stored session
	Save(session *Session) error

	// Delete removes the stored session; deleting nothing is not an error
	Delete() error
}
