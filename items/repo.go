package items

import "context"

// Repo is the backend's list resource.
type Repo interface {
	// List reads the joined view ordered by created_at descending. Rows may repeat an id.
	List(ctx context.Context) ([]ListItem, error)

	Insert(ctx context.Context, item NewItem) (*ListItem, error)
	UpdateText(ctx context.Context, id, text string) error
	SetCompleted(ctx context.Context, id string, completed bool) error
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) error
}
