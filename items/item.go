package items

import "time"

// ListItem is one row of the shared list as seen through the read view.
type ListItem struct {
	ID          string    `json:"id"`
	Text        string    `json:"text"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"created_at"`
	CreatedBy   string    `json:"created_by"`
	CreatorName string    `json:"creator_name,omitempty"` // joined from profiles, may be empty
}

// NewItem is the insert payload. Text is expected to be trimmed already.
type NewItem struct {
	Text      string `validate:"required"`
	CreatedBy string `validate:"required"`
}

// Dedup keeps the first occurrence of every id, preserving order.
func Dedup(rows []ListItem) []ListItem {
	seen := make(map[string]struct{}, len(rows))
	out := make([]ListItem, 0, len(rows))
	for _, row := range rows {
		if _, ok := seen[row.ID]; ok {
			continue
		}
		seen[row.ID] = struct{}{}
		out = append(out, row)
	}
	return out
}
