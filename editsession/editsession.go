package editsession

import (
	"context"
	"strings"
	"sync"

	"github.com/jrsteele09/go-shared-list/internal/errors"
	"github.com/jrsteele09/go-shared-list/items"
)

// State of the edit slot
type State int

const (
	Idle State = iota
	Editing
)

func (s State) String() string {
	if s == Editing {
		return "editing"
	}
	return "idle"
}

// Editor persists an edited text. mutations.Gateway satisfies it.
type Editor interface {
	Edit(ctx context.Context, itemID, newText string) error
}

// Snapshot is the observable state of the slot.
type Snapshot struct {
	State  State
	ItemID string
	Draft  string
}

// Session is the client's single in-place edit slot. The draft is local only;
// list refreshes never touch it.
type Session struct {
	editor Editor

	mu     sync.Mutex
	state  State
	itemID string
	draft  string
}

func New(editor Editor) *Session {
	return &Session{editor: editor}
}

// SetEditor attaches the editor after construction.
func (s *Session) SetEditor(editor Editor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.editor = editor
}

// Start begins editing item, seeding the draft from its text. Any edit already
// in progress is dropped.
func (s *Session) Start(item items.ListItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Editing
	s.itemID = item.ID
	s.draft = item.Text
}

// UpdateDraft replaces the draft. It does nothing when no edit is active.
func (s *Session) UpdateDraft(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Editing {
		return
	}
	s.draft = text
}

// Save writes the draft through the editor. A blank draft keeps the edit open
// and sends nothing. On success the gateway clears the slot.
func (s *Session) Save(ctx context.Context) error {
	s.mu.Lock()
	if s.state != Editing {
		s.mu.Unlock()
		return errors.Wrapf(errors.ErrUnsupported, "[Session Save] no edit in progress")
	}
	itemID, draft, editor := s.itemID, s.draft, s.editor
	s.mu.Unlock()

	if strings.TrimSpace(draft) == "" {
		return errors.Validation("item text is empty")
	}
	if editor == nil {
		return errors.Wrapf(errors.ErrUnsupported, "[Session Save] no editor")
	}
	if err := editor.Edit(ctx, itemID, draft); err != nil {
		return err
	}
	// editors that do not clear the slot themselves
	s.ClearIf(itemID)
	return nil
}

// Cancel discards the draft.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
}

// ClearIf ends the edit when it is for itemID. A newer edit of another item stays.
func (s *Session) ClearIf(itemID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Editing && s.itemID == itemID {
		s.reset()
	}
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{State: s.state, ItemID: s.itemID, Draft: s.draft}
}

// IsEditing reports whether itemID is the item being edited.
func (s *Session) IsEditing(itemID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == Editing && s.itemID == itemID
}

func (s *Session) reset() {
	s.state = Idle
	s.itemID = ""
	s.draft = ""
}
