package authflow

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jrsteele09/go-shared-list/internal/errors"
)

var _ Repo = (*FileRepo)(nil)

// FileName holds pending flows so `login` and `callback` can run as separate processes.
const FileName = "signin.json"

// FileRepo stores flows in a JSON file. Flows older than maxAge are pruned on every write.
type FileRepo struct {
	path    string
	maxAge  time.Duration
	nowTime func() time.Time
	mu      sync.Mutex
}

func NewFileRepo(dir string, maxAge time.Duration) *FileRepo {
	return &FileRepo{
		path:    filepath.Join(dir, FileName),
		maxAge:  maxAge,
		nowTime: time.Now,
	}
}

func (r *FileRepo) Upsert(state string, flow *FlowState) error {
	if state == "" {
		return errors.Validation("state cannot be empty")
	}
	if flow == nil {
		return errors.Validation("flow cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	flows, err := r.read()
	if err != nil {
		return err
	}
	flows[state] = *flow
	return r.write(flows)
}

func (r *FileRepo) Take(state string) (*FlowState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	flows, err := r.read()
	if err != nil {
		return nil, err
	}
	flow, ok := flows[state]
	if !ok || state == "" {
		return nil, errors.ErrInvalidState
	}
	delete(flows, state)
	if err := r.write(flows); err != nil {
		return nil, err
	}
	return &flow, nil
}

func (r *FileRepo) read() (map[string]FlowState, error) {
	flows := map[string]FlowState{}
	data, err := os.ReadFile(r.path)
	if os.IsNotExist(err) {
		return flows, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "[FileRepo read] %s", r.path)
	}
	if err := json.Unmarshal(data, &flows); err != nil {
		// a corrupt file only loses pending sign-ins
		return map[string]FlowState{}, nil
	}
	return flows, nil
}

func (r *FileRepo) write(flows map[string]FlowState) error {
	now := r.nowTime()
	for state, flow := range flows {
		if r.maxAge > 0 && now.Sub(flow.CreatedAt) > r.maxAge {
			delete(flows, state)
		}
	}
	data, err := json.Marshal(flows)
	if err != nil {
		return errors.Wrapf(err, "[FileRepo write] marshal")
	}
	if err := os.MkdirAll(filepath.Dir(r.path), 0o700); err != nil {
		return errors.Wrapf(err, "[FileRepo write] create dir")
	}
	if err := os.WriteFile(r.path, data, 0o600); err != nil {
		return errors.Wrapf(err, "[FileRepo write] %s", r.path)
	}
	return nil
}
