package preferences

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/jrsteele09/go-shared-list/i18n"
	"github.com/jrsteele09/go-shared-list/internal/errors"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// FileName is the preferences file inside the config directory.
const FileName = "preferences.yaml"

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

func (t Theme) Valid() bool {
	return t == ThemeLight || t == ThemeDark
}

// Toggle returns the other theme.
func (t Theme) Toggle() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

type Preferences struct {
	Theme  Theme  `yaml:"theme"`
	Locale string `yaml:"locale,omitempty"`
}

func Defaults() Preferences {
	return Preferences{Theme: ThemeLight, Locale: i18n.Default.String()}
}

// Store holds the preferences of one client. It is loaded once; theme changes are
// written straight back to the file, locale changes only when WithPersistLocale is set.
type Store struct {
	path          string
	persistLocale bool

	mu    sync.RWMutex
	prefs Preferences
}

// StoreOption defines a function type to modify the Store instance.
type StoreOption func(*Store)

func WithPersistLocale() StoreOption {
	return func(s *Store) {
		s.persistLocale = true
	}
}

// Load reads dir/preferences.yaml. A missing or unreadable file yields the defaults.
func Load(dir string, options ...StoreOption) (*Store, error) {
	if dir == "" {
		return nil, errors.Wrapf(errors.ErrUnsupported, "[Load] preferences directory is required")
	}
	s := &Store{
		path:  filepath.Join(dir, FileName),
		prefs: Defaults(),
	}
	for _, opt := range options {
		opt(s)
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn().Err(err).Str("path", s.path).Msg("Unable to read preferences, using defaults")
		}
		return s, nil
	}

	var stored Preferences
	if err := yaml.Unmarshal(data, &stored); err != nil {
		log.Warn().Err(err).Str("path", s.path).Msg("Invalid preferences file, using defaults")
		return s, nil
	}
	if stored.Theme.Valid() {
		s.prefs.Theme = stored.Theme
	}
	if s.persistLocale && stored.Locale != "" {
		s.prefs.Locale = i18n.Match(stored.Locale).String()
	}
	return s, nil
}

func (s *Store) Get() Preferences {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prefs
}

func (s *Store) SetTheme(theme Theme) error {
	if !theme.Valid() {
		return errors.Validation("unknown theme " + string(theme))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs.Theme = theme
	return s.save()
}

// ToggleTheme flips light and dark and returns the new theme.
func (s *Store) ToggleTheme() (Theme, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs.Theme = s.prefs.Theme.Toggle()
	return s.prefs.Theme, s.save()
}

// SetLocale selects the UI and dictation locale. Unsupported tags map to the closest supported one.
func (s *Store) SetLocale(tag string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs.Locale = i18n.Match(tag).String()
	if !s.persistLocale {
		return s.prefs.Locale, nil
	}
	return s.prefs.Locale, s.save()
}

// ToggleLocale switches between the two supported locales.
func (s *Store) ToggleLocale() (string, error) {
	return s.SetLocale(i18n.Toggle(s.Get().Locale))
}

func (s *Store) save() error {
	stored := Preferences{Theme: s.prefs.Theme}
	if s.persistLocale {
		stored.Locale = s.prefs.Locale
	}
	data, err := yaml.Marshal(stored)
	if err != nil {
		return errors.Wrapf(err, "[Store save] marshal")
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return errors.Wrapf(err, "[Store save] create %s", filepath.Dir(s.path))
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		log.Err(err).Str("path", s.path).Msg("Error writing preferences")
		return errors.Wrapf(err, "[Store save] write %s", s.path)
	}
	return nil
}
