package client_test

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/jrsteele09/go-shared-list/client"
	"github.com/jrsteele09/go-shared-list/editsession"
	"github.com/jrsteele09/go-shared-list/feed/memfeed"
	"github.com/jrsteele09/go-shared-list/identity"
	"github.com/jrsteele09/go-shared-list/identity/authflow"
	"github.com/jrsteele09/go-shared-list/identity/devtoken"
	"github.com/jrsteele09/go-shared-list/internal/errors"
	"github.com/jrsteele09/go-shared-list/internal/metrics"
	"github.com/jrsteele09/go-shared-list/items"
	fakeitemrepo "github.com/jrsteele09/go-shared-list/items/repofake"
	"github.com/jrsteele09/go-shared-list/permissions"
	fakepermissionrepo "github.com/jrsteele09/go-shared-list/permissions/repofake"
	"github.com/jrsteele09/go-shared-list/preferences"
	"github.com/jrsteele09/go-shared-list/profiles"
	fakeprofilerepo "github.com/jrsteele09/go-shared-list/profiles/repofake"
	fakesessionrepo "github.com/jrsteele09/go-shared-list/sessions/repofakes"
	"github.com/jrsteele09/go-shared-list/voice"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	client *client.Client
	repo   *fakeitemrepo.FakeItemRepo
	broker *memfeed.Broker
	perms  *fakepermissionrepo.FakePermissionRepo
}

func newFixture(t *testing.T, speech ...voice.Capability) *fixture {
	t.Helper()
	broker := memfeed.New()
	profileRepo := fakeprofilerepo.NewFakeProfileRepo()
	repo := fakeitemrepo.NewFakeItemRepo(
		fakeitemrepo.WithNames(profileRepo.DisplayName),
		fakeitemrepo.WithNotifier(broker.Publish),
	)
	perms := fakepermissionrepo.NewFakePermissionRepo()

	provider, err := devtoken.New("secret", "http://localhost:8085/callback", devtoken.User{Subject: "user-ada", Email: "ada@example.com", Name: "Ada"})
	require.NoError(t, err)
	access, err := permissions.NewService(perms)
	require.NoError(t, err)
	profileSync, err := profiles.NewSync(profileRepo)
	require.NoError(t, err)
	gate, err := identity.NewGate(provider, authflow.NewInMemoryRepo(), fakesessionrepo.NewFakeSessionRepo(), access, profileSync)
	require.NoError(t, err)

	prefs, err := preferences.Load(t.TempDir())
	require.NoError(t, err)

	deps := client.Dependencies{
		Gate:        gate,
		Items:       repo,
		Feed:        broker,
		Preferences: prefs,
		Metrics:     metrics.New(),
	}
	if len(speech) > 0 {
		deps.Speech = speech[0]
	}
	c, err := client.New(deps)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	return &fixture{client: c, repo: repo, broker: broker, perms: perms}
}

func (f *fixture) signIn(t *testing.T) {
	t.Helper()
	raw, err := f.client.Gate().SignIn(context.Background())
	require.NoError(t, err)
	u, err := url.Parse(raw)
	require.NoError(t, err)
	require.NoError(t, f.client.Gate().Callback(context.Background(), u.Query().Get("code"), u.Query().Get("state")))
}

// waitForView waits until the view satisfies cond. Feed-driven refreshes can
// overtake the refresh that follows a write, so the view settles asynchronously.
func (f *fixture) waitForView(t *testing.T, cond func([]items.ListItem) bool) {
	t.Helper()
	require.Eventually(t, func() bool { return cond(f.client.Items()) }, time.Second, 5*time.Millisecond)
}

func (f *fixture) waitForItem(t *testing.T, id string, cond func(items.ListItem) bool) {
	t.Helper()
	require.Eventually(t, func() bool {
		item, ok := f.client.Store().Find(id)
		return ok && cond(item)
	}, time.Second, 5*time.Millisecond)
}

func TestOpen_ReadyUserSeesListAndLiveUpdates(t *testing.T) {
	f := newFixture(t)
	f.perms.SetAccess("user-ada", true)
	_, err := f.repo.Insert(context.Background(), items.NewItem{Text: "Bread", CreatedBy: "user-bob"})
	require.NoError(t, err)

	require.NoError(t, f.client.Open(context.Background()))
	require.Empty(t, f.client.Items())
	require.Equal(t, 0, f.broker.Subscribers())

	f.signIn(t)
	require.Equal(t, identity.Ready, f.client.Gate().State())
	require.Len(t, f.client.Items(), 1)
	require.Equal(t, 1, f.broker.Subscribers())

	// a write from another device arrives through the feed
	_, err = f.repo.Insert(context.Background(), items.NewItem{Text: "Eggs", CreatedBy: "user-bob"})
	require.NoError(t, err)
	require.Eventually(t, func() bool { return len(f.client.Items()) == 2 }, time.Second, 5*time.Millisecond)
}

func TestAdd_ShowsCreatorName(t *testing.T) {
	f := newFixture(t)
	f.perms.SetAccess("user-ada", true)
	require.NoError(t, f.client.Open(context.Background()))
	f.signIn(t)

	_, err := f.client.Add(context.Background(), "Milk")
	require.NoError(t, err)

	f.waitForView(t, func(view []items.ListItem) bool { return len(view) == 1 })
	view := f.client.Items()
	require.Equal(t, "Milk", view[0].Text)
	require.Equal(t, "Ada", view[0].CreatorName)
}

func TestFeedEventDuringEditKeepsDraft(t *testing.T) {
	f := newFixture(t)
	f.perms.SetAccess("user-ada", true)
	require.NoError(t, f.client.Open(context.Background()))
	f.signIn(t)

	milk, err := f.client.Add(context.Background(), "Milk")
	require.NoError(t, err)
	f.waitForItem(t, milk.ID, func(items.ListItem) bool { return true })
	require.NoError(t, f.client.StartEdit(milk.ID))
	f.client.Edits().UpdateDraft("Oat mi")

	_, err = f.repo.Insert(context.Background(), items.NewItem{Text: "Eggs", CreatedBy: "user-bob"})
	require.NoError(t, err)
	require.Eventually(t, func() bool { return len(f.client.Items()) == 2 }, time.Second, 5*time.Millisecond)

	snap := f.client.Edits().Snapshot()
	require.Equal(t, editsession.Editing, snap.State)
	require.Equal(t, milk.ID, snap.ItemID)
	require.Equal(t, "Oat mi", snap.Draft)

	f.client.Edits().UpdateDraft("Oat milk")
	require.NoError(t, f.client.Edits().Save(context.Background()))
	f.waitForItem(t, milk.ID, func(item items.ListItem) bool { return item.Text == "Oat milk" })
	require.Equal(t, editsession.Idle, f.client.Edits().Snapshot().State)
}

func TestUnauthorizedUserCannotWrite(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.client.Open(context.Background()))
	f.signIn(t)

	require.Equal(t, identity.Unauthorized, f.client.Gate().State())
	require.Equal(t, 0, f.broker.Subscribers())

	_, err := f.client.Add(context.Background(), "Milk")
	require.True(t, errors.Is(err, errors.ErrUnauthorized))
	require.Equal(t, 0, f.repo.Count())
}

func TestToggle(t *testing.T) {
	f := newFixture(t)
	f.perms.SetAccess("user-ada", true)
	require.NoError(t, f.client.Open(context.Background()))
	f.signIn(t)

	milk, err := f.client.Add(context.Background(), "Milk")
	require.NoError(t, err)
	f.waitForItem(t, milk.ID, func(item items.ListItem) bool { return !item.Completed })

	require.NoError(t, f.client.Toggle(context.Background(), milk.ID))
	f.waitForItem(t, milk.ID, func(item items.ListItem) bool { return item.Completed })

	require.NoError(t, f.client.Toggle(context.Background(), milk.ID))
	f.waitForItem(t, milk.ID, func(item items.ListItem) bool { return !item.Completed })

	require.True(t, errors.Is(f.client.Toggle(context.Background(), "missing"), errors.ErrNotFound))
}

func TestDeleteAllConfirmation(t *testing.T) {
	f := newFixture(t)
	f.perms.SetAccess("user-ada", true)
	require.NoError(t, f.client.Open(context.Background()))
	f.signIn(t)
	_, err := f.client.Add(context.Background(), "Milk")
	require.NoError(t, err)
	_, err = f.client.Add(context.Background(), "Bread")
	require.NoError(t, err)
	f.waitForView(t, func(view []items.ListItem) bool { return len(view) == 2 })

	err = f.client.ConfirmDeleteAll(context.Background())
	require.True(t, errors.Is(err, errors.ErrConfirmationRequired))
	require.Equal(t, 2, f.repo.Count())

	f.client.RequestDeleteAll()
	f.client.CancelDeleteAll()
	require.False(t, f.client.DeleteAllPending())
	require.Error(t, f.client.ConfirmDeleteAll(context.Background()))

	f.client.RequestDeleteAll()
	require.True(t, f.client.DeleteAllPending())
	require.NoError(t, f.client.ConfirmDeleteAll(context.Background()))
	f.waitForView(t, func(view []items.ListItem) bool { return len(view) == 0 })
	require.False(t, f.client.DeleteAllPending())
}

func TestSignOutClearsViewAndFeed(t *testing.T) {
	f := newFixture(t)
	f.perms.SetAccess("user-ada", true)
	require.NoError(t, f.client.Open(context.Background()))
	f.signIn(t)
	milk, err := f.client.Add(context.Background(), "Milk")
	require.NoError(t, err)
	f.waitForItem(t, milk.ID, func(items.ListItem) bool { return true })
	require.NoError(t, f.client.StartEdit(milk.ID))

	require.NoError(t, f.client.Gate().SignOut(context.Background()))
	require.Empty(t, f.client.Items())
	require.Equal(t, 0, f.broker.Subscribers())
	require.Equal(t, editsession.Idle, f.client.Edits().Snapshot().State)
}

func TestCloseReleasesSubscription(t *testing.T) {
	f := newFixture(t)
	f.perms.SetAccess("user-ada", true)
	require.NoError(t, f.client.Open(context.Background()))
	f.signIn(t)
	require.Equal(t, 1, f.broker.Subscribers())

	require.NoError(t, f.client.Close())
	require.NoError(t, f.client.Close())
	require.Equal(t, 0, f.broker.Subscribers())
	require.False(t, f.client.Subscriber().Active())
}

func TestToggles(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, "ml-IN", f.client.Locale())

	locale, err := f.client.ToggleLocale()
	require.NoError(t, err)
	require.Equal(t, "en-US", locale)
	require.Equal(t, "en-US", f.client.Voice().Locale())

	theme, err := f.client.ToggleTheme()
	require.NoError(t, err)
	require.Equal(t, preferences.ThemeDark, theme)
}

// scriptedSpeech hears one phrase in whatever locale it is started with.
type scriptedSpeech struct {
	phrase  string
	locales chan string
}

func (s *scriptedSpeech) Available() bool { return true }

func (s *scriptedSpeech) Start(_ context.Context, locale string) (voice.Capture, error) {
	s.locales <- locale
	c := &scriptedCapture{transcripts: make(chan string, 1), done: make(chan struct{})}
	c.transcripts <- s.phrase
	return c, nil
}

type scriptedCapture struct {
	transcripts chan string
	done        chan struct{}
}

func (c *scriptedCapture) Transcripts() <-chan string { return c.transcripts }
func (c *scriptedCapture) Done() <-chan struct{}      { return c.done }
func (c *scriptedCapture) Stop()                      {}

func TestDictationAddsItemInCurrentLocale(t *testing.T) {
	speech := &scriptedSpeech{phrase: "Eggs", locales: make(chan string, 1)}
	f := newFixture(t, speech)
	f.perms.SetAccess("user-ada", true)
	require.NoError(t, f.client.Open(context.Background()))
	f.signIn(t)

	locale, err := f.client.SetLocale("en")
	require.NoError(t, err)
	require.Equal(t, "en-US", locale)

	states := make(chan voice.State, 4)
	unsubscribe := f.client.OnVoiceState(func(s voice.State) { states <- s })
	defer unsubscribe()

	require.NoError(t, f.client.Voice().Start(context.Background()))
	require.Equal(t, "en-US", <-speech.locales)
	require.Equal(t, voice.Listening, <-states)
	require.Equal(t, voice.Idle, <-states)

	f.waitForView(t, func(view []items.ListItem) bool {
		return len(view) == 1 && view[0].Text == "Eggs"
	})
}
