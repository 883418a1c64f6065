package cli

import (
	"context"
	"database/sql"

	"github.com/jrsteele09/go-shared-list/backend/postgres"
	"github.com/jrsteele09/go-shared-list/client"
	"github.com/jrsteele09/go-shared-list/feed"
	"github.com/jrsteele09/go-shared-list/feed/memfeed"
	"github.com/jrsteele09/go-shared-list/feed/pgfeed"
	"github.com/jrsteele09/go-shared-list/feed/redisfeed"
	"github.com/jrsteele09/go-shared-list/identity"
	"github.com/jrsteele09/go-shared-list/identity/authflow"
	"github.com/jrsteele09/go-shared-list/identity/devtoken"
	"github.com/jrsteele09/go-shared-list/identity/oidcprovider"
	"github.com/jrsteele09/go-shared-list/internal/config"
	"github.com/jrsteele09/go-shared-list/internal/errors"
	"github.com/jrsteele09/go-shared-list/internal/metrics"
	"github.com/jrsteele09/go-shared-list/items"
	fakeitemrepo "github.com/jrsteele09/go-shared-list/items/repofake"
	"github.com/jrsteele09/go-shared-list/permissions"
	fakepermissionrepo "github.com/jrsteele09/go-shared-list/permissions/repofake"
	"github.com/jrsteele09/go-shared-list/preferences"
	"github.com/jrsteele09/go-shared-list/profiles"
	fakeprofilerepo "github.com/jrsteele09/go-shared-list/profiles/repofake"
	"github.com/jrsteele09/go-shared-list/sessions/filestore"
	"github.com/jrsteele09/go-shared-list/voice/execcapture"
	"github.com/rs/zerolog/log"
)

// Runtime is one process's fully wired client plus what it must release.
type Runtime struct {
	Client  *client.Client
	Metrics *metrics.Metrics
	DB      *sql.DB // nil with the in-memory backend

	closers []func() error
}

// Close closes the client first, then backend connections in reverse order.
func (r *Runtime) Close() error {
	var first error
	if r.Client != nil {
		first = r.Client.Close()
	}
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	return first
}

type backend struct {
	items       items.Repo
	permissions permissions.Repo
	profiles    profiles.Repo
	source      feed.Source
}

// OpenRuntime wires a client from configuration. DATABASE_URL selects Postgres,
// otherwise everything lives in memory for the life of the process.
func OpenRuntime(ctx context.Context, cfg config.Config) (*Runtime, error) {
	rt := &Runtime{Metrics: metrics.New()}

	var prefOpts []preferences.StoreOption
	if cfg.GetPersistLocale() {
		prefOpts = append(prefOpts, preferences.WithPersistLocale())
	}
	prefs, err := preferences.Load(cfg.GetConfigDir(), prefOpts...)
	if err != nil {
		return nil, err
	}

	provider, err := newProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}

	be, err := rt.openBackend(ctx, cfg, provider)
	if err != nil {
		_ = rt.Close()
		return nil, err
	}

	access, err := permissions.NewService(be.permissions)
	if err != nil {
		_ = rt.Close()
		return nil, err
	}
	profileSync, err := profiles.NewSync(be.profiles)
	if err != nil {
		_ = rt.Close()
		return nil, err
	}

	gate, err := identity.NewGate(provider,
		authflow.NewFileRepo(cfg.GetConfigDir(), cfg.GetAuthFlowTimeout()),
		filestore.New(cfg.GetConfigDir()),
		access, profileSync,
		identity.WithFlowTimeout(cfg.GetAuthFlowTimeout()),
		identity.WithSessionExpiry(cfg.GetDefaultSessionExpiry()),
	)
	if err != nil {
		_ = rt.Close()
		return nil, err
	}

	rt.Client, err = client.New(client.Dependencies{
		Gate:        gate,
		Items:       be.items,
		Feed:        be.source,
		Speech:      execcapture.New(cfg.GetSpeechCommand()),
		Preferences: prefs,
		Metrics:     rt.Metrics,
	})
	if err != nil {
		_ = rt.Close()
		return nil, err
	}
	return rt, nil
}

func newProvider(ctx context.Context, cfg config.Config) (identity.Provider, error) {
	if cfg.GetIssuerURL() != "" {
		p, err := oidcprovider.New(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return p, nil
	}
	if cfg.GetDevTokenSecret() != "" {
		log.Warn().Msg("OIDC_ISSUER not set, signing in with the local development provider")
		p, err := devtoken.New(cfg.GetDevTokenSecret(), cfg.GetRedirectURL(), devtoken.User{
			Email: cfg.GetDevUserEmail(),
			Name:  cfg.GetDevUserName(),
		})
		if err != nil {
			return nil, err
		}
		return p, nil
	}
	log.Warn().Msg("No identity provider configured; set OIDC_ISSUER or DEV_TOKEN_SECRET")
	return nil, nil
}

func (rt *Runtime) openBackend(ctx context.Context, cfg config.Config, provider identity.Provider) (*backend, error) {
	var be backend

	if cfg.GetDatabaseURL() != "" {
		db, err := postgres.Open(ctx, cfg)
		if err != nil {
			return nil, err
		}
		rt.DB = db
		rt.closers = append(rt.closers, db.Close)
		be.items = postgres.NewItemRepo(db, cfg.GetBackendTimeout())
		be.permissions = postgres.NewPermissionRepo(db, cfg.GetBackendTimeout())
		be.profiles = postgres.NewProfileRepo(db, cfg.GetBackendTimeout())
	} else {
		log.Warn().Msg("DATABASE_URL not set, using an in-memory list")
		profileRepo := fakeprofilerepo.NewFakeProfileRepo()
		permissionRepo := fakepermissionrepo.NewFakePermissionRepo()
		if dev, ok := provider.(*devtoken.Provider); ok {
			// nobody can grant access to an in-memory list, so the developer has it
			permissionRepo.SetAccess(dev.User().Subject, true)
		}
		be.items = fakeitemrepo.NewFakeItemRepo(fakeitemrepo.WithNames(profileRepo.DisplayName))
		be.permissions = permissionRepo
		be.profiles = profileRepo
	}

	switch driver := cfg.GetFeedDriver(); driver {
	case config.FeedDriverRedis:
		source, err := redisfeed.New(ctx, cfg)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, source.Close)
		be.source = source
		be.items = feed.NotifyWrites(be.items, source.Publish)
	case config.FeedDriverPostgres:
		if cfg.GetDatabaseURL() == "" {
			return nil, errors.Wrapf(errors.ErrUnsupported, "[OpenRuntime] feed driver %q needs DATABASE_URL", driver)
		}
		be.source = pgfeed.New(cfg.GetDatabaseURL(), cfg.GetFeedChannel())
	case config.FeedDriverMemory, "":
		broker := memfeed.New()
		be.source = broker
		if fake, ok := be.items.(*fakeitemrepo.FakeItemRepo); ok {
			fake.SetNotifier(broker.Publish)
		} else {
			log.Warn().Msg("In-memory feed with a shared database: changes from other clients will not show until the next refresh")
		}
	default:
		return nil, errors.Validation("unknown FEED_DRIVER " + driver)
	}
	return &be, nil
}
