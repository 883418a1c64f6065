package logging_test

import (
	"bytes"
	"testing"

	"github.com/jrsteele09/go-shared-list/internal/logging"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/require"
)

func TestSetup_ProdWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logging.Setup("debug", "PROD", &buf)
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	log.Info().Str("item_id", "1").Msg("fetched")
	require.Contains(t, buf.String(), `"item_id":"1"`)
	require.Contains(t, buf.String(), `"message":"fetched"`)
	require.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
}

func TestSetup_UnknownLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	logging.Setup("chatty", "PROD", &buf)

	require.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
	log.Debug().Msg("hidden")
	require.Empty(t, buf.String())
}

func TestComponent(t *testing.T) {
	var buf bytes.Buffer
	logging.Setup("info", "PROD", &buf)

	l := logging.Component("feed")
	l.Info().Msg("subscribed")
	require.Contains(t, buf.String(), `"component":"feed"`)
}
