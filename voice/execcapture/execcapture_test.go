package execcapture_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jrsteele09/go-shared-list/voice/execcapture"
	"github.com/stretchr/testify/require"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "recognise.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func TestAvailable(t *testing.T) {
	require.False(t, execcapture.New("").Available())
	require.False(t, execcapture.New("no-such-recogniser-binary").Available())
	require.True(t, execcapture.New(writeScript(t, "exit 0")).Available())
}

func TestStart_EmitsTranscriptPerLine(t *testing.T) {
	capability := execcapture.New(writeScript(t, `echo "Milk $1"`))

	capture, err := capability.Start(context.Background(), "ml-IN")
	require.NoError(t, err)

	select {
	case text := <-capture.Transcripts():
		require.Equal(t, "Milk ml-IN", text)
	case <-time.After(5 * time.Second):
		t.Fatal("no transcript")
	}

	select {
	case <-capture.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("capture did not finish")
	}
}

func TestStop_KillsRecogniser(t *testing.T) {
	capability := execcapture.New(writeScript(t, "exec sleep 30"))

	capture, err := capability.Start(context.Background(), "en-US")
	require.NoError(t, err)
	capture.Stop()
	capture.Stop()

	select {
	case <-capture.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("capture did not stop")
	}
	_, open := <-capture.Transcripts()
	require.False(t, open)
}

func TestStart_Unavailable(t *testing.T) {
	_, err := execcapture.New("").Start(context.Background(), "en-US")
	require.Error(t, err)
}
