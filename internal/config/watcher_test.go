package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherReloadsOnChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inquisit.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: inquisit\n"), 0644))

	reloaded := make(chan *Config, 1)
	w, err := NewWatcher(path, func(cfg *Config) {
		select {
		case reloaded <- cfg:
		default:
		}
	})
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	require.NoError(t, os.WriteFile(path,
		[]byte("name: inquisit\nscoring:\n  prefer_bonus: 0.35\n"), 0644))

	select {
	case cfg := <-reloaded:
		assert.InDelta(t, 0.35, cfg.Scoring.PreferBonus, 1e-9)
	case <-time.After(5 * time.Second):
		t.Fatal("config change was not picked up")
	}
}

func TestWatcherBurstLoadsFinalContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inquisit.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: inquisit\n"), 0644))

	reloaded := make(chan *Config, 4)
	w, err := NewWatcher(path, func(cfg *Config) { reloaded <- cfg })
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	// Editor-style save: truncate, then write the real content moments later.
	// The reload must see the final file, not the empty intermediate.
	require.NoError(t, os.WriteFile(path, nil, 0644))
	require.NoError(t, os.WriteFile(path,
		[]byte("name: inquisit\nscoring:\n  prefer_bonus: 0.4\n"), 0644))

	select {
	case cfg := <-reloaded:
		assert.InDelta(t, 0.4, cfg.Scoring.PreferBonus, 1e-9)
	case <-time.After(5 * time.Second):
		t.Fatal("config change was not picked up")
	}
}

func TestWatcherInvalidFileKeepsPrevious(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inquisit.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: inquisit\n"), 0644))

	reloaded := make(chan *Config, 4)
	w, err := NewWatcher(path, func(cfg *Config) { reloaded <- cfg })
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	require.NoError(t, os.WriteFile(path, []byte("scoring: [unclosed"), 0644))
	time.Sleep(700 * time.Millisecond) // past the debounce window
	require.NoError(t, os.WriteFile(path, []byte("version: \"9.9.9\"\n"), 0644))

	select {
	case cfg := <-reloaded:
		assert.Equal(t, "9.9.9", cfg.Version, "only the parseable write reaches the callback")
	case <-time.After(5 * time.Second):
		t.Fatal("valid rewrite was not picked up")
	}
}

func TestWatcherStopIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inquisit.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: inquisit\n"), 0644))

	w, err := NewWatcher(path, func(*Config) {})
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))

	w.Stop()
	w.Stop()
}
