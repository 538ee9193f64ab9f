package browser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ibeckermayer/promptreel/internal/config"
)

func TestClipboardScriptEscapesText(t *testing.T) {
	script, err := clipboardScript("a `tick` and \"quote\"\nnext")
	require.NoError(t, err)
	assert.Equal(t, `navigator.clipboard.writeText("a `+"`tick`"+` and \"quote\"\nnext")`, script)
}

func TestOptionsGrowWithProfileAndExecPath(t *testing.T) {
	cfg := config.Default().Browser
	plain := Options(cfg)

	cfg.ProfileDir = "/tmp/profile"
	cfg.ExecPath = "/usr/bin/chromium"
	assert.Len(t, Options(cfg), len(plain)+2)
}

func TestUnopenedSession(t *testing.T) {
	s := NewSession(config.Default().Browser, t.TempDir())

	assert.ErrorIs(t, s.Navigate("https://example.com"), ErrNotOpen)
	assert.ErrorIs(t, s.CopyToClipboard("x"), ErrNotOpen)
	assert.ErrorIs(t, s.WaitVisible("body", time.Second), ErrNotOpen)
	_, err := s.Location()
	assert.ErrorIs(t, err, ErrNotOpen)
	_, err = s.Cookies()
	assert.ErrorIs(t, err, ErrNotOpen)

	select {
	case <-s.Done():
	default:
		t.Fatal("Done should be closed for an unopened session")
	}

	assert.NoError(t, s.Close())
	assert.NoError(t, s.Close())
}
