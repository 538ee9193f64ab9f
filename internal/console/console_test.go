package console

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConsole(input string) (*Console, *bytes.Buffer) {
	color.NoColor = true
	var out bytes.Buffer
	return New(strings.NewReader(input), &out), &out
}

func TestAskTrimsAnswer(t *testing.T) {
	c, out := newTestConsole("  ./videos  \r\n")

	answer, err := c.Ask("Output dir: ")
	require.NoError(t, err)
	assert.Equal(t, "./videos", answer)
	assert.Equal(t, "Output dir: ", out.String())
}

func TestAskReturnsFinalUnterminatedLine(t *testing.T) {
	c, _ := newTestConsole("last")

	answer, err := c.Ask("? ")
	require.NoError(t, err)
	assert.Equal(t, "last", answer)

	_, err = c.Ask("? ")
	assert.ErrorIs(t, err, io.EOF)
}

func TestConfirm(t *testing.T) {
	c, _ := newTestConsole("y\nY\nyes\nn\n\n")

	want := []bool{true, true, false, false, false}
	for i, w := range want {
		got, err := c.Confirm("? ")
		require.NoError(t, err, "answer %d", i)
		assert.Equal(t, w, got, "answer %d", i)
	}
}

func TestWaitEnter(t *testing.T) {
	c, out := newTestConsole("ignored text\n")

	require.NoError(t, c.WaitEnter("Press Enter..."))
	assert.Equal(t, "Press Enter...", out.String())
	assert.ErrorIs(t, c.WaitEnter("again"), io.EOF)
}

func TestReadUntilSentinel(t *testing.T) {
	c, _ := newTestConsole("first\n\n  second  \ndone\nafter\n")

	lines, err := c.ReadUntil("DONE")
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, lines)

	rest, err := c.Ask("")
	require.NoError(t, err)
	assert.Equal(t, "after", rest)
}

func TestReadUntilEOF(t *testing.T) {
	c, _ := newTestConsole("only\n")

	lines, err := c.ReadUntil("DONE")
	require.NoError(t, err)
	assert.Equal(t, []string{"only"}, lines)
}
