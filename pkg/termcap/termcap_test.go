package termcap

import (
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
)

func env(vars map[string]string) func(string) string {
	return func(key string) string {
		return vars[key]
	}
}

func noProbe(time.Duration) string { return "" }

func TestDetect_Override(t *testing.T) {
	t.Parallel()
	assert.Equal(t, KittyGraphics, detect(env(map[string]string{"KARU_GRAPHICS": "kitty"}), noProbe))
	assert.Equal(t, Sixel, detect(env(map[string]string{"KARU_GRAPHICS": "sixel"}), noProbe))
	assert.Equal(t, None, detect(env(map[string]string{"KARU_GRAPHICS": "none", "KITTY_WINDOW_ID": "1"}), noProbe))
}

func TestDetect_EnvHeuristics(t *testing.T) {
	t.Parallel()
	assert.Equal(t, KittyGraphics, detect(env(map[string]string{"KITTY_WINDOW_ID": "3"}), noProbe))
	assert.Equal(t, KittyGraphics, detect(env(map[string]string{"TERM": "xterm-kitty"}), noProbe))
	assert.Equal(t, KittyGraphics, detect(env(map[string]string{"TERM": "xterm-ghostty"}), noProbe))
}

func TestDetect_SixelProbe(t *testing.T) {
	t.Parallel()
	sixelReply := func(time.Duration) string { return "\x1b[?62;4;22c" }
	assert.Equal(t, Sixel, detect(env(map[string]string{"TERM": "xterm-256color"}), sixelReply))

	plainReply := func(time.Duration) string { return "\x1b[?62;22c" }
	assert.Equal(t, None, detect(env(map[string]string{"TERM": "xterm-256color"}), plainReply))
}

func TestDetect_ProbeFailureIsNone(t *testing.T) {
	t.Parallel()
	assert.Equal(t, None, detect(env(nil), noProbe))
}

func TestParse(t *testing.T) {
	t.Parallel()
	c, ok := Parse(" Kitty ")
	assert.True(t, ok)
	assert.Equal(t, KittyGraphics, c)
	_, ok = Parse("unknown")
	assert.False(t, ok)
}
