package termcap

import (
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"
)

// Capability is the terminal's supported image protocol, if any.
type Capability int

const (
	None Capability = iota
	Sixel
	KittyGraphics
)

func (c Capability) String() string {
	switch c {
	case KittyGraphics:
		return "kitty"
	case Sixel:
		return "sixel"
	default:
		return "none"
	}
}

var detectOnce sync.Once
var detected Capability

// Detect resolves the terminal capability exactly once per process.
// It honors the KARU_GRAPHICS override, then environment heuristics,
// then a bounded device-attributes probe. Any failure resolves to
// None; image preview degrades, it never aborts.
func Detect() Capability {
	detectOnce.Do(func() {
		detected = detect(os.Getenv, probeDeviceAttributes)
	})
	return detected
}

// Parse maps an explicit override string to a Capability.
func Parse(s string) (Capability, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "kitty":
		return KittyGraphics, true
	case "sixel":
		return Sixel, true
	case "none":
		return None, true
	}
	return None, false
}

func detect(getenv func(string) string, probe func(time.Duration) string) Capability {
	if c, ok := Parse(getenv("KARU_GRAPHICS")); ok {
		return c
	}
	if getenv("KITTY_WINDOW_ID") != "" {
		return KittyGraphics
	}
	termName := getenv("TERM")
	if strings.Contains(termName, "kitty") || strings.Contains(termName, "ghostty") {
		return KittyGraphics
	}
	// Primary device attributes: feature 4 advertises sixel support.
	reply := probe(500 * time.Millisecond)
	if reply != "" && hasDeviceAttribute(reply, "4") {
		return Sixel
	}
	return None
}

// hasDeviceAttribute checks a DA1 reply of the form ESC [ ? a;b;c... c
// for one attribute code.
func hasDeviceAttribute(reply, attr string) bool {
	reply = strings.TrimPrefix(reply, "\x1b[?")
	reply = strings.TrimSuffix(reply, "c")
	for _, part := range strings.Split(reply, ";") {
		if part == attr {
			return true
		}
	}
	return false
}

// probeDeviceAttributes sends CSI c to the controlling terminal and
// reads the reply within timeout. Empty string on any failure.
func probeDeviceAttributes(timeout time.Duration) string {
	tty, err := os.OpenFile("/dev/tty", os.O_RDWR, 0)
	if err != nil {
		return ""
	}
	defer func() {
		_ = tty.Close()
	}()
	fd := int(tty.Fd())
	if !term.IsTerminal(fd) {
		return ""
	}
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return ""
	}
	defer func() {
		_ = term.Restore(fd, oldState)
	}()
	if _, err = tty.WriteString("\x1b[c"); err != nil {
		return ""
	}
	if err = tty.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return ""
	}
	var reply []byte
	buf := make([]byte, 1)
	for {
		n, err := tty.Read(buf)
		if err != nil || n == 0 {
			return ""
		}
		reply = append(reply, buf[0])
		if buf[0] == 'c' {
			return string(reply)
		}
		if len(reply) > 64 {
			return ""
		}
	}
}
