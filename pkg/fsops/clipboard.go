package fsops

import (
	"sync"

	"github.com/karufm/karu/pkg/files"
)

type ClipboardMode int

const (
	ClipCopy ClipboardMode = iota
	ClipCut
)

func (m ClipboardMode) String() string {
	if m == ClipCut {
		return "cut"
	}
	return "copy"
}

// Clipboard holds the pending copy/cut selection. It is replaced
// atomically and survives until consumed by a cut-paste or cleared.
type Clipboard struct {
	mu      sync.Mutex
	entries []files.Entry
	mode    ClipboardMode
	set     bool
}

func (c *Clipboard) Set(entries []files.Entry, mode ClipboardMode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append([]files.Entry(nil), entries...)
	c.mode = mode
	c.set = len(c.entries) > 0
}

func (c *Clipboard) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = nil
	c.set = false
}

func (c *Clipboard) IsEmpty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.set
}

func (c *Clipboard) Mode() ClipboardMode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

func (c *Clipboard) Entries() []files.Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]files.Entry(nil), c.entries...)
}

// IsCutPending reports whether path is cut and awaiting paste, so the
// view can mark it pending-removal.
func (c *Clipboard) IsCutPending(path string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.set || c.mode != ClipCut {
		return false
	}
	for _, entry := range c.entries {
		if entry.Path == path {
			return true
		}
	}
	return false
}
