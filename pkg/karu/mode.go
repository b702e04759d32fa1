package karu

import (
	"github.com/karufm/karu/pkg/files"
)

// Mode is the exclusive interaction state. It is a closed sum type so
// dispatch over modes is exhaustive; each variant snapshots the
// context it needs when entered.
type Mode interface {
	mode()
	String() string
}

// Normal is the resting state: navigation and mode-entry keys.
type Normal struct{}

// Filtering accumulates a fuzzy pattern that narrows the listing live.
type Filtering struct {
	Input string
}

// AddressBar accumulates a path to navigate to. Cancelling never
// changes the directory; the browser only loads on commit.
type AddressBar struct {
	Input string
}

// Renaming accumulates a new name for Target. Input survives a failed
// commit so the user can correct it.
type Renaming struct {
	Target files.Entry
	Input  string
}

// CreatingFile accumulates a file name for the current directory.
type CreatingFile struct {
	Input string
}

// CreatingDirectory accumulates a directory name for the current
// directory.
type CreatingDirectory struct {
	Input string
}

// ConfirmDelete awaits y/n for trashing Targets.
type ConfirmDelete struct {
	Targets []files.Entry
}

// ConfirmOverwrite awaits y/n after a paste or move hit a name
// collision; confirming retries the transfer with overwrite enabled.
// FromClipboard routes the retry back through the clipboard so a cut
// clipboard is consumed on success.
type ConfirmOverwrite struct {
	Entries       []files.Entry
	DestDir       string
	FromClipboard bool
}

// Moving lets the user navigate to a destination directory for
// Targets; confirm transfers them there, Esc returns to OriginDir.
type Moving struct {
	Targets   []files.Entry
	OriginDir string
}

func (Normal) mode()            {}
func (Filtering) mode()         {}
func (AddressBar) mode()        {}
func (Renaming) mode()          {}
func (CreatingFile) mode()      {}
func (CreatingDirectory) mode() {}
func (ConfirmDelete) mode()     {}
func (ConfirmOverwrite) mode()  {}
func (Moving) mode()            {}

func (Normal) String() string            { return "NORMAL" }
func (Filtering) String() string         { return "FILTER" }
func (AddressBar) String() string        { return "GO TO" }
func (Renaming) String() string          { return "RENAME" }
func (CreatingFile) String() string      { return "NEW FILE" }
func (CreatingDirectory) String() string { return "NEW DIR" }
func (ConfirmDelete) String() string     { return "DELETE?" }
func (ConfirmOverwrite) String() string  { return "OVERWRITE?" }
func (Moving) String() string            { return "MOVE" }
