package karu

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/karufm/karu/pkg/files"
	"github.com/karufm/karu/pkg/preview"
)

// Row is one rendered listing line.
type Row struct {
	Name       string
	Kind       files.Kind
	Size       string
	GitMarker  rune
	CutPending bool
	Selected   bool
}

// ViewModel is the immutable render snapshot; the render loop never
// mutates state it reads.
type ViewModel struct {
	Dir          string
	Rows         []Row
	Cursor       int
	ModeLabel    string
	InputLine    string
	StatusLine   string
	Notification string
	Preview      preview.State
}

// Snapshot assembles the view model for the current state.
func (nav *Navigator) Snapshot() ViewModel {
	vm := ViewModel{
		Dir:          nav.browser.Dir(),
		ModeLabel:    nav.mode.String(),
		Notification: nav.notification,
		Preview:      nav.previewState,
	}
	listing := nav.browser.Listing()
	if listing == nil {
		return vm
	}
	vm.Cursor = listing.Cursor()
	clipboard := nav.engine.Clipboard()
	for i, entry := range listing.Visible() {
		row := Row{
			Name:       entry.Name,
			Kind:       entry.Kind,
			CutPending: clipboard.IsCutPending(entry.Path),
			Selected:   i == vm.Cursor,
		}
		if entry.IsDir() {
			row.Name += "/"
		} else {
			row.Size = humanize.Bytes(uint64(entry.Size))
		}
		if nav.gitStatus != nil {
			row.GitMarker = nav.gitStatus.Marker(entry.Name)
		}
		vm.Rows = append(vm.Rows, row)
	}
	vm.InputLine = nav.inputLine()
	vm.StatusLine = nav.statusLine(listing)
	return vm
}

func (nav *Navigator) inputLine() string {
	switch mode := nav.mode.(type) {
	case Filtering:
		return "/" + mode.Input
	case AddressBar:
		return "go to: " + mode.Input
	case Renaming:
		return "rename to: " + mode.Input
	case CreatingFile:
		return "new file: " + mode.Input
	case CreatingDirectory:
		return "new directory: " + mode.Input
	case ConfirmDelete:
		return fmt.Sprintf("delete %s? (y/n)", targetNames(mode.Targets))
	case ConfirmOverwrite:
		return fmt.Sprintf("overwrite in %s? (y/n)", mode.DestDir)
	case Moving:
		return fmt.Sprintf("moving %s, press m here to drop, Esc to cancel", targetNames(mode.Targets))
	default:
		return ""
	}
}

func (nav *Navigator) statusLine(listing *files.Listing) string {
	parts := []string{fmt.Sprintf("%d items", len(listing.Visible()))}
	if nav.browser.ShowHidden() {
		parts = append(parts, "hidden shown")
	}
	if pattern := listing.Filter().Pattern; pattern != "" {
		parts = append(parts, "filter: "+pattern)
	}
	if !nav.engine.Clipboard().IsEmpty() {
		parts = append(parts, nav.engine.Clipboard().Mode().String()+" pending")
	}
	if summary := nav.gitStatus.Summary(); summary != "" {
		parts = append(parts, summary)
	}
	return strings.Join(parts, "  ")
}

func targetNames(entries []files.Entry) string {
	names := make([]string, len(entries))
	for i, entry := range entries {
		names[i] = entry.Name
	}
	return strings.Join(names, ", ")
}
