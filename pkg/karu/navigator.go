package karu

import (
	"context"

	"github.com/gdamore/tcell/v2"
	"github.com/sirupsen/logrus"

	"github.com/karufm/karu/pkg/files"
	"github.com/karufm/karu/pkg/fsops"
	"github.com/karufm/karu/pkg/gitutils"
	"github.com/karufm/karu/pkg/preview"
)

// Previewer is the slice of the preview pipeline the navigator needs.
type Previewer interface {
	Request(entry files.Entry, paneCols, paneRows int) preview.State
}

// Engine is the slice of the operation engine the navigator drives.
type Engine interface {
	Copy(entries []files.Entry)
	Cut(entries []files.Entry)
	Paste(targetDir string, overwrite bool) (*fsops.Job, error)
	Move(entries []files.Entry, destDir string, overwrite bool) *fsops.Job
	Delete(entries []files.Entry) *fsops.Job
	Rename(entry files.Entry, newName string) (*fsops.Job, error)
	CreateFile(dir, name string, force bool) (*fsops.Job, error)
	CreateDir(dir, name string, force bool) (*fsops.Job, error)
	Clipboard() *fsops.Clipboard
}

// Navigator is the mode state machine: it interprets key events
// according to the active mode, drives the browser, engine and preview
// pipeline, and exposes an immutable view model for the render loop.
// All methods run on the UI goroutine; background work re-enters
// through schedule.
type Navigator struct {
	browser     *files.Browser
	engine      Engine
	preview     Previewer
	gitScan     func(ctx context.Context, dir string) (*gitutils.Status, error)
	schedule    func(func())
	render      func()
	quit        func()
	onDirSet    func(dir, fileName string)
	onHiddenSet func(show bool)
	log         *logrus.Entry

	mode         Mode
	previewState preview.State
	notification string
	gitStatus    *gitutils.Status
	paneCols     int
	paneRows     int

	// pending transfer context for the overwrite prompt
	lastTransfer *ConfirmOverwrite
}

type NavigatorConfig struct {
	Browser     *files.Browser
	Engine      Engine
	Preview     Previewer
	GitScan     func(ctx context.Context, dir string) (*gitutils.Status, error)
	Schedule    func(func())
	Render      func()
	Quit        func()
	OnDirSet    func(dir, fileName string)
	OnHiddenSet func(show bool)
}

func NewNavigator(cfg NavigatorConfig) *Navigator {
	nav := &Navigator{
		browser:     cfg.Browser,
		engine:      cfg.Engine,
		preview:     cfg.Preview,
		gitScan:     cfg.GitScan,
		schedule:    cfg.Schedule,
		render:      cfg.Render,
		quit:        cfg.Quit,
		onDirSet:    cfg.OnDirSet,
		onHiddenSet: cfg.OnHiddenSet,
		log:         logrus.WithField("component", "navigator"),
		mode:        Normal{},
		paneCols:    40,
		paneRows:    20,
	}
	if nav.schedule == nil {
		nav.schedule = func(f func()) { f() }
	}
	if nav.render == nil {
		nav.render = func() {}
	}
	return nav
}

func (nav *Navigator) Mode() Mode                   { return nav.mode }
func (nav *Navigator) Notification() string         { return nav.notification }
func (nav *Navigator) Preview() preview.State       { return nav.previewState }
func (nav *Navigator) Browser() *files.Browser      { return nav.browser }
func (nav *Navigator) GitStatus() *gitutils.Status  { return nav.gitStatus }
func (nav *Navigator) SetPaneSize(cols, rows int) {
	nav.paneCols = cols
	nav.paneRows = rows
}

// Start loads dir and positions the cursor on fileName when non-empty.
func (nav *Navigator) Start(dir, fileName string) error {
	if err := nav.browser.Load(context.Background(), dir); err != nil {
		return err
	}
	if fileName != "" {
		nav.browser.Listing().SetCursorByName(fileName)
	}
	nav.afterNavigation()
	return nil
}

// HandleKey dispatches one key event to the active mode. It returns
// true when the event was consumed.
func (nav *Navigator) HandleKey(ev *tcell.EventKey) bool {
	switch mode := nav.mode.(type) {
	case Normal:
		return nav.handleNormal(ev)
	case Filtering:
		return nav.handleFiltering(mode, ev)
	case AddressBar:
		return nav.handleAddressBar(mode, ev)
	case Renaming:
		return nav.handleRenaming(mode, ev)
	case CreatingFile:
		return nav.handleCreatingFile(mode, ev)
	case CreatingDirectory:
		return nav.handleCreatingDirectory(mode, ev)
	case ConfirmDelete:
		return nav.handleConfirmDelete(mode, ev)
	case ConfirmOverwrite:
		return nav.handleConfirmOverwrite(mode, ev)
	case Moving:
		return nav.handleMoving(mode, ev)
	default:
		return false
	}
}

func (nav *Navigator) handleNormal(ev *tcell.EventKey) bool {
	nav.notification = ""
	switch ev.Key() {
	case tcell.KeyDown:
		return nav.moveCursor(1)
	case tcell.KeyUp:
		return nav.moveCursor(-1)
	case tcell.KeyEnter:
		return nav.openSelected()
	case tcell.KeyDelete:
		return nav.askDelete()
	case tcell.KeyRune:
	default:
		return false
	}
	switch ev.Rune() {
	case 'j':
		return nav.moveCursor(1)
	case 'k':
		return nav.moveCursor(-1)
	case 'u':
		nav.goUp()
	case 'd':
		return nav.askDelete()
	case '/':
		nav.mode = AddressBar{Input: nav.browser.Dir()}
	case 'f':
		nav.mode = Filtering{Input: nav.browser.Listing().Filter().Pattern}
	case 'n':
		nav.mode = CreatingFile{}
	case '+':
		nav.mode = CreatingDirectory{}
	case 'r':
		entry, ok := nav.currentEntry()
		if !ok {
			return true
		}
		nav.mode = Renaming{Target: entry, Input: entry.Name}
	case 'c':
		if entry, ok := nav.currentEntry(); ok {
			nav.engine.Copy([]files.Entry{entry})
			nav.notification = "copied " + entry.Name
		}
	case 'x':
		if entry, ok := nav.currentEntry(); ok {
			nav.engine.Cut([]files.Entry{entry})
			nav.notification = "cut " + entry.Name
		}
	case 'p':
		nav.paste()
	case 'o':
		nav.openExternal()
	case 'm':
		if entry, ok := nav.currentEntry(); ok {
			nav.mode = Moving{Targets: []files.Entry{entry}, OriginDir: nav.browser.Dir()}
		}
	case 'H':
		nav.toggleHidden()
	case 'q':
		if nav.quit != nil {
			nav.quit()
		}
	default:
		return false
	}
	return true
}

func (nav *Navigator) handleFiltering(mode Filtering, ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyRune:
		mode.Input += string(ev.Rune())
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		mode.Input = trimLastRune(mode.Input)
	case tcell.KeyEnter:
		nav.toNormal()
		return true
	case tcell.KeyEscape:
		nav.browser.ApplyFilter("")
		nav.toNormal()
		return true
	default:
		return false
	}
	nav.mode = mode
	nav.browser.ApplyFilter(mode.Input)
	nav.refreshPreview()
	return true
}

func (nav *Navigator) handleAddressBar(mode AddressBar, ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyRune:
		mode.Input += string(ev.Rune())
		nav.mode = mode
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		mode.Input = trimLastRune(mode.Input)
		nav.mode = mode
	case tcell.KeyEnter:
		if err := nav.browser.Load(context.Background(), mode.Input); err != nil {
			nav.notification = err.Error()
			return true
		}
		nav.afterNavigation()
		nav.toNormal()
	case tcell.KeyEscape:
		nav.toNormal()
	default:
		return false
	}
	return true
}

func (nav *Navigator) handleRenaming(mode Renaming, ev *tcell.EventKey) bool {
	commit := func() {
		if _, err := nav.engine.Rename(mode.Target, mode.Input); err != nil {
			// Keep the input so the user can correct it.
			nav.notification = err.Error()
			return
		}
		nav.toNormal()
	}
	return nav.handleTextInput(ev, mode.Input, func(input string) {
		mode.Input = input
		nav.mode = mode
	}, commit)
}

func (nav *Navigator) handleCreatingFile(mode CreatingFile, ev *tcell.EventKey) bool {
	commit := func() {
		if _, err := nav.engine.CreateFile(nav.browser.Dir(), mode.Input, false); err != nil {
			nav.notification = err.Error()
			return
		}
		nav.toNormal()
	}
	return nav.handleTextInput(ev, mode.Input, func(input string) {
		mode.Input = input
		nav.mode = mode
	}, commit)
}

func (nav *Navigator) handleCreatingDirectory(mode CreatingDirectory, ev *tcell.EventKey) bool {
	commit := func() {
		if _, err := nav.engine.CreateDir(nav.browser.Dir(), mode.Input, false); err != nil {
			nav.notification = err.Error()
			return
		}
		nav.toNormal()
	}
	return nav.handleTextInput(ev, mode.Input, func(input string) {
		mode.Input = input
		nav.mode = mode
	}, commit)
}

// handleTextInput is the shared rune/backspace/commit/cancel loop of
// the name-accumulating modes.
func (nav *Navigator) handleTextInput(ev *tcell.EventKey, input string, update func(string), commit func()) bool {
	switch ev.Key() {
	case tcell.KeyRune:
		update(input + string(ev.Rune()))
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		update(trimLastRune(input))
	case tcell.KeyEnter:
		commit()
	case tcell.KeyEscape:
		nav.toNormal()
	default:
		return false
	}
	return true
}

func (nav *Navigator) handleConfirmDelete(mode ConfirmDelete, ev *tcell.EventKey) bool {
	if ev.Key() == tcell.KeyRune && ev.Rune() == 'y' {
		nav.engine.Delete(mode.Targets)
		nav.notification = "deleting..."
	}
	nav.toNormal()
	return true
}

func (nav *Navigator) handleConfirmOverwrite(mode ConfirmOverwrite, ev *tcell.EventKey) bool {
	if ev.Key() == tcell.KeyRune && ev.Rune() == 'y' {
		if mode.FromClipboard {
			// The clipboard still holds the entries: a cut clipboard
			// is cleared only once every entry moved.
			if _, err := nav.engine.Paste(mode.DestDir, true); err != nil {
				nav.notification = err.Error()
			}
		} else {
			nav.engine.Move(mode.Entries, mode.DestDir, true)
		}
	}
	nav.lastTransfer = nil
	nav.toNormal()
	return true
}

func (nav *Navigator) handleMoving(mode Moving, ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyDown:
		return nav.moveCursor(1)
	case tcell.KeyUp:
		return nav.moveCursor(-1)
	case tcell.KeyEnter:
		nav.enter()
		return true
	case tcell.KeyEscape:
		if err := nav.browser.Load(context.Background(), mode.OriginDir); err != nil {
			nav.notification = err.Error()
		}
		nav.afterNavigation()
		nav.toNormal()
		return true
	case tcell.KeyRune:
	default:
		return false
	}
	switch ev.Rune() {
	case 'j':
		return nav.moveCursor(1)
	case 'k':
		return nav.moveCursor(-1)
	case 'u':
		nav.goUp()
	case 'm', 'y':
		dest := nav.browser.Dir()
		nav.engine.Move(mode.Targets, dest, false)
		nav.lastTransfer = &ConfirmOverwrite{Entries: mode.Targets, DestDir: dest}
		nav.notification = "moving..."
		nav.toNormal()
	default:
		return false
	}
	return true
}

func (nav *Navigator) moveCursor(delta int) bool {
	nav.browser.Listing().MoveCursor(delta)
	nav.refreshPreview()
	return true
}

func (nav *Navigator) openSelected() bool {
	nav.enter()
	return true
}

func (nav *Navigator) enter() {
	entered, err := nav.browser.Enter(context.Background())
	if err != nil {
		nav.notification = err.Error()
		return
	}
	if entered {
		nav.afterNavigation()
	}
}

func (nav *Navigator) goUp() {
	if err := nav.browser.GoUp(context.Background()); err != nil {
		nav.notification = err.Error()
		return
	}
	nav.afterNavigation()
}

func (nav *Navigator) toggleHidden() {
	nav.browser.ToggleHidden()
	if nav.onHiddenSet != nil {
		nav.onHiddenSet(nav.browser.ShowHidden())
	}
	nav.refreshPreview()
}

// openExternal hands the selected file to the desktop's default
// application; directories are entered with Enter instead.
func (nav *Navigator) openExternal() {
	entry, ok := nav.currentEntry()
	if !ok || entry.Kind == files.KindDirectory {
		return
	}
	if err := openWithDefaultApp(entry.Path); err != nil {
		nav.notification = err.Error()
	}
}

func (nav *Navigator) askDelete() bool {
	entry, ok := nav.currentEntry()
	if !ok {
		return true
	}
	nav.mode = ConfirmDelete{Targets: []files.Entry{entry}}
	return true
}

func (nav *Navigator) paste() {
	dest := nav.browser.Dir()
	entries := nav.engine.Clipboard().Entries()
	if _, err := nav.engine.Paste(dest, false); err != nil {
		nav.notification = err.Error()
		return
	}
	nav.lastTransfer = &ConfirmOverwrite{Entries: entries, DestDir: dest, FromClipboard: true}
	nav.notification = "pasting..."
}

// OnJobDone runs on the UI goroutine after a job finished. It reloads
// the listing when an affected directory is on screen, surfaces the
// outcome and turns a conflict failure into the overwrite prompt.
func (nav *Navigator) OnJobDone(job *fsops.Job) {
	if job.Err() != nil {
		if nav.conflictOnly(job) && nav.lastTransfer != nil {
			nav.mode = *nav.lastTransfer
			nav.notification = "destination exists, overwrite? (y/n)"
		} else {
			nav.notification = job.Err().Error()
		}
	} else {
		nav.notification = string(job.Kind) + " done"
		nav.lastTransfer = nil
	}

	current := nav.browser.Dir()
	for _, dir := range job.AffectedDirs() {
		if dir == current {
			if err := nav.browser.Reload(context.Background()); err != nil {
				nav.log.WithError(err).Warn("reload after job failed")
			}
			break
		}
	}
	nav.refreshPreview()
	nav.render()
}

// OnDirChanged runs on the UI goroutine after a watcher event for dir.
func (nav *Navigator) OnDirChanged(dir string) {
	if dir != nav.browser.Dir() {
		return
	}
	if err := nav.browser.Reload(context.Background()); err != nil {
		nav.log.WithError(err).Warn("reload after change notification failed")
	}
	nav.refreshPreview()
	nav.render()
}

// OnPreview runs on the UI goroutine when the pipeline publishes an
// asynchronous result.
func (nav *Navigator) OnPreview(state preview.State) {
	if state.RequestID < nav.previewState.RequestID {
		return
	}
	nav.previewState = state
	nav.render()
}

func (nav *Navigator) conflictOnly(job *fsops.Job) bool {
	failed := 0
	for _, outcome := range job.Outcomes() {
		if outcome.Err == nil {
			continue
		}
		if files.KindOf(outcome.Err) != files.ErrConflict {
			return false
		}
		failed++
	}
	return failed > 0
}

func (nav *Navigator) currentEntry() (files.Entry, bool) {
	return nav.browser.Listing().Current()
}

// toNormal is the single exit point of every mode; reaching Normal
// always refreshes the preview for the current selection.
func (nav *Navigator) toNormal() {
	nav.mode = Normal{}
	nav.refreshPreview()
}

func (nav *Navigator) refreshPreview() {
	entry, ok := nav.currentEntry()
	if !ok {
		nav.previewState = preview.State{Kind: preview.KindNotApplicable, Reason: "empty"}
		return
	}
	nav.previewState = nav.preview.Request(entry, nav.paneCols, nav.paneRows)
}

// afterNavigation refreshes everything that depends on the current
// directory: preview, git status, session state.
func (nav *Navigator) afterNavigation() {
	nav.refreshPreview()
	if nav.onDirSet != nil {
		name := ""
		if entry, ok := nav.currentEntry(); ok {
			name = entry.Name
		}
		nav.onDirSet(nav.browser.Dir(), name)
	}
	nav.scanGit()
}

func (nav *Navigator) scanGit() {
	if nav.gitScan == nil {
		return
	}
	dir := nav.browser.Dir()
	nav.gitStatus = nil
	go func() {
		status, err := nav.gitScan(context.Background(), dir)
		if err != nil {
			nav.log.WithError(err).WithField("dir", dir).Debug("git scan failed")
			return
		}
		nav.schedule(func() {
			if nav.browser.Dir() != dir {
				return
			}
			nav.gitStatus = status
			nav.render()
		})
	}()
}

func trimLastRune(s string) string {
	runes := []rune(s)
	if len(runes) == 0 {
		return s
	}
	return string(runes[:len(runes)-1])
}
