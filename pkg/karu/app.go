package karu

import (
	"io"
	"os"
	"strconv"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/sirupsen/logrus"

	"github.com/karufm/karu/pkg/files"
	"github.com/karufm/karu/pkg/files/osfile"
	"github.com/karufm/karu/pkg/fsops"
	"github.com/karufm/karu/pkg/fsutils"
	"github.com/karufm/karu/pkg/gitutils"
	"github.com/karufm/karu/pkg/karu/kstate"
	"github.com/karufm/karu/pkg/preview"
	"github.com/karufm/karu/pkg/termcap"
	"github.com/karufm/karu/pkg/trash"
)

type uiApp struct {
	*tview.Application
}

func (a uiApp) QueueUpdateDraw(f func()) {
	_ = a.Application.QueueUpdateDraw(f)
}

// App binds the navigator to the tview widgets and the background
// collaborators.
type App struct {
	app uiApp
	nav *Navigator

	engine   *fsops.Engine
	pipeline *preview.Pipeline
	watcher  *files.Watcher

	table       *tview.Table
	addressView *tview.TextView
	previewView *tview.TextView
	inputView   *tview.TextView
	statusView  *tview.TextView

	graphicsOut  io.Writer
	lastGraphics uint64
	log          *logrus.Entry
}

// SetupApp wires the whole application onto app: local store, XDG
// trash, detected graphics capability and the previous session's
// directory.
func SetupApp(app *tview.Application) *App {
	a := &App{
		app:         uiApp{Application: app},
		graphicsOut: os.Stdout,
		log:         logrus.WithField("component", "app"),
	}

	store := osfile.NewStore()
	browser := files.NewBrowser(store)

	a.engine = fsops.NewEngine(store, trash.NewXDGBin(), func(job *fsops.Job) {
		a.app.QueueUpdateDraw(func() {
			a.nav.OnJobDone(job)
		})
	})

	a.pipeline = preview.NewPipeline(store, termcap.Detect(), func(state preview.State) {
		a.app.QueueUpdateDraw(func() {
			a.nav.OnPreview(state)
		})
	}, preview.DefaultOptions())

	a.nav = NewNavigator(NavigatorConfig{
		Browser:     browser,
		Engine:      a.engine,
		Preview:     a.pipeline,
		GitScan:     gitutils.Scan,
		Schedule:    a.app.QueueUpdateDraw,
		Render:      a.draw,
		Quit:        app.Stop,
		OnDirSet:    a.onDirSet,
		OnHiddenSet: kstate.SaveShowHidden,
	})

	a.createWidgets()

	state, err := kstate.GetState()
	if err != nil {
		a.log.WithError(err).Warn("session state unavailable")
		state = &kstate.State{}
	}
	if state.ShowHidden {
		browser.ToggleHidden()
	}
	startDir := state.CurrentDir
	if startDir == "" {
		startDir = fsutils.ExpandHome("~")
	}
	if err := a.nav.Start(startDir, state.CurrentFileName); err != nil {
		// Fall back to the working directory before giving up.
		if wd, wdErr := os.Getwd(); wdErr == nil {
			err = a.nav.Start(wd, "")
		}
		if err != nil {
			a.log.WithError(err).Error("cannot read initial directory")
		}
	}

	if watcher, err := files.NewWatcher(); err == nil {
		a.watcher = watcher
		go a.watchLoop()
	} else {
		a.log.WithError(err).Warn("change notifications disabled")
	}

	a.draw()
	return a
}

func (a *App) Navigator() *Navigator {
	return a.nav
}

func (a *App) Close() {
	if a.watcher != nil {
		_ = a.watcher.Close()
	}
	a.engine.Close()
}

func (a *App) createWidgets() {
	a.table = tview.NewTable()
	a.table.SetSelectable(false, false)
	a.table.SetBorder(true)

	a.addressView = tview.NewTextView().SetDynamicColors(true)
	a.previewView = tview.NewTextView().SetDynamicColors(true).SetWrap(false)
	a.previewView.SetBorder(true).SetTitle(" preview ")
	a.inputView = tview.NewTextView().SetDynamicColors(true)
	a.statusView = tview.NewTextView().SetDynamicColors(true)

	left := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(a.addressView, 1, 0, false).
		AddItem(a.table, 0, 1, true).
		AddItem(a.inputView, 1, 0, false).
		AddItem(a.statusView, 1, 0, false)

	columns := tview.NewFlex().
		AddItem(left, 0, 1, true).
		AddItem(a.previewView, 0, 1, false)

	a.table.SetInputCapture(func(ev *tcell.EventKey) *tcell.EventKey {
		if a.nav.HandleKey(ev) {
			a.draw()
			return nil
		}
		return ev
	})

	a.app.SetRoot(columns, true)
	a.app.SetFocus(a.table)
}

func (a *App) onDirSet(dir, fileName string) {
	kstate.SaveCurrentDir(dir, fileName)
	if a.watcher != nil {
		if err := a.watcher.Watch(dir); err != nil {
			a.log.WithField("dir", dir).WithError(err).Debug("watch failed")
		}
	}
}

func (a *App) watchLoop() {
	for dir := range a.watcher.Changed() {
		changedDir := dir
		a.app.QueueUpdateDraw(func() {
			a.nav.OnDirChanged(changedDir)
		})
	}
}

// draw repaints every widget from a fresh snapshot. It must run on the
// UI goroutine.
func (a *App) draw() {
	_, _, cols, rows := a.previewView.GetInnerRect()
	if cols > 0 && rows > 0 {
		a.nav.SetPaneSize(cols, rows)
	}

	vm := a.nav.Snapshot()

	a.addressView.SetText("[yellow]" + tview.Escape(vm.Dir) + "[-]")
	a.drawRows(vm)
	a.drawPreview(vm.Preview)

	a.inputView.SetText("[::b]" + vm.ModeLabel + "[-:-:-] " + tview.Escape(vm.InputLine))
	status := vm.StatusLine
	if vm.Notification != "" {
		status = "[red]" + tview.Escape(vm.Notification) + "[-]  " + status
	}
	a.statusView.SetText(status)
}

func (a *App) drawRows(vm ViewModel) {
	a.table.Clear()
	for i, row := range vm.Rows {
		name := tview.Escape(row.Name)
		switch {
		case row.Selected:
			name = "[black:white]" + name + "[-:-]"
		case row.CutPending:
			name = "[gray::s]" + name + "[-::-]"
		case row.Kind == files.KindDirectory:
			name = "[blue]" + name + "[-]"
		}
		marker := " "
		if row.GitMarker != 0 {
			marker = "[yellow]" + string(row.GitMarker) + "[-]"
		}
		a.table.SetCell(i, 0, tview.NewTableCell(marker))
		a.table.SetCell(i, 1, tview.NewTableCell(name).SetExpansion(1))
		a.table.SetCell(i, 2, tview.NewTableCell(row.Size).SetAlign(tview.AlignRight))
	}
	if len(vm.Rows) > 0 {
		a.table.SetOffset(scrollOffset(vm.Cursor, len(vm.Rows), a.tableHeight()), 0)
	}
}

func (a *App) tableHeight() int {
	_, _, _, height := a.table.GetInnerRect()
	return height
}

func scrollOffset(cursor, total, height int) int {
	if height <= 0 || total <= height {
		return 0
	}
	offset := cursor - height/2
	if offset < 0 {
		offset = 0
	}
	if offset > total-height {
		offset = total - height
	}
	return offset
}

func (a *App) drawPreview(state preview.State) {
	switch state.Kind {
	case preview.KindText:
		text := ""
		for _, line := range state.Lines {
			text += line + "\n"
		}
		if state.Truncated {
			text += "[gray]...[-]"
		}
		a.previewView.SetText(text)
	case preview.KindImage:
		a.previewView.SetText("[gray]" + state.Format + " " + strconv.Itoa(state.Width) + "x" + strconv.Itoa(state.Height) + "[-]")
		if state.RequestID != a.lastGraphics {
			a.lastGraphics = state.RequestID
			if _, err := a.graphicsOut.Write(state.Payload); err != nil {
				a.log.WithError(err).Debug("graphics write failed")
			}
		}
	case preview.KindLoading:
		a.previewView.SetText("[gray]loading...[-]")
	case preview.KindError:
		a.previewView.SetText("[red]" + tview.Escape(state.Reason) + "[-]")
	default:
		reason := state.Reason
		if reason == "" {
			reason = "no preview"
		}
		a.previewView.SetText("[gray]" + tview.Escape(reason) + "[-]")
	}
}
