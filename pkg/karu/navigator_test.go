package karu

import (
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karufm/karu/pkg/files"
	"github.com/karufm/karu/pkg/files/osfile"
	"github.com/karufm/karu/pkg/fsops"
	"github.com/karufm/karu/pkg/preview"
)

type fakePreviewer struct {
	mu       sync.Mutex
	requests []string
}

func (f *fakePreviewer) Request(entry files.Entry, paneCols, paneRows int) preview.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, entry.Path)
	return preview.State{Kind: preview.KindLoading, Path: entry.Path, RequestID: uint64(len(f.requests))}
}

func (f *fakePreviewer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

type fakeBin struct {
	mu      sync.Mutex
	trashed []string
}

func (b *fakeBin) Trash(path string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.trashed = append(b.trashed, path)
	return os.RemoveAll(path)
}

type navFixture struct {
	nav      *Navigator
	previews *fakePreviewer
	bin      *fakeBin
	jobs     chan *fsops.Job
	dir      string
}

// drainJob mimics the UI loop: pull the finished job and hand it to
// the navigator on the test goroutine.
func (fx *navFixture) drainJob(t *testing.T) *fsops.Job {
	t.Helper()
	select {
	case job := <-fx.jobs:
		job.Wait()
		fx.nav.OnJobDone(job)
		return job
	case <-time.After(2 * time.Second):
		t.Fatal("no job finished")
		return nil
	}
}

func newNavFixture(t *testing.T) *navFixture {
	t.Helper()
	fx := &navFixture{
		previews: &fakePreviewer{},
		bin:      &fakeBin{},
		jobs:     make(chan *fsops.Job, 16),
		dir:      t.TempDir(),
	}
	store := osfile.NewStore()
	engine := fsops.NewEngine(store, fx.bin, func(job *fsops.Job) {
		fx.jobs <- job
	})
	t.Cleanup(engine.Close)
	fx.nav = NewNavigator(NavigatorConfig{
		Browser: files.NewBrowser(store),
		Engine:  engine,
		Preview: fx.previews,
	})
	return fx
}

func (fx *navFixture) start(t *testing.T) {
	t.Helper()
	require.NoError(t, fx.nav.Start(fx.dir, ""))
}

func key(r rune) *tcell.EventKey {
	return tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone)
}

func special(k tcell.Key) *tcell.EventKey {
	return tcell.NewEventKey(k, 0, tcell.ModNone)
}

func typeText(nav *Navigator, text string) {
	for _, r := range text {
		nav.HandleKey(key(r))
	}
}

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(name), 0644))
	}
}

func currentName(t *testing.T, nav *Navigator) string {
	t.Helper()
	entry, ok := nav.Browser().Listing().Current()
	require.True(t, ok)
	return entry.Name
}

func TestNavigator_CursorAndPreview(t *testing.T) {
	fx := newNavFixture(t)
	writeFiles(t, fx.dir, "a.txt", "b.txt", "c.txt")
	fx.start(t)

	assert.Equal(t, "a.txt", currentName(t, fx.nav))
	before := fx.previews.count()

	fx.nav.HandleKey(key('j'))
	assert.Equal(t, "b.txt", currentName(t, fx.nav))
	fx.nav.HandleKey(special(tcell.KeyDown))
	assert.Equal(t, "c.txt", currentName(t, fx.nav))
	fx.nav.HandleKey(key('k'))
	assert.Equal(t, "b.txt", currentName(t, fx.nav))

	assert.Equal(t, before+3, fx.previews.count(), "every cursor move must refresh the preview")
}

func TestNavigator_EnterAndGoUp(t *testing.T) {
	fx := newNavFixture(t)
	require.NoError(t, os.Mkdir(filepath.Join(fx.dir, "sub"), 0755))
	writeFiles(t, filepath.Join(fx.dir, "sub"), "inner.txt")
	fx.start(t)

	fx.nav.HandleKey(special(tcell.KeyEnter))
	assert.Equal(t, filepath.Join(fx.dir, "sub"), fx.nav.Browser().Dir())
	assert.Equal(t, "inner.txt", currentName(t, fx.nav))

	fx.nav.HandleKey(key('u'))
	assert.Equal(t, fx.dir, fx.nav.Browser().Dir())
	assert.Equal(t, "sub", currentName(t, fx.nav), "cursor must land on the directory we left")
}

func TestNavigator_FilterMode(t *testing.T) {
	fx := newNavFixture(t)
	writeFiles(t, fx.dir, "alpha.txt", "beta.txt", "beam.txt")
	fx.start(t)

	fx.nav.HandleKey(key('f'))
	assert.IsType(t, Filtering{}, fx.nav.Mode())

	typeText(fx.nav, "be")
	visible := fx.nav.Browser().Listing().Visible()
	require.Len(t, visible, 2)

	t.Run("enter_commits_and_filter_persists", func(t *testing.T) {
		fx.nav.HandleKey(special(tcell.KeyEnter))
		assert.IsType(t, Normal{}, fx.nav.Mode())
		assert.Len(t, fx.nav.Browser().Listing().Visible(), 2)
	})

	t.Run("esc_clears_filter", func(t *testing.T) {
		fx.nav.HandleKey(key('f'))
		fx.nav.HandleKey(special(tcell.KeyEscape))
		assert.IsType(t, Normal{}, fx.nav.Mode())
		assert.Len(t, fx.nav.Browser().Listing().Visible(), 3)
	})
}

func TestNavigator_AddressBar(t *testing.T) {
	fx := newNavFixture(t)
	other := t.TempDir()
	writeFiles(t, other, "there.txt")
	fx.start(t)

	fx.nav.HandleKey(key('/'))
	mode, ok := fx.nav.Mode().(AddressBar)
	require.True(t, ok)
	assert.Equal(t, fx.dir, mode.Input, "address bar starts from the current path")

	for range mode.Input {
		fx.nav.HandleKey(special(tcell.KeyBackspace2))
	}
	typeText(fx.nav, other)
	fx.nav.HandleKey(special(tcell.KeyEnter))

	assert.IsType(t, Normal{}, fx.nav.Mode())
	assert.Equal(t, other, fx.nav.Browser().Dir())

	t.Run("load_failure_stays_in_mode", func(t *testing.T) {
		fx.nav.HandleKey(key('/'))
		for range other {
			fx.nav.HandleKey(special(tcell.KeyBackspace2))
		}
		typeText(fx.nav, "/nonexistent-path-for-sure")
		fx.nav.HandleKey(special(tcell.KeyEnter))
		assert.IsType(t, AddressBar{}, fx.nav.Mode())
		assert.NotEmpty(t, fx.nav.Notification())
		assert.Equal(t, other, fx.nav.Browser().Dir())
	})
}

func TestNavigator_RenameFlow(t *testing.T) {
	fx := newNavFixture(t)
	writeFiles(t, fx.dir, "a.txt", "b.txt")
	fx.start(t)

	fx.nav.HandleKey(key('r'))
	mode, ok := fx.nav.Mode().(Renaming)
	require.True(t, ok)
	assert.Equal(t, "a.txt", mode.Input, "rename input is seeded with the current name")

	t.Run("collision_keeps_mode_and_input", func(t *testing.T) {
		for range "a.txt" {
			fx.nav.HandleKey(special(tcell.KeyBackspace2))
		}
		typeText(fx.nav, "b.txt")
		fx.nav.HandleKey(special(tcell.KeyEnter))

		mode, ok := fx.nav.Mode().(Renaming)
		require.True(t, ok, "failed commit must re-enter the mode")
		assert.Equal(t, "b.txt", mode.Input, "input survives a failed commit")
		assert.NotEmpty(t, fx.nav.Notification())
	})

	t.Run("success", func(t *testing.T) {
		for range "b.txt" {
			fx.nav.HandleKey(special(tcell.KeyBackspace2))
		}
		typeText(fx.nav, "renamed.txt")
		fx.nav.HandleKey(special(tcell.KeyEnter))
		assert.IsType(t, Normal{}, fx.nav.Mode())

		fx.drainJob(t)
		_, err := os.Stat(filepath.Join(fx.dir, "renamed.txt"))
		assert.NoError(t, err)
	})
}

func TestNavigator_CreateFileAndDirectory(t *testing.T) {
	fx := newNavFixture(t)
	fx.start(t)

	fx.nav.HandleKey(key('n'))
	typeText(fx.nav, "note.md")
	fx.nav.HandleKey(special(tcell.KeyEnter))
	job := fx.drainJob(t)
	assert.Equal(t, fsops.StatusDone, job.Status())
	_, err := os.Stat(filepath.Join(fx.dir, "note.md"))
	assert.NoError(t, err)

	fx.nav.HandleKey(key('+'))
	typeText(fx.nav, "docs")
	fx.nav.HandleKey(special(tcell.KeyEnter))
	fx.drainJob(t)
	info, err := os.Stat(filepath.Join(fx.dir, "docs"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestNavigator_DeleteConfirmation(t *testing.T) {
	fx := newNavFixture(t)
	writeFiles(t, fx.dir, "victim.txt")
	fx.start(t)

	fx.nav.HandleKey(key('d'))
	assert.IsType(t, ConfirmDelete{}, fx.nav.Mode())

	t.Run("any_other_key_cancels", func(t *testing.T) {
		fx.nav.HandleKey(key('x'))
		assert.IsType(t, Normal{}, fx.nav.Mode())
		assert.Empty(t, fx.bin.trashed)
	})

	t.Run("y_confirms", func(t *testing.T) {
		fx.nav.HandleKey(key('d'))
		fx.nav.HandleKey(key('y'))
		fx.drainJob(t)
		assert.Equal(t, []string{filepath.Join(fx.dir, "victim.txt")}, fx.bin.trashed)
		_, err := os.Stat(filepath.Join(fx.dir, "victim.txt"))
		assert.True(t, os.IsNotExist(err))
	})
}

func TestNavigator_PasteConflictPrompt(t *testing.T) {
	fx := newNavFixture(t)
	writeFiles(t, fx.dir, "same.txt")
	sub := filepath.Join(fx.dir, "sub")
	require.NoError(t, os.Mkdir(sub, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "same.txt"), []byte("old"), 0644))
	fx.start(t)

	fx.nav.Browser().Listing().SetCursorByName("same.txt")
	fx.nav.HandleKey(key('c'))
	fx.nav.Browser().Listing().SetCursorByName("sub")
	fx.nav.HandleKey(special(tcell.KeyEnter))

	fx.nav.HandleKey(key('p'))
	job := fx.drainJob(t)
	require.Equal(t, fsops.StatusFailed, job.Status())
	assert.IsType(t, ConfirmOverwrite{}, fx.nav.Mode(), "a pure conflict failure becomes the overwrite prompt")

	data, err := os.ReadFile(filepath.Join(sub, "same.txt"))
	require.NoError(t, err)
	assert.Equal(t, []byte("old"), data, "nothing is overwritten before confirmation")

	fx.nav.HandleKey(key('y'))
	fx.drainJob(t)
	data, err = os.ReadFile(filepath.Join(sub, "same.txt"))
	require.NoError(t, err)
	assert.Equal(t, []byte("same.txt"), data, "confirmed overwrite replaces the destination")
}

func TestNavigator_CutPasteOverwriteConsumesClipboard(t *testing.T) {
	fx := newNavFixture(t)
	writeFiles(t, fx.dir, "same.txt")
	sub := filepath.Join(fx.dir, "sub")
	require.NoError(t, os.Mkdir(sub, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "same.txt"), []byte("old"), 0644))
	fx.start(t)

	fx.nav.Browser().Listing().SetCursorByName("same.txt")
	fx.nav.HandleKey(key('x'))
	fx.nav.Browser().Listing().SetCursorByName("sub")
	fx.nav.HandleKey(special(tcell.KeyEnter))

	fx.nav.HandleKey(key('p'))
	fx.drainJob(t)
	require.IsType(t, ConfirmOverwrite{}, fx.nav.Mode())

	fx.nav.HandleKey(key('y'))
	job := fx.drainJob(t)
	require.Equal(t, fsops.StatusDone, job.Status())

	data, err := os.ReadFile(filepath.Join(sub, "same.txt"))
	require.NoError(t, err)
	assert.Equal(t, []byte("same.txt"), data)
	_, err = os.Stat(filepath.Join(fx.dir, "same.txt"))
	assert.True(t, os.IsNotExist(err), "the source must be gone after the confirmed move")
	assert.True(t, fx.nav.engine.Clipboard().IsEmpty(), "a completed cut-paste must leave the clipboard empty")
	vm := fx.nav.Snapshot()
	require.Len(t, vm.Rows, 1)
	assert.False(t, vm.Rows[0].CutPending)
}

func TestNavigator_MovingMode(t *testing.T) {
	fx := newNavFixture(t)
	writeFiles(t, fx.dir, "moved.txt")
	dest := filepath.Join(fx.dir, "dest")
	require.NoError(t, os.Mkdir(dest, 0755))
	fx.start(t)

	fx.nav.Browser().Listing().SetCursorByName("moved.txt")
	fx.nav.HandleKey(key('m'))
	assert.IsType(t, Moving{}, fx.nav.Mode())

	fx.nav.Browser().Listing().SetCursorByName("dest")
	fx.nav.HandleKey(special(tcell.KeyEnter))
	assert.Equal(t, dest, fx.nav.Browser().Dir())

	fx.nav.HandleKey(key('m'))
	assert.IsType(t, Normal{}, fx.nav.Mode())
	fx.drainJob(t)

	_, err := os.Stat(filepath.Join(dest, "moved.txt"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(fx.dir, "moved.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestNavigator_MovingEscRestoresOrigin(t *testing.T) {
	fx := newNavFixture(t)
	writeFiles(t, fx.dir, "kept.txt")
	dest := filepath.Join(fx.dir, "dest")
	require.NoError(t, os.Mkdir(dest, 0755))
	fx.start(t)

	fx.nav.Browser().Listing().SetCursorByName("kept.txt")
	fx.nav.HandleKey(key('m'))
	fx.nav.Browser().Listing().SetCursorByName("dest")
	fx.nav.HandleKey(special(tcell.KeyEnter))
	fx.nav.HandleKey(special(tcell.KeyEscape))

	assert.IsType(t, Normal{}, fx.nav.Mode())
	assert.Equal(t, fx.dir, fx.nav.Browser().Dir())
	_, err := os.Stat(filepath.Join(fx.dir, "kept.txt"))
	assert.NoError(t, err)
}

func TestNavigator_ToggleHidden(t *testing.T) {
	fx := newNavFixture(t)
	writeFiles(t, fx.dir, "shown.txt", ".hidden")
	fx.start(t)

	var persisted []bool
	fx.nav.onHiddenSet = func(show bool) {
		persisted = append(persisted, show)
	}

	assert.Len(t, fx.nav.Browser().Listing().Visible(), 1)
	fx.nav.HandleKey(key('H'))
	assert.Len(t, fx.nav.Browser().Listing().Visible(), 2)
	fx.nav.HandleKey(key('H'))
	assert.Len(t, fx.nav.Browser().Listing().Visible(), 1)

	assert.Equal(t, []bool{true, false}, persisted, "every toggle must be handed to the session state")
}

func TestNavigator_OpenWithDefaultApp(t *testing.T) {
	fx := newNavFixture(t)
	writeFiles(t, fx.dir, "doc.pdf")
	require.NoError(t, os.Mkdir(filepath.Join(fx.dir, "sub"), 0755))
	fx.start(t)

	var launched []string
	orig := startCommand
	startCommand = func(cmd *exec.Cmd) error {
		launched = append(launched, cmd.Args[len(cmd.Args)-1])
		return nil
	}
	t.Cleanup(func() { startCommand = orig })

	fx.nav.Browser().Listing().SetCursorByName("doc.pdf")
	fx.nav.HandleKey(key('o'))
	assert.Equal(t, []string{filepath.Join(fx.dir, "doc.pdf")}, launched)

	fx.nav.Browser().Listing().SetCursorByName("sub")
	fx.nav.HandleKey(key('o'))
	assert.Len(t, launched, 1, "directories are entered, never handed to an external opener")
}

func TestNavigator_EscInNormalIsNoOp(t *testing.T) {
	fx := newNavFixture(t)
	writeFiles(t, fx.dir, "a.txt")
	fx.start(t)

	consumed := fx.nav.HandleKey(special(tcell.KeyEscape))
	assert.False(t, consumed)
	assert.IsType(t, Normal{}, fx.nav.Mode())
}

func TestNavigator_CutMarksPending(t *testing.T) {
	fx := newNavFixture(t)
	writeFiles(t, fx.dir, "a.txt")
	fx.start(t)

	fx.nav.HandleKey(key('x'))
	vm := fx.nav.Snapshot()
	require.Len(t, vm.Rows, 1)
	assert.True(t, vm.Rows[0].CutPending)
}

func TestNavigator_JobCompletionReloadsListing(t *testing.T) {
	fx := newNavFixture(t)
	fx.start(t)

	fx.nav.HandleKey(key('n'))
	typeText(fx.nav, "fresh.txt")
	fx.nav.HandleKey(special(tcell.KeyEnter))
	fx.drainJob(t)

	names := []string{}
	for _, entry := range fx.nav.Browser().Listing().Visible() {
		names = append(names, entry.Name)
	}
	assert.Contains(t, names, "fresh.txt", "completed jobs must invalidate the visible listing")
}
