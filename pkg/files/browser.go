package files

import (
	"context"
	"path"
)

// Browser owns the single current Listing and the per-directory cursor
// memory used to restore positions when re-entering a directory.
//
// It is written from the UI event goroutine only; background work
// (operations, watcher) reaches it through queued callbacks.
type Browser struct {
	store      Store
	listing    *Listing
	showHidden bool
	cursorMemo map[string]string
}

func NewBrowser(store Store) *Browser {
	return &Browser{
		store:      store,
		cursorMemo: make(map[string]string),
	}
}

func (b *Browser) Store() Store {
	return b.store
}

// Listing returns the current listing, nil before the first Load.
func (b *Browser) Listing() *Listing {
	return b.listing
}

func (b *Browser) Dir() string {
	if b.listing == nil {
		return ""
	}
	return b.listing.Dir()
}

// Load replaces the current listing with dirPath's content. The
// previous listing is kept untouched when the read fails so the caller
// can surface the error without losing state.
func (b *Browser) Load(ctx context.Context, dirPath string) error {
	entries, err := b.store.ReadDir(ctx, dirPath)
	if err != nil {
		return err
	}
	b.rememberCursor()
	b.listing = NewListing(dirPath, entries, b.showHidden)
	if name, ok := b.cursorMemo[dirPath]; ok {
		b.listing.SetCursorByName(name)
	}
	return nil
}

// Reload re-reads the current directory, preserving cursor position,
// hidden-visibility and filter.
func (b *Browser) Reload(ctx context.Context) error {
	if b.listing == nil {
		return nil
	}
	current, _ := b.listing.Current()
	filter := b.listing.Filter()
	entries, err := b.store.ReadDir(ctx, b.listing.Dir())
	if err != nil {
		return err
	}
	b.listing = NewListing(b.listing.Dir(), entries, b.showHidden)
	b.listing.SetFilter(filter)
	if current.Name != "" {
		b.listing.SetCursorByName(current.Name)
	}
	return nil
}

// Enter descends into the entry under the cursor when it is a
// directory; entered reports whether navigation happened.
func (b *Browser) Enter(ctx context.Context) (entered bool, err error) {
	if b.listing == nil {
		return false, nil
	}
	current, ok := b.listing.Current()
	if !ok || !current.IsDir() {
		return false, nil
	}
	if err = b.Load(ctx, current.Path); err != nil {
		return false, err
	}
	return true, nil
}

// GoUp navigates to the parent directory and puts the cursor on the
// directory we just left.
func (b *Browser) GoUp(ctx context.Context) error {
	if b.listing == nil {
		return nil
	}
	dir := b.listing.Dir()
	parent := path.Dir(dir)
	if parent == dir {
		return nil
	}
	if err := b.Load(ctx, parent); err != nil {
		return err
	}
	b.listing.SetCursorByName(path.Base(dir))
	return nil
}

func (b *Browser) ToggleHidden() {
	b.showHidden = !b.showHidden
	if b.listing != nil {
		b.listing.SetShowHidden(b.showHidden)
	}
}

func (b *Browser) ShowHidden() bool {
	return b.showHidden
}

func (b *Browser) ApplyFilter(pattern string) {
	if b.listing != nil {
		b.listing.SetFilter(Filter{Pattern: pattern})
	}
}

func (b *Browser) rememberCursor() {
	if b.listing == nil {
		return
	}
	if current, ok := b.listing.Current(); ok {
		b.cursorMemo[b.listing.Dir()] = current.Name
	}
}
