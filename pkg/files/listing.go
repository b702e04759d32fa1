package files

// Listing is the ordered view of one directory: the sorted entries the
// store returned plus a cursor over the visible (hidden-aware, filtered)
// subsequence. The cursor always points at a visible entry unless the
// visible set is empty.
type Listing struct {
	dir        string
	entries    []Entry
	visible    []int
	cursor     int
	showHidden bool
	filter     Filter
}

func NewListing(dir string, entries []Entry, showHidden bool) *Listing {
	l := &Listing{
		dir:        dir,
		entries:    SortEntries(entries),
		showHidden: showHidden,
	}
	l.rebuildVisible()
	return l
}

func (l *Listing) Dir() string {
	return l.dir
}

// Len reports the number of visible entries.
func (l *Listing) Len() int {
	return len(l.visible)
}

func (l *Listing) IsEmpty() bool {
	return len(l.visible) == 0
}

// Visible returns a fresh slice of the visible entries, safe to hand to
// the render loop.
func (l *Listing) Visible() []Entry {
	entries := make([]Entry, len(l.visible))
	for i, idx := range l.visible {
		entries[i] = l.entries[idx]
	}
	return entries
}

func (l *Listing) All() []Entry {
	return l.entries
}

func (l *Listing) Cursor() int {
	return l.cursor
}

// Current returns the entry under the cursor, false when the visible
// set is empty.
func (l *Listing) Current() (Entry, bool) {
	if len(l.visible) == 0 {
		return Entry{}, false
	}
	return l.entries[l.visible[l.cursor]], true
}

func (l *Listing) MoveCursor(delta int) {
	l.SetCursor(l.cursor + delta)
}

func (l *Listing) SetCursor(i int) {
	if len(l.visible) == 0 {
		l.cursor = 0
		return
	}
	if i < 0 {
		i = 0
	}
	if i >= len(l.visible) {
		i = len(l.visible) - 1
	}
	l.cursor = i
}

// SetCursorByName moves the cursor to the visible entry with the given
// display name, reporting whether it was found.
func (l *Listing) SetCursorByName(name string) bool {
	for i, idx := range l.visible {
		if l.entries[idx].Name == name {
			l.cursor = i
			return true
		}
	}
	return false
}

func (l *Listing) ShowHidden() bool {
	return l.showHidden
}

func (l *Listing) SetShowHidden(show bool) {
	if l.showHidden == show {
		return
	}
	l.showHidden = show
	l.rebuildVisible()
}

func (l *Listing) Filter() Filter {
	return l.filter
}

func (l *Listing) SetFilter(filter Filter) {
	if l.filter == filter {
		return
	}
	l.filter = filter
	l.rebuildVisible()
}

// rebuildVisible recomputes the visible subsequence and re-clamps the
// cursor, preferring the same entry, then the next one in original
// order, then the nearest preceding one.
func (l *Listing) rebuildVisible() {
	var anchor = -1
	if len(l.visible) > 0 {
		anchor = l.visible[l.cursor]
	}

	names := make([]string, 0, len(l.entries))
	unhidden := make([]int, 0, len(l.entries))
	for i, entry := range l.entries {
		if entry.Hidden && !l.showHidden {
			continue
		}
		unhidden = append(unhidden, i)
		names = append(names, entry.Name)
	}

	l.visible = l.visible[:0]
	for _, j := range l.filter.Match(names) {
		l.visible = append(l.visible, unhidden[j])
	}

	l.cursor = 0
	if anchor < 0 {
		return
	}
	for i, idx := range l.visible {
		l.cursor = i
		if idx >= anchor {
			return
		}
	}
}
