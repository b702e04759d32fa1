package files

import (
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
)

func testEntries() []Entry {
	mk := func(name string, kind Kind) Entry {
		return Entry{
			Path:       "/tmp/dir/" + name,
			Name:       name,
			Kind:       kind,
			ModifiedAt: time.Now(),
			Hidden:     name[0] == '.',
		}
	}
	return []Entry{
		mk("notes.txt", KindFile),
		mk("Backup", KindDirectory),
		mk(".git", KindDirectory),
		mk("photo.png", KindFile),
		mk(".hidden.txt", KindFile),
		mk("archive", KindDirectory),
	}
}

func visibleNames(l *Listing) []string {
	entries := l.Visible()
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	return names
}

func TestNewListing_SortsDirsFirstCaseInsensitive(t *testing.T) {
	t.Parallel()
	l := NewListing("/tmp/dir", testEntries(), true)
	assert.Equal(t, []string{".git", "archive", "Backup", ".hidden.txt", "notes.txt", "photo.png"}, visibleNames(l))
}

func TestListing_HiddenFiltering(t *testing.T) {
	t.Parallel()
	l := NewListing("/tmp/dir", testEntries(), false)
	assert.Equal(t, []string{"archive", "Backup", "notes.txt", "photo.png"}, visibleNames(l))

	t.Run("toggle_twice_is_identity", func(t *testing.T) {
		before := visibleNames(l)
		l.SetShowHidden(true)
		l.SetShowHidden(false)
		assert.Equal(t, before, visibleNames(l))
	})
}

func TestListing_CursorBounds(t *testing.T) {
	t.Parallel()
	l := NewListing("/tmp/dir", testEntries(), true)

	l.MoveCursor(-10)
	assert.Equal(t, 0, l.Cursor())

	l.MoveCursor(100)
	assert.Equal(t, l.Len()-1, l.Cursor())

	current, ok := l.Current()
	assert.True(t, ok)
	assert.Equal(t, "photo.png", current.Name)
}

func TestListing_EmptyFilterIsIdentity(t *testing.T) {
	t.Parallel()
	l := NewListing("/tmp/dir", testEntries(), true)
	before := visibleNames(l)
	l.SetFilter(Filter{Pattern: ""})
	assert.Equal(t, before, visibleNames(l))
}

func TestListing_FilterClampsCursor(t *testing.T) {
	t.Parallel()
	l := NewListing("/tmp/dir", testEntries(), true)
	assert.True(t, l.SetCursorByName("notes.txt"))

	l.SetFilter(Filter{Pattern: "photo"})
	current, ok := l.Current()
	assert.True(t, ok)
	assert.Equal(t, "photo.png", current.Name)
	assert.True(t, l.Cursor() < l.Len())

	t.Run("clearing_restores_nearby_position", func(t *testing.T) {
		l.SetFilter(Filter{})
		current, ok := l.Current()
		assert.True(t, ok)
		assert.Equal(t, "photo.png", current.Name)
	})
}

func TestListing_FilterMatchesNothing(t *testing.T) {
	t.Parallel()
	l := NewListing("/tmp/dir", testEntries(), true)
	l.SetFilter(Filter{Pattern: "zzzzz"})
	assert.True(t, l.IsEmpty())
	_, ok := l.Current()
	assert.False(t, ok)
	assert.Equal(t, 0, l.Cursor())
}

func TestListing_EmptyDir(t *testing.T) {
	t.Parallel()
	l := NewListing("/tmp/empty", nil, true)
	assert.True(t, l.IsEmpty())
	l.MoveCursor(1)
	assert.Equal(t, 0, l.Cursor())
}

func TestFilter_Match(t *testing.T) {
	t.Parallel()
	names := []string{"main.go", "main_test.go", "readme.md"}

	t.Run("empty_matches_all", func(t *testing.T) {
		assert.Equal(t, []int{0, 1, 2}, Filter{}.Match(names))
	})
	t.Run("keeps_original_order", func(t *testing.T) {
		assert.Equal(t, []int{0, 1}, Filter{Pattern: "main"}.Match(names))
	})
	t.Run("fuzzy", func(t *testing.T) {
		assert.Equal(t, []int{1}, Filter{Pattern: "mtest"}.Match(names))
	})
}
