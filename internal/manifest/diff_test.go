package manifest

import (
	"reflect"
	"testing"

	"github.com/mkarrett/codescope/internal/segment"
)

func seg(path, name string, occ int, content string) segment.Segment {
	return segment.Segment{
		ID:          segment.ID(path, name, occ),
		Kind:        segment.KindFunction,
		Name:        name,
		FilePath:    path,
		Content:     content,
		ContentHash: segment.HashContent(content),
	}
}

func manifestOf(segs ...segment.Segment) *Manifest {
	m := New()
	for _, s := range segs {
		m.Entries[s.ID] = s.ContentHash
	}
	return m
}

func TestDiffNewFile(t *testing.T) {
	foo := seg("a.js", "foo", 1, "function foo() {}")

	changes := Diff([]segment.Segment{foo}, New())

	if len(changes.Add) != 1 || changes.Add[0].ID != foo.ID {
		t.Errorf("new segment not in Add: %+v", changes)
	}
	if len(changes.Update) != 0 || len(changes.Delete) != 0 {
		t.Errorf("unexpected update/delete for new file: %+v", changes)
	}
}

func TestDiffEditedSegment(t *testing.T) {
	before := seg("a.js", "foo", 1, "function foo() { return 1; }")
	after := seg("a.js", "foo", 1, "function foo() { return 2; }")

	changes := Diff([]segment.Segment{after}, manifestOf(before))

	if len(changes.Update) != 1 || changes.Update[0].ID != after.ID {
		t.Errorf("edited segment not in Update: %+v", changes)
	}
	if changes.Update[0].ID != before.ID {
		t.Error("edit changed the segment id; identity must survive content changes")
	}
	if len(changes.Add) != 0 || len(changes.Delete) != 0 {
		t.Errorf("unexpected add/delete for edit: %+v", changes)
	}
}

func TestDiffDeletedFile(t *testing.T) {
	foo := seg("a.js", "foo", 1, "function foo() {}")
	bar := seg("a.js", "bar", 1, "function bar() {}")
	keep := seg("b.js", "baz", 1, "function baz() {}")

	// a.js was removed from the repository: its segments are simply absent
	// from the current set.
	changes := Diff([]segment.Segment{keep}, manifestOf(foo, bar, keep))

	want := []string{foo.ID, bar.ID}
	if want[0] > want[1] {
		want[0], want[1] = want[1], want[0]
	}
	if !reflect.DeepEqual(changes.Delete, want) {
		t.Errorf("Delete = %v, want %v", changes.Delete, want)
	}
	if len(changes.Add) != 0 || len(changes.Update) != 0 {
		t.Errorf("unexpected add/update for deletion: %+v", changes)
	}
}

func TestDiffUnchangedIsEmpty(t *testing.T) {
	foo := seg("a.js", "foo", 1, "function foo() {}")
	bar := seg("b.js", "bar", 1, "function bar() {}")

	changes := Diff([]segment.Segment{foo, bar}, manifestOf(foo, bar))

	if !changes.Empty() {
		t.Errorf("unchanged input produced changes: %+v", changes)
	}
	if changes.Total() != 0 {
		t.Errorf("Total = %d, want 0", changes.Total())
	}
}

func TestDiffWhitespaceChangeIsUpdate(t *testing.T) {
	before := seg("a.js", "foo", 1, "function foo() {}")
	after := seg("a.js", "foo", 1, "function foo()  {}")

	changes := Diff([]segment.Segment{after}, manifestOf(before))

	if len(changes.Update) != 1 {
		t.Errorf("whitespace-only change must be an update, got %+v", changes)
	}
}

func TestRebuildReaddsEverything(t *testing.T) {
	foo := seg("a.js", "foo", 1, "function foo() {}")
	bar := seg("b.js", "bar", 1, "function bar() {}")

	changes := Rebuild([]segment.Segment{foo, bar}, manifestOf(foo, bar))

	if len(changes.Add) != 2 {
		t.Errorf("Add = %d segments, want all 2 regardless of stored hashes", len(changes.Add))
	}
	if len(changes.Update) != 0 || len(changes.Delete) != 0 {
		t.Errorf("unexpected update/delete on rebuild of unchanged repo: %+v", changes)
	}
}

func TestRebuildStillDeletesStaleIDs(t *testing.T) {
	foo := seg("a.js", "foo", 1, "function foo() {}")
	gone := seg("b.js", "bar", 1, "function bar() {}")

	// b.js was removed before the rebuild. Its manifest id must land in
	// Delete even though the rebuild re-adds everything else, or its store
	// item survives every future sync.
	changes := Rebuild([]segment.Segment{foo}, manifestOf(foo, gone))

	if len(changes.Add) != 1 || changes.Add[0].ID != foo.ID {
		t.Errorf("surviving segment not re-added: %+v", changes)
	}
	if !reflect.DeepEqual(changes.Delete, []string{gone.ID}) {
		t.Errorf("Delete = %v, want [%s]", changes.Delete, gone.ID)
	}
}

func TestDiffMovedSegment(t *testing.T) {
	// Moving a function between files is delete-old + add-new, because the
	// path participates in identity.
	old := seg("a.js", "foo", 1, "function foo() {}")
	moved := seg("b.js", "foo", 1, "function foo() {}")

	changes := Diff([]segment.Segment{moved}, manifestOf(old))

	if len(changes.Add) != 1 || changes.Add[0].ID != moved.ID {
		t.Errorf("moved segment not added under new id: %+v", changes)
	}
	if len(changes.Delete) != 1 || changes.Delete[0] != old.ID {
		t.Errorf("old id not deleted after move: %+v", changes)
	}
}
