package manifest

import (
	"sort"

	"github.com/mkarrett/codescope/internal/segment"
)

// Changes classifies a segmentation run against the manifest. Segments in
// neither slice are unchanged and need no work.
type Changes struct {
	Add    []segment.Segment // ids absent from the manifest
	Update []segment.Segment // ids present with a different content hash
	Delete []string          // manifest ids no longer produced by segmentation
}

// Empty reports whether the run is already up to date.
func (c *Changes) Empty() bool {
	return len(c.Add) == 0 && len(c.Update) == 0 && len(c.Delete) == 0
}

// Total returns the number of pending mutations.
func (c *Changes) Total() int {
	return len(c.Add) + len(c.Update) + len(c.Delete)
}

// Diff compares the current segment set against the manifest. A file
// deleted from the repository contributes no current segments, so all of
// its ids fall out naturally into Delete; there is no per-file deletion
// logic. A segment moved between files changes id (the path is part of
// the id) and shows up as delete-old + add-new; rename tracking is out of
// scope. Running Diff twice with no underlying changes yields empty sets.
func Diff(current []segment.Segment, m *Manifest) Changes {
	var changes Changes

	currentIDs := make(map[string]bool, len(current))
	for _, seg := range current {
		currentIDs[seg.ID] = true

		stored, ok := m.Entries[seg.ID]
		switch {
		case !ok:
			changes.Add = append(changes.Add, seg)
		case stored != seg.ContentHash:
			changes.Update = append(changes.Update, seg)
		}
	}

	for id := range m.Entries {
		if !currentIDs[id] {
			changes.Delete = append(changes.Delete, id)
		}
	}
	sort.Strings(changes.Delete)

	return changes
}

// Rebuild is the forced variant of Diff: every current segment is
// re-added regardless of its stored hash, while manifest ids no longer
// produced by segmentation are still deleted. Skipping the deletions
// here would strand their store items forever, because the rewritten
// manifest no longer mentions them and later diffs never look.
func Rebuild(current []segment.Segment, m *Manifest) Changes {
	var changes Changes

	currentIDs := make(map[string]bool, len(current))
	for _, seg := range current {
		currentIDs[seg.ID] = true
		changes.Add = append(changes.Add, seg)
	}

	for id := range m.Entries {
		if !currentIDs[id] {
			changes.Delete = append(changes.Delete, id)
		}
	}
	sort.Strings(changes.Delete)

	return changes
}
