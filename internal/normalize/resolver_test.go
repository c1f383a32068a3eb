package normalize

import (
	"errors"
	"strings"
	"testing"
)

// TestResolver_Observe verifies dense id assignment in first-sighting order
// and that repeat sightings return the id already assigned.
func TestResolver_Observe(t *testing.T) {
	t.Parallel()

	r := NewResolver[int64]("genre")
	sightings := []struct {
		key  int64
		name string
		want int64
	}{
		{28, "Action", 1},
		{12, "Adventure", 2},
		{28, "Action", 1},
		{878, "Science Fiction", 3},
		{12, "Adventure", 2},
	}
	for i, s := range sightings {
		got, err := r.Observe(s.key, s.name)
		if err != nil {
			t.Fatalf("Observe #%d: %v", i, err)
		}
		if got != s.want {
			t.Fatalf("Observe(%d) id=%d, want %d", s.key, got, s.want)
		}
	}
	if r.Len() != 3 {
		t.Fatalf("Len()=%d, want 3", r.Len())
	}

	var keys []int64
	r.Each(func(id int64, key int64, name string) {
		keys = append(keys, key)
	})
	want := []int64{28, 12, 878}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("Each order=%v, want %v", keys, want)
		}
	}
}

// TestResolver_NameAdoption verifies that an id-only sighting leaves the name
// empty, a later named sighting fills it in, and a second distinct name is a
// duplicate-id error.
func TestResolver_NameAdoption(t *testing.T) {
	t.Parallel()

	r := NewResolver[string]("language")
	if _, err := r.Observe("en", ""); err != nil {
		t.Fatalf("id-only Observe: %v", err)
	}
	if got := r.Name("en"); got != "" {
		t.Fatalf("Name()=%q before any named sighting, want empty", got)
	}
	if _, err := r.Observe("en", "English"); err != nil {
		t.Fatalf("named Observe: %v", err)
	}
	if got := r.Name("en"); got != "English" {
		t.Fatalf("Name()=%q, want English", got)
	}
	if _, err := r.Observe("en", "English"); err != nil {
		t.Fatalf("repeat named Observe: %v", err)
	}

	_, err := r.Observe("en", "British English")
	if !errors.Is(err, ErrDuplicateNaturalID) {
		t.Fatalf("conflicting name err=%v, want ErrDuplicateNaturalID", err)
	}
	if !strings.Contains(err.Error(), "English") || !strings.Contains(err.Error(), "British English") {
		t.Fatalf("conflict error %q does not name both values", err)
	}
}

// TestResolver_Fold verifies that folding reroutes the superseded key to the
// canonical surrogate, shrinks the live set, and is a no-op the second time.
func TestResolver_Fold(t *testing.T) {
	t.Parallel()

	r := NewResolver[int64]("company")
	mustObserve(t, r, 5, "Columbia Pictures")
	mustObserve(t, r, 289, "Ingenious Film Partners")
	mustObserve(t, r, 36390, "Columbia Pictures Corporation")

	if !r.Fold(36390, 5) {
		t.Fatalf("Fold(36390, 5)=false, want true")
	}
	id, ok := r.ID(36390)
	if !ok || id != 1 {
		t.Fatalf("ID(36390)=(%d, %v) after fold, want (1, true)", id, ok)
	}
	if r.Len() != 2 {
		t.Fatalf("Len()=%d after fold, want 2", r.Len())
	}

	if r.Fold(36390, 5) {
		t.Fatalf("repeated Fold(36390, 5)=true, want no-op")
	}
}

// TestResolver_FoldChain verifies that keys folded into an entity follow it
// when that entity is itself folded later.
func TestResolver_FoldChain(t *testing.T) {
	t.Parallel()

	r := NewResolver[int64]("company")
	mustObserve(t, r, 11, "Lucasfilm")
	mustObserve(t, r, 12, "Lucasfilm Ltd.")
	mustObserve(t, r, 13, "Lucasfilm Ltd")

	r.Fold(11, 12)
	r.Fold(12, 13)

	for _, key := range []int64{11, 12, 13} {
		id, ok := r.ID(key)
		if !ok || id != 3 {
			t.Fatalf("ID(%d)=(%d, %v) after chained folds, want (3, true)", key, id, ok)
		}
	}
	if r.Len() != 1 {
		t.Fatalf("Len()=%d, want 1", r.Len())
	}
}

// TestResolver_Compact verifies that compaction closes fold holes, reassigns
// dense ids in live order, and reports the full old→new mapping.
func TestResolver_Compact(t *testing.T) {
	t.Parallel()

	r := NewResolver[int64]("company")
	mustObserve(t, r, 5, "Columbia Pictures")
	mustObserve(t, r, 289, "Ingenious Film Partners")
	mustObserve(t, r, 36390, "Columbia Pictures Corporation")

	r.Fold(5, 36390) // surrogate 1 dies, 3 survives

	remap := r.Compact()
	if want := map[int64]int64{2: 1, 3: 2}; len(remap) != len(want) || remap[2] != 1 || remap[3] != 2 {
		t.Fatalf("Compact() remap=%v, want %v", remap, want)
	}

	var ids []int64
	r.Each(func(id int64, key int64, name string) {
		ids = append(ids, id)
	})
	if len(ids) != 2 || ids[0] != 1 || ids[1] != 2 {
		t.Fatalf("ids after compact=%v, want [1 2]", ids)
	}

	// The folded key follows its canonical through compaction.
	if id, _ := r.ID(5); id != 2 {
		t.Fatalf("ID(5)=%d after compact, want 2", id)
	}

	// A later sighting of a brand-new key continues the dense sequence.
	id, err := r.Observe(33, "Universal Pictures")
	if err != nil {
		t.Fatalf("Observe after compact: %v", err)
	}
	if id != 3 {
		t.Fatalf("Observe new key after compact id=%d, want 3", id)
	}
}

// TestResolver_CompactWithoutFolds verifies the identity case.
func TestResolver_CompactWithoutFolds(t *testing.T) {
	t.Parallel()

	r := NewResolver[string]("department")
	mustObserve(t, r, "Directing", "Directing")
	mustObserve(t, r, "Editing", "Editing")

	remap := r.Compact()
	if len(remap) != 2 || remap[1] != 1 || remap[2] != 2 {
		t.Fatalf("Compact() remap=%v, want identity over 2 ids", remap)
	}
}

func mustObserve[K comparable](t *testing.T, r *Resolver[K], key K, name string) {
	t.Helper()
	if _, err := r.Observe(key, name); err != nil {
		t.Fatalf("Observe(%v, %q): %v", key, name, err)
	}
}
