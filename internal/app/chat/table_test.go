package chat

import "testing"

func TestTableSnapshotKeepsInsertionOrder(t *testing.T) {
	tbl := NewTable()
	tbl.Put("c1", "alice")
	tbl.Put("c2", "bob")
	tbl.Put("c3", "carol")

	if got := tbl.Snapshot(); !equalStrings(got, []string{"alice", "bob", "carol"}) {
		t.Fatalf("unexpected snapshot: %v", got)
	}
}

func TestTablePutExistingKeepsPosition(t *testing.T) {
	tbl := NewTable()
	tbl.Put("c1", "alice")
	tbl.Put("c2", "bob")
	tbl.Put("c1", "alicia")

	if got := tbl.Snapshot(); !equalStrings(got, []string{"alicia", "bob"}) {
		t.Fatalf("update moved entry: %v", got)
	}
	if tbl.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", tbl.Len())
	}
}

func TestTableRemove(t *testing.T) {
	tbl := NewTable()
	tbl.Put("c1", "alice")
	tbl.Put("c2", "bob")

	tbl.Remove("c1")
	if got := tbl.Snapshot(); !equalStrings(got, []string{"bob"}) {
		t.Fatalf("unexpected snapshot after remove: %v", got)
	}

	// Removing an absent key is a no-op.
	tbl.Remove("c1")
	tbl.Remove("never-added")
	if tbl.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", tbl.Len())
	}
}

func TestTableSnapshotIsACopy(t *testing.T) {
	tbl := NewTable()
	tbl.Put("c1", "alice")

	snap := tbl.Snapshot()
	snap[0] = "mallory"

	if got := tbl.Snapshot(); !equalStrings(got, []string{"alice"}) {
		t.Fatalf("snapshot aliases internal state: %v", got)
	}
}
