package chat

import "testing"

func TestDirectory_PrependKeepsMostRecentFirst(t *testing.T) {
	d := NewDirectory()
	d.Replace([]Session{{ID: "old", Title: "Old"}})
	d.Prepend(Session{ID: "new", Title: "New Chat"})
	got := d.List()
	if len(got) != 2 || got[0].ID != "new" || got[1].ID != "old" {
		t.Fatalf("order = %v", got)
	}
}

func TestDirectory_UpsertTitleAbsentIDIsNoOp(t *testing.T) {
	d := NewDirectory()
	d.Replace([]Session{{ID: "s1", Title: "One"}})
	d.UpsertTitle("missing", "nope")
	d.UpsertTitle("s1", "Renamed")
	if s, ok := d.Get("s1"); !ok || s.Title != "Renamed" {
		t.Fatalf("Get(s1) = %+v, %v", s, ok)
	}
	if d.Len() != 1 {
		t.Fatalf("len = %d", d.Len())
	}
}

func TestDirectory_Remove(t *testing.T) {
	d := NewDirectory()
	d.Replace([]Session{{ID: "a"}, {ID: "b"}, {ID: "c"}})
	if !d.Remove("b") {
		t.Fatal("Remove(b) = false")
	}
	if d.Remove("b") {
		t.Fatal("second Remove(b) = true")
	}
	got := d.List()
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "c" {
		t.Fatalf("after remove: %v", got)
	}
}
