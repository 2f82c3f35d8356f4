package chat

import "testing"

func TestTimeline_TruncateKeepsEverythingBeforeIndex(t *testing.T) {
	tl := NewTimeline(
		Message{Role: RoleUser, Content: "A"},
		Message{Role: RoleAssistant, Content: "B"},
		Message{Role: RoleUser, Content: "C"},
		Message{Role: RoleAssistant, Content: "D"},
	)
	tl.Truncate(2)
	got := tl.Messages()
	if len(got) != 2 || got[1].Content != "B" {
		t.Fatalf("after Truncate(2): %v", got)
	}

	tl.Truncate(-1)
	if tl.Len() != 0 {
		t.Fatalf("Truncate(-1) should empty the log, len=%d", tl.Len())
	}
}

func TestTimeline_SetLastContentOnlyTouchesLastSlot(t *testing.T) {
	tl := NewTimeline(
		Message{Role: RoleUser, Content: "Q"},
		Message{Role: RoleAssistant, Content: ""},
	)
	tl.SetLastContent("partial")
	tl.SetLastContent("partial answer")
	got := tl.Messages()
	if got[0].Content != "Q" {
		t.Fatalf("earlier entry mutated: %v", got)
	}
	if got[1].Content != "partial answer" {
		t.Fatalf("last slot = %q", got[1].Content)
	}
}

func TestTimeline_DropFirstAndLast(t *testing.T) {
	tl := NewTimeline(Greeting, Message{Role: RoleUser, Content: "A"})
	tl.DropFirst()
	if got := tl.Messages(); len(got) != 1 || got[0].Content != "A" {
		t.Fatalf("after DropFirst: %v", got)
	}
	tl.DropLast()
	if tl.Len() != 0 {
		t.Fatal("after DropLast the log should be empty")
	}
	// Both are safe on an empty log.
	tl.DropFirst()
	tl.DropLast()
	tl.SetLastContent("x")
	if tl.Len() != 0 {
		t.Fatal("mutators on empty log should be no-ops")
	}
}

func TestTimeline_MessagesReturnsCopy(t *testing.T) {
	tl := NewTimeline(Message{Role: RoleUser, Content: "A"})
	got := tl.Messages()
	got[0].Content = "tampered"
	if m, _ := tl.At(0); m.Content != "A" {
		t.Fatal("Messages leaked internal storage")
	}
}
