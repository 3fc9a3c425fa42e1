package models

import "testing"

func TestTargetMessages(t *testing.T) {
	result := SearchResult{
		Messages: [][]SearchMessage{
			{{ID: "1"}, {ID: "2"}, {ID: "3"}}, // context, target, context
			{{ID: "4"}},                       // lone hit
			{},                                // empty group is skipped
			{{ID: "5"}, {ID: "6"}},
		},
	}

	targets := result.TargetMessages()
	want := []string{"2", "4", "6"}
	if len(targets) != len(want) {
		t.Fatalf("got %d targets, want %d", len(targets), len(want))
	}
	for i, id := range want {
		if targets[i].ID != id {
			t.Errorf("target[%d] = %q, want %q", i, targets[i].ID, id)
		}
	}
}
