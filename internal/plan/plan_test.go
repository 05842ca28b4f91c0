package plan

import "testing"

func TestKnown(t *testing.T) {
	for _, id := range All() {
		if !Known(id) {
			t.Errorf("Known(%s) = false", id)
		}
	}
	if Known(ToolID("bogus")) {
		t.Error("Known accepted an unknown id")
	}
}

func TestWithToolCopiesArgs(t *testing.T) {
	orig := New(StatuteLookup, "질문")
	derived := orig.WithTool(WebSearch)

	if derived.Tool != WebSearch {
		t.Fatalf("derived tool = %s", derived.Tool)
	}
	if derived.Query() != "질문" {
		t.Fatalf("derived query = %q", derived.Query())
	}

	derived.Args["query"] = "변경"
	if orig.Query() != "질문" {
		t.Fatal("mutating the derived plan leaked into the original")
	}
}
