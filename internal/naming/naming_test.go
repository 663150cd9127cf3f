package naming

import (
	"path/filepath"
	"sync"
	"testing"
)

func TestOutputPath(t *testing.T) {
	in := filepath.FromSlash("/media/in")
	out := filepath.FromSlash("/media/out")
	tests := []struct {
		name      string
		pairDir   string
		stem      string
		container string
		want      string
	}{
		{"top level", "/media/in", "episode 1", "mp4", "/media/out/episode 1.mp4"},
		{"nested", "/media/in/shows/s01", "ep1", "mkv", "/media/out/shows/s01/ep1.mkv"},
		{"default container", "/media/in", "ep1", "", "/media/out/ep1.mp4"},
		{"sanitized", "/media/in", "Q&A: part 1?", "mp4", "/media/out/Q&A - part 1.mp4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := OutputPath(in, out, filepath.FromSlash(tt.pairDir), tt.stem, tt.container)
			if err != nil {
				t.Fatalf("OutputPath: %v", err)
			}
			if got != filepath.FromSlash(tt.want) {
				t.Errorf("got %q, want %q", got, filepath.FromSlash(tt.want))
			}
		})
	}
}

func TestOutputPath_OutsideInput(t *testing.T) {
	if _, err := OutputPath("/media/in", "/media/out", "/media/other", "x", "mp4"); err == nil {
		t.Error("expected error for a pair outside the input directory")
	}
}

func TestSanitizeStem(t *testing.T) {
	tests := []struct{ in, want string }{
		{"plain", "plain"},
		{"a/b", "a-b"},
		{"what?", "what"},
		{"trailing. ", "trailing"},
		{"***", "output"},
	}
	for _, tt := range tests {
		if got := SanitizeStem(tt.in); got != tt.want {
			t.Errorf("SanitizeStem(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCollisionResolver(t *testing.T) {
	cr := NewCollisionResolver()
	out := filepath.FromSlash("/out/ep1.mp4")

	if got := cr.Resolve("/in/a/ep1", out); got != out {
		t.Errorf("first claim: got %q", got)
	}
	if got := cr.Resolve("/in/a/ep1", out); got != out {
		t.Errorf("same owner should keep its path, got %q", got)
	}
	if got := cr.Resolve("/in/b/ep1", out); got != filepath.FromSlash("/out/ep1 - dup1.mp4") {
		t.Errorf("second claim: got %q", got)
	}
	if got := cr.Resolve("/in/c/ep1", out); got != filepath.FromSlash("/out/ep1 - dup2.mp4") {
		t.Errorf("third claim: got %q", got)
	}
	if got := cr.Resolve("/in/b/ep1", out); got != filepath.FromSlash("/out/ep1 - dup1.mp4") {
		t.Errorf("repeat of second claim: got %q", got)
	}
}

func TestCollisionResolver_Concurrent(t *testing.T) {
	cr := NewCollisionResolver()
	var wg sync.WaitGroup
	seen := make(chan string, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			seen <- cr.Resolve(filepath.Join("/in", string(rune('a'+i))), "/out/x.mp4")
		}(i)
	}
	wg.Wait()
	close(seen)
	unique := map[string]bool{}
	for p := range seen {
		if unique[p] {
			t.Errorf("duplicate output %q", p)
		}
		unique[p] = true
	}
}

func TestCollisionResolver_Owner(t *testing.T) {
	cr := NewCollisionResolver()
	cr.Resolve("pair-a", "/out/a.mp4")
	if o, ok := cr.Owner("/out/a.mp4"); !ok || o != "pair-a" {
		t.Errorf("Owner = %q, %v", o, ok)
	}
	if _, ok := cr.Owner("/out/b.mp4"); ok {
		t.Error("unclaimed path should have no owner")
	}
}
