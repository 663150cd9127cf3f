package naming

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
)

// CollisionResolver hands out batch output paths. Two pairs that map to the
// same output (e.g. "ep1.png + ep1.mp3" and "ep1.jpg + ep1.flac" in one
// directory) get distinct files by appending " - dupN" to the later one.
// All methods are goroutine-safe.
type CollisionResolver struct {
	mu     sync.Mutex
	owners map[string]string // output path -> owning pair key
}

// NewCollisionResolver creates a ready-to-use resolver.
func NewCollisionResolver() *CollisionResolver {
	return &CollisionResolver{owners: make(map[string]string)}
}

// Resolve returns the output path for the pair identified by owner. A
// requested path that is unclaimed, or already claimed by owner, is returned
// unchanged; otherwise the first "<stem> - dupN<ext>" variant that is free or
// already owned by owner is claimed.
func (cr *CollisionResolver) Resolve(owner, requested string) string {
	cr.mu.Lock()
	defer cr.mu.Unlock()

	if cur, ok := cr.owners[requested]; !ok || cur == owner {
		cr.owners[requested] = owner
		return requested
	}

	dir := filepath.Dir(requested)
	ext := filepath.Ext(requested)
	stem := strings.TrimSuffix(filepath.Base(requested), ext)

	for n := 1; ; n++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s - dup%d%s", stem, n, ext))
		if cur, ok := cr.owners[candidate]; !ok || cur == owner {
			cr.owners[candidate] = owner
			return candidate
		}
	}
}

// Owner reports which pair claimed path, if any.
func (cr *CollisionResolver) Owner(path string) (string, bool) {
	cr.mu.Lock()
	defer cr.mu.Unlock()
	o, ok := cr.owners[path]
	return o, ok
}
