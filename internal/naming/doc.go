// Package naming derives batch output paths from input pairs and resolves
// collisions between pairs that would write the same file.
package naming
