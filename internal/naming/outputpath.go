package naming

import (
	"fmt"
	"path/filepath"
	"strings"
)

// DefaultContainer is the output extension used when none is requested.
const DefaultContainer = "mp4"

// OutputPath mirrors the location of a pair relative to inputDir under
// outputDir, replacing the file name with stem.<container>:
//
//	<inputDir>/shows/ep1.png + ep1.mp3  ->  <outputDir>/shows/ep1.mp4
//
// pairDir is the directory holding the pair. It must be inside inputDir.
func OutputPath(inputDir, outputDir, pairDir, stem, container string) (string, error) {
	rel, err := filepath.Rel(inputDir, pairDir)
	if err != nil {
		return "", fmt.Errorf("relative path of %s: %w", pairDir, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s is outside %s", pairDir, inputDir)
	}
	if container == "" {
		container = DefaultContainer
	}
	return filepath.Join(outputDir, rel, SanitizeStem(stem)+"."+container), nil
}

// SanitizeStem replaces characters that are invalid in file names on common
// filesystems and trims trailing dots and spaces.
func SanitizeStem(stem string) string {
	r := strings.NewReplacer(
		"/", "-", "\\", "-", ":", " -", "*", "", "?", "", "\"", "'", "<", "", ">", "", "|", "-",
	)
	s := strings.TrimRight(strings.TrimSpace(r.Replace(stem)), ". ")
	if s == "" {
		return "output"
	}
	return s
}
