package pipeline

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Supported still image extensions (lowercase, with leading dot).
var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
}

// Supported audio extensions (lowercase, with leading dot).
var audioExtensions = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".flac": true,
	".aac":  true,
	".m4a":  true,
	".ogg":  true,
	".opus": true,
	".wma":  true,
	".aif":  true,
	".aiff": true,
	".mka":  true,
}

// IsImage reports whether path has a supported image extension.
func IsImage(path string) bool { return imageExtensions[strings.ToLower(filepath.Ext(path))] }

// IsAudio reports whether path has a supported audio extension.
func IsAudio(path string) bool { return audioExtensions[strings.ToLower(filepath.Ext(path))] }

// FindInputs scans dir (not recursively) and returns the first image and
// the first audio file in lexicographic order, so the pick does not depend
// on directory listing order. Both are required; a missing one is reported
// as ErrMissingInput.
func FindInputs(dir string) (image, audio string, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", "", fmt.Errorf("%w: scan %s: %v", ErrMissingInput, dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() || e.Type()&fs.ModeSymlink != 0 {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, n := range names {
		switch {
		case image == "" && IsImage(n):
			image = filepath.Join(dir, n)
		case audio == "" && IsAudio(n):
			audio = filepath.Join(dir, n)
		}
	}
	switch {
	case image == "" && audio == "":
		return "", "", fmt.Errorf("%w: no image or audio file found in %s", ErrMissingInput, dir)
	case image == "":
		return "", "", fmt.Errorf("%w: no image file found in %s", ErrMissingInput, dir)
	case audio == "":
		return "", "", fmt.Errorf("%w: no audio file found in %s", ErrMissingInput, dir)
	}
	return image, audio, nil
}

// Pair is an image and an audio file sharing a directory and stem.
type Pair struct {
	Dir   string
	Stem  string
	Image string
	Audio string
}

// Key identifies the pair for collision resolution.
func (p Pair) Key() string { return p.Image + "\x00" + p.Audio }

// DiscoverPairs walks inputDir and pairs every image with the audio file
// that shares its directory and stem (e.g. ep1.png + ep1.mp3). When several
// audio files share a stem the first in lexicographic order is used. Files
// left without a partner are returned as unpaired. Hidden directories are
// pruned. Both results are sorted for deterministic processing order.
func DiscoverPairs(inputDir string) (pairs []Pair, unpaired []string, err error) {
	type group struct {
		images []string
		audios []string
	}
	groups := make(map[string]*group) // dir + "\x00" + stem
	var keys []string

	err = filepath.WalkDir(inputDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != inputDir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		isImage, isAudio := IsImage(path), IsAudio(path)
		if !isImage && !isAudio {
			return nil
		}
		dir := filepath.Dir(path)
		stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		key := dir + "\x00" + stem
		g, ok := groups[key]
		if !ok {
			g = &group{}
			groups[key] = g
			keys = append(keys, key)
		}
		if isImage {
			g.images = append(g.images, path)
		} else {
			g.audios = append(g.audios, path)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	sort.Strings(keys)
	for _, key := range keys {
		g := groups[key]
		sort.Strings(g.images)
		sort.Strings(g.audios)
		if len(g.audios) == 0 {
			unpaired = append(unpaired, g.images...)
			continue
		}
		if len(g.images) == 0 {
			unpaired = append(unpaired, g.audios...)
			continue
		}
		dir, stem, _ := strings.Cut(key, "\x00")
		for _, img := range g.images {
			pairs = append(pairs, Pair{Dir: dir, Stem: stem, Image: img, Audio: g.audios[0]})
		}
		unpaired = append(unpaired, g.audios[1:]...)
	}
	sort.Strings(unpaired)
	return pairs, unpaired, nil
}
