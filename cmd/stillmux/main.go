// Command stillmux renders a still image and an optional audio track into
// a frame-aligned H.264 video using ffmpeg.
package main

import (
	"os"

	"github.com/backmassage/stillmux/internal/cli"
)

// version and commit are injected at build time:
//
//	go build -ldflags "-X main.version=1.0.0 -X main.commit=$(git rev-parse --short HEAD)" ./cmd/stillmux
var (
	version = "1.0.0-dev"
	commit  = "unknown"
)

func main() {
	os.Exit(cli.Execute(version, commit))
}
