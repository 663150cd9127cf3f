package display

import (
	"fmt"
	"io"

	"github.com/backmassage/stillmux/internal/term"
)

const banner = `     _   _ _ _
 ___| |_(_) | |_ __ ___  _   ___  __
/ __| __| | | | '_ ` + "`" + ` _ \| | | \ \/ /
\__ \ |_| | | | | | | | | |_| |>  <
|___/\__|_|_|_|_| |_| |_|\__,_/_/\_\
`

// PrintBanner prints the ASCII art banner and version; magenta when colors
// are enabled.
func PrintBanner(w io.Writer, version string) {
	fmt.Fprint(w, term.Paint(term.ColorMagenta, banner))
	if version != "" {
		fmt.Fprintln(w, term.Paint(term.ColorGray, "still image + audio -> video  "+version))
	}
	fmt.Fprintln(w)
}
