package cli

import (
	"fmt"
	"strings"
)

// FormatCaptions renders captions as a numbered list, one per line.
func FormatCaptions(captions []string) string {
	var b strings.Builder
	for i, c := range captions {
		fmt.Fprintf(&b, "%2d. %s\n", i+1, c)
	}
	return b.String()
}
