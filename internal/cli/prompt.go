package cli

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// PromptForCaption lists captions on out and reads a choice from in. The
// reply is either a 1-based index or free text used as a custom caption.
// An empty reply picks the first caption.
func PromptForCaption(captions []string, in io.Reader, out io.Writer) (string, error) {
	if len(captions) == 0 {
		return "", fmt.Errorf("no captions to choose from")
	}

	fmt.Fprint(out, FormatCaptions(captions))
	fmt.Fprintf(out, "Caption [1-%d or custom text, default 1]: ", len(captions))

	input, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read caption choice: %w", err)
	}
	return ResolveCaptionChoice(captions, input)
}

// ResolveCaptionChoice interprets a reply to PromptForCaption.
func ResolveCaptionChoice(captions []string, input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return captions[0], nil
	}
	n, err := strconv.Atoi(input)
	if err != nil {
		return input, nil
	}
	if n < 1 || n > len(captions) {
		return "", fmt.Errorf("caption choice %d out of range 1-%d", n, len(captions))
	}
	return captions[n-1], nil
}
