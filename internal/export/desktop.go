package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/ncruces/zenity"
	"github.com/rs/zerolog/log"
)

// CommandSharer shares by writing the image to a temporary file and running
// a user-configured command with the file path as its last argument, e.g.
// MEME_SHARE_COMMAND="kdeconnect-cli --share".
type CommandSharer struct {
	Command string
}

// Available reports whether a command is configured and on PATH.
func (s CommandSharer) Available() bool {
	fields := strings.Fields(s.Command)
	if len(fields) == 0 {
		return false
	}
	_, err := exec.LookPath(fields[0])
	return err == nil
}

// Share runs the command on a temporary copy of the payload.
func (s CommandSharer) Share(ctx context.Context, p Payload) error {
	fields := strings.Fields(s.Command)
	if len(fields) == 0 {
		return fmt.Errorf("no share command configured")
	}
	bin, err := exec.LookPath(fields[0])
	if err != nil {
		return fmt.Errorf("share command not found: %w", err)
	}

	dir, err := os.MkdirTemp("", "meme-share-*")
	if err != nil {
		return fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, p.FileName)
	if err := os.WriteFile(path, p.Data, 0o600); err != nil {
		return fmt.Errorf("failed to write share file: %w", err)
	}

	args := append(fields[1:], path)
	cmd := exec.CommandContext(ctx, bin, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		log.Warn().
			Err(err).
			Str("command", fields[0]).
			Str("output", string(output)).
			Msg("Share command failed")
		return fmt.Errorf("share command failed: %w", err)
	}
	return nil
}

// DialogSharer asks for confirmation in a native dialog before handing off
// to Next. Dismissing the dialog is a cancellation, not a failure.
type DialogSharer struct {
	Next Sharer
}

// Available reports whether Next can share.
func (s DialogSharer) Available() bool {
	return s.Next != nil && s.Next.Available()
}

// Share shows the dialog and then delegates.
func (s DialogSharer) Share(ctx context.Context, p Payload) error {
	err := zenity.Question(p.Text,
		zenity.Title(p.Title),
		zenity.OKLabel("Share"),
		zenity.CancelLabel("Cancel"),
		zenity.Context(ctx),
	)
	if err != nil {
		if errors.Is(err, zenity.ErrCanceled) {
			return ErrShareCanceled
		}
		return fmt.Errorf("share dialog failed: %w", err)
	}
	return s.Next.Share(ctx, p)
}

// clipboardTool is an external program that reads a PNG on stdin and places
// it on the system clipboard.
type clipboardTool struct {
	name string
	args []string
}

var clipboardTools = []clipboardTool{
	{name: "wl-copy", args: []string{"--type", "image/png"}},
	{name: "xclip", args: []string{"-selection", "clipboard", "-t", "image/png", "-i"}},
	{name: "copyq", args: []string{"copy", "image/png", "-"}},
}

// ExecClipboard writes images to the clipboard through the first available
// clipboard tool.
type ExecClipboard struct {
	tools []clipboardTool
}

// NewSystemClipboard returns a clipboard backed by wl-copy, xclip or copyq.
func NewSystemClipboard() *ExecClipboard {
	return &ExecClipboard{tools: clipboardTools}
}

// WriteImage pipes png into the clipboard tool.
func (c *ExecClipboard) WriteImage(ctx context.Context, png []byte) error {
	for _, tool := range c.tools {
		bin, err := exec.LookPath(tool.name)
		if err != nil {
			continue
		}
		cmd := exec.CommandContext(ctx, bin, tool.args...)
		cmd.Stdin = bytes.NewReader(png)
		if output, err := cmd.CombinedOutput(); err != nil {
			return fmt.Errorf("%s failed: %w (output: %s)", tool.name, err, strings.TrimSpace(string(output)))
		}
		log.Debug().Str("tool", tool.name).Msg("Image written to clipboard")
		return nil
	}
	return fmt.Errorf("no clipboard tool found (tried wl-copy, xclip, copyq)")
}
