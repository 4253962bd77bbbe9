package auth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/fpang/meme-magic/internal/logging"
	"github.com/rs/zerolog/log"
)

// Environment variables that locate the API key.
const (
	EnvAPIKey         = "GEMINI_API_KEY"
	EnvCredentialFile = "MEME_CREDENTIALS_FILE"
	EnvPassphraseFile = "MEME_GPG_PASSPHRASE_FILE"
)

const (
	credentialDir  = ".meme-magic"
	credentialFile = "credentials.gpg"
	passphraseName = ".gpg-passphrase"
)

// KeySource is one place the Gemini API key may live.
type KeySource interface {
	Name() string
	APIKey(ctx context.Context) (string, error)
}

// EnvKey reads the key from an environment variable.
type EnvKey struct {
	Var string
}

// Name implements KeySource.
func (e EnvKey) Name() string { return "env " + e.Var }

// APIKey implements KeySource.
func (e EnvKey) APIKey(ctx context.Context) (string, error) {
	key := strings.TrimSpace(os.Getenv(e.Var))
	if key == "" {
		return "", fmt.Errorf("%s is not set", e.Var)
	}
	return key, nil
}

// GPGFile decrypts the key from a GPG-encrypted file. When PassphraseFile
// names an owner-only file, decryption runs without a pinentry prompt.
type GPGFile struct {
	Path           string
	PassphraseFile string
}

// Name implements KeySource.
func (g GPGFile) Name() string { return "gpg " + g.Path }

// APIKey implements KeySource.
func (g GPGFile) APIKey(ctx context.Context) (string, error) {
	if _, err := os.Stat(g.Path); err != nil {
		return "", fmt.Errorf("GPG credentials file not found at %s", g.Path)
	}

	args := []string{"--decrypt", "--quiet"}
	if g.PassphraseFile != "" {
		if fi, err := os.Stat(g.PassphraseFile); err == nil {
			if mode := fi.Mode().Perm(); mode&0o077 != 0 {
				log.Warn().
					Str("passphrase_file", g.PassphraseFile).
					Str("permissions", fmt.Sprintf("%04o", mode)).
					Msg("Passphrase file has insecure permissions (should be 0600); skipping")
			} else {
				args = append(args, "--pinentry-mode", "loopback", "--passphrase-file", g.PassphraseFile)
			}
		}
	}
	args = append(args, g.Path)

	log.Debug().Str("file", g.Path).Msg("Decrypting GPG credentials")
	output, err := exec.CommandContext(ctx, "gpg", args...).Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", fmt.Errorf("GPG decryption failed: %s", strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", fmt.Errorf("GPG decryption failed: %w", err)
	}

	key := strings.TrimSpace(string(output))
	if key == "" {
		return "", fmt.Errorf("GPG credentials file %s decrypted to an empty key", g.Path)
	}
	return key, nil
}

// DefaultSources returns the key sources in priority order: the
// GEMINI_API_KEY variable, then the GPG file named by MEME_CREDENTIALS_FILE
// (default ~/.meme-magic/credentials.gpg).
func DefaultSources() []KeySource {
	return []KeySource{
		EnvKey{Var: EnvAPIKey},
		GPGFile{
			Path:           logging.EnvOrDefault(EnvCredentialFile, defaultCredentialPath()),
			PassphraseFile: logging.EnvOrDefault(EnvPassphraseFile, defaultPassphrasePath()),
		},
	}
}

// GetAPIKey retrieves the Gemini API key from the default sources.
func GetAPIKey(ctx context.Context) (string, error) {
	return FirstKey(ctx, DefaultSources()...)
}

// FirstKey returns the key from the first source that yields one. The error
// joins every source's failure.
func FirstKey(ctx context.Context, sources ...KeySource) (string, error) {
	var errs []error
	for _, src := range sources {
		key, err := src.APIKey(ctx)
		if err == nil {
			log.Debug().Str("source", src.Name()).Msg("Using API key")
			return key, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", src.Name(), err))
	}

	err := errors.Join(errs...)
	log.Error().Err(err).Msg("Failed to retrieve API key")
	return "", fmt.Errorf("API key not found. Set %s or store it GPG-encrypted at ~/%s/%s: %w", EnvAPIKey, credentialDir, credentialFile, err)
}

// defaultCredentialPath is ~/.meme-magic/credentials.gpg, or empty when the
// home directory is unknown.
func defaultCredentialPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, credentialDir, credentialFile)
}

// defaultPassphrasePath looks for .gpg-passphrase next to the executable,
// then in the working directory.
func defaultPassphrasePath() string {
	if exe, err := os.Executable(); err == nil {
		p := filepath.Join(filepath.Dir(exe), passphraseName)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return filepath.Join(cwd, passphraseName)
}
