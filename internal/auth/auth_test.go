package auth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"google.golang.org/genai"
)

func TestGetAPIKeyFromEnv(t *testing.T) {
	const testKey = "test-api-key-12345"
	t.Setenv(EnvAPIKey, "  "+testKey+"\n")

	key, err := GetAPIKey(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if key != testKey {
		t.Errorf("expected key %q, got %q", testKey, key)
	}
}

func TestGetAPIKeyNoSource(t *testing.T) {
	t.Setenv(EnvAPIKey, "")
	t.Setenv(EnvCredentialFile, filepath.Join(t.TempDir(), "missing.gpg"))

	_, err := GetAPIKey(context.Background())
	if err == nil {
		t.Fatal("expected error when no API key source available")
	}
	if !strings.Contains(err.Error(), EnvAPIKey) || !strings.Contains(err.Error(), "missing.gpg") {
		t.Errorf("error %q should name every source that was tried", err)
	}
}

func TestDefaultSources(t *testing.T) {
	t.Setenv(EnvCredentialFile, "/etc/meme/key.gpg")
	t.Setenv(EnvPassphraseFile, "/etc/meme/pass")

	sources := DefaultSources()
	if len(sources) != 2 {
		t.Fatalf("len(DefaultSources()) = %d, want 2", len(sources))
	}
	if env, ok := sources[0].(EnvKey); !ok || env.Var != EnvAPIKey {
		t.Errorf("sources[0] = %#v, want EnvKey{%s}", sources[0], EnvAPIKey)
	}
	want := GPGFile{Path: "/etc/meme/key.gpg", PassphraseFile: "/etc/meme/pass"}
	if got, ok := sources[1].(GPGFile); !ok || got != want {
		t.Errorf("sources[1] = %#v, want %#v", sources[1], want)
	}
}

func TestDefaultCredentialPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	want := filepath.Join(home, ".meme-magic", "credentials.gpg")
	if got := defaultCredentialPath(); got != want {
		t.Errorf("defaultCredentialPath() = %q, want %q", got, want)
	}
}

type staticKey struct {
	name string
	key  string
	err  error
}

func (s staticKey) Name() string { return s.name }

func (s staticKey) APIKey(context.Context) (string, error) { return s.key, s.err }

func TestFirstKey(t *testing.T) {
	missing := staticKey{name: "missing", err: errors.New("not set")}

	key, err := FirstKey(context.Background(), missing, staticKey{name: "second", key: "k2"}, staticKey{name: "third", key: "k3"})
	if err != nil || key != "k2" {
		t.Errorf("FirstKey() = %q, %v, want k2", key, err)
	}

	if _, err := FirstKey(context.Background()); err == nil {
		t.Error("FirstKey() with no sources should fail")
	}
}

func TestGPGFileNotFound(t *testing.T) {
	src := GPGFile{Path: filepath.Join(t.TempDir(), "credentials.gpg")}
	if _, err := src.APIKey(context.Background()); err == nil {
		t.Error("expected error when credentials file does not exist")
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ValidationErrorType
	}{
		{name: "api 403", err: genai.APIError{Code: 403, Message: "denied"}, want: ErrTypeInvalidKey},
		{name: "wrapped api 429", err: fmt.Errorf("call: %w", genai.APIError{Code: 429}), want: ErrTypeQuotaExceeded},
		{name: "api pointer 503", err: &genai.APIError{Code: 503}, want: ErrTypeNetworkError},
		{name: "api 404", err: genai.APIError{Code: 404, Message: "model not found"}, want: ErrTypeUnknown},
		{name: "invalid key text", err: errors.New("API key not valid. Please pass a valid API key."), want: ErrTypeInvalidKey},
		{name: "quota text", err: errors.New("Resource exhausted"), want: ErrTypeQuotaExceeded},
		{name: "dial failure", err: errors.New("dial tcp: lookup generativelanguage.googleapis.com: no such host"), want: ErrTypeNetworkError},
		{name: "anything else", err: errors.New("boom"), want: ErrTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyError(tt.err)
			if got.Type != tt.want {
				t.Errorf("classifyError() type = %v, want %v", got.Type, tt.want)
			}
			if got.Err == nil {
				t.Errorf("classifyError() dropped the cause")
			}
		})
	}
}

type stubModels struct {
	resp *genai.GenerateContentResponse
	err  error
}

func (s stubModels) GenerateContent(context.Context, string, []*genai.Content, *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	return s.resp, s.err
}

func TestValidate(t *testing.T) {
	ok := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{Content: genai.NewContentFromText("hello", genai.RoleModel)}}}

	if err := validate(context.Background(), stubModels{resp: ok}, "test-model"); err != nil {
		t.Errorf("validate() error = %v, want nil", err)
	}

	err := validate(context.Background(), stubModels{resp: &genai.GenerateContentResponse{}}, "test-model")
	var valErr *ValidationError
	if !errors.As(err, &valErr) || valErr.Type != ErrTypeUnknown {
		t.Errorf("validate(empty) error = %v, want unknown ValidationError", err)
	}

	err = validate(context.Background(), stubModels{err: genai.APIError{Code: 401}}, "test-model")
	if !errors.As(err, &valErr) || valErr.Type != ErrTypeInvalidKey {
		t.Errorf("validate(401) error = %v, want invalid key ValidationError", err)
	}
}
