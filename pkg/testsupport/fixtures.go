package testsupport

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formcover/pkg/questionnaire"
)

//go:embed testdata/*
var fixtures embed.FS

// Fixture names shipped with the package.
const (
	// ServiceFixture has one gatekeeper (ServiceType A/B/C), a hidden Plan
	// defaulting to B and a second-level Region branch.
	ServiceFixture = "service.json"
	// HiddenGateFixture has a question gated on a hidden field without a
	// default, which can never be shown.
	HiddenGateFixture = "hidden_gate.yaml"
	// FlatFixture has three independent test variables and no gatekeeper.
	FlatFixture = "flat.json"
)

// FixtureBytes returns the raw bytes of an embedded fixture.
func FixtureBytes(name string) ([]byte, error) {
	data, err := fixtures.ReadFile("testdata/" + name)
	if err != nil {
		return nil, fmt.Errorf("testsupport: read fixture %q: %w", name, err)
	}
	return data, nil
}

// FixtureFS exposes the embedded fixtures rooted at testdata.
func FixtureFS() embed.FS {
	return fixtures
}

// MustFixtureBytes is FixtureBytes for tests.
func MustFixtureBytes(t *testing.T, name string) []byte {
	t.Helper()
	data, err := FixtureBytes(name)
	if err != nil {
		t.Fatalf("%v", err)
	}
	return data
}

// LoadForm decodes an embedded fixture into a Form.
func LoadForm(t *testing.T, name string) *questionnaire.Form {
	t.Helper()

	form, err := questionnaire.Decode(MustFixtureBytes(t, name), questionnaire.WithLogger(QuietLogger()))
	if err != nil {
		t.Fatalf("decode fixture %q: %v", name, err)
	}
	return form
}

// LoadFormFromPath decodes a form document from disk without requiring
// testing.T, for setup helpers.
func LoadFormFromPath(path string) (*questionnaire.Form, error) {
	if path == "" {
		return nil, errors.New("testsupport: form path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("testsupport: read form: %w", err)
	}
	form, err := questionnaire.Decode(data, questionnaire.WithLogger(QuietLogger()))
	if err != nil {
		return nil, fmt.Errorf("testsupport: decode form: %w", err)
	}
	return form, nil
}

// QuietLogger discards everything; tests use it to keep output clean.
func QuietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}

// CompareGolden returns a diff string if the values differ.
func CompareGolden(want, got any) string {
	return cmp.Diff(want, got)
}

// MustReadGolden reads a golden file and returns its raw bytes.
func MustReadGolden(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	return data
}

// WriteMaybeGolden updates a golden file when UPDATE_GOLDENS is set. Returns
// true if the golden was written (test should exit early).
func WriteMaybeGolden(t *testing.T, path string, data []byte) bool {
	t.Helper()
	if os.Getenv("UPDATE_GOLDENS") == "" {
		return false
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
	return true
}

// CaptureOutput runs a render function against a buffer and returns what it
// wrote.
func CaptureOutput(t *testing.T, render func(io.Writer) error) string {
	t.Helper()

	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		t.Fatalf("render: %v", err)
	}
	return buf.String()
}
