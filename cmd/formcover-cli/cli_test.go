package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fatih/color"

	"github.com/goliatone/go-formcover/pkg/explorer"
	"github.com/goliatone/go-formcover/pkg/testsupport"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

type harness struct {
	app    *app
	stdout bytes.Buffer
	stderr bytes.Buffer
}

func newHarness() *harness {
	h := &harness{}
	h.app = newApp(&h.stdout, &h.stderr)
	return h
}

func (h *harness) run(t *testing.T, args ...string) error {
	t.Helper()
	cmd := h.app.rootCommand()
	cmd.SetArgs(append([]string{"--log-level", "error"}, args...))
	return cmd.ExecuteContext(context.Background())
}

func writeFixture(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, testsupport.MustFixtureBytes(t, name), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestRootCommandWritesToInjectedStreams(t *testing.T) {
	h := newHarness()
	if err := h.run(t, "--version"); err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(h.stdout.String(), version) {
		t.Fatalf("version output not written to injected stdout: %q", h.stdout.String())
	}

	h = newHarness()
	if err := h.run(t, "--help"); err != nil {
		t.Fatalf("help: %v", err)
	}
	if !strings.Contains(h.stdout.String(), "generate") {
		t.Fatalf("help output not written to injected stdout: %q", h.stdout.String())
	}
}

func TestGenerateWritesPlanNextToForm(t *testing.T) {
	form := writeFixture(t, testsupport.ServiceFixture)
	h := newHarness()
	if err := h.run(t, "generate", form, "--format", "text,gating-csv"); err != nil {
		t.Fatalf("generate: %v\n%s", err, h.stderr.String())
	}

	dir := filepath.Dir(form)
	for _, name := range []string{"Service Intake_test_plan.txt", "Service Intake_gating_relationships.csv"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("expected %s: %v", name, err)
		}
	}
	out := h.stdout.String()
	if !strings.Contains(out, "Coverage: 8/8 (100.0%)") {
		t.Fatalf("summary missing coverage:\n%s", out)
	}
}

func TestGenerateToStdoutAsJSON(t *testing.T) {
	form := writeFixture(t, testsupport.FlatFixture)
	h := newHarness()
	if err := h.run(t, "generate", form, "--format", "json", "--stdout", "--seed", "5"); err != nil {
		t.Fatalf("generate: %v", err)
	}
	var decoded struct {
		Seed  uint64            `json:"seed"`
		Cases []json.RawMessage `json:"cases"`
	}
	if err := json.Unmarshal(h.stdout.Bytes(), &decoded); err != nil {
		t.Fatalf("decode stdout: %v\n%s", err, h.stdout.String())
	}
	if decoded.Seed != 5 || len(decoded.Cases) == 0 {
		t.Fatalf("unexpected plan: seed=%d cases=%d", decoded.Seed, len(decoded.Cases))
	}
}

func TestGenerateWithoutTestVariablesExitsCleanly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.json")
	doc := `{"name": "Plain", "pages": [{"pageItems": [{"label": "Name", "type": "text"}, {"label": "Email", "type": "email"}]}]}`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	h := newHarness()
	if err := h.run(t, "generate", path); err != nil {
		t.Fatalf("expected graceful exit, got %v", err)
	}
	if !strings.Contains(h.stdout.String(), "No test variables found") {
		t.Fatalf("expected explanation, got:\n%s", h.stdout.String())
	}
}

func TestGenerateRejectsUnknownFormat(t *testing.T) {
	form := writeFixture(t, testsupport.FlatFixture)
	h := newHarness()
	if err := h.run(t, "generate", form, "--format", "pdf"); err == nil {
		t.Fatalf("expected unknown renderer error")
	}
}

func TestIndexWritesBothCSVs(t *testing.T) {
	form := writeFixture(t, testsupport.ServiceFixture)
	out := t.TempDir()
	h := newHarness()
	if err := h.run(t, "index", form, out); err != nil {
		t.Fatalf("index: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(out, "Service Intake_question_index.csv"))
	if err != nil {
		t.Fatalf("read index: %v", err)
	}
	if !strings.HasPrefix(string(data), "Questionnaire_Name,Question_Number,Question_Label") {
		t.Fatalf("unexpected index header:\n%s", data)
	}
	if _, err := os.Stat(filepath.Join(out, "Service Intake_gating_relationships.csv")); err != nil {
		t.Fatalf("gating csv missing: %v", err)
	}
	if !strings.Contains(h.stdout.String(), "2 test variables, 6 data collection, 1 hidden") {
		t.Fatalf("unexpected summary:\n%s", h.stdout.String())
	}
}

func TestValidate(t *testing.T) {
	form := writeFixture(t, testsupport.ServiceFixture)

	h := newHarness()
	if err := h.run(t, "validate", form, "--set", "ServiceType=B", "--set", "Region=EU"); err != nil {
		t.Fatalf("validate: %v", err)
	}
	out := h.stdout.String()
	if !strings.Contains(out, "VALID") || !strings.Contains(out, "Q9 DataResidency") {
		t.Fatalf("unexpected output:\n%s", out)
	}

	h = newHarness()
	if err := h.run(t, "validate", form, "--set", "ServiceType=Z"); err == nil {
		t.Fatalf("expected invalid value to fail")
	}
	if !strings.Contains(h.stdout.String(), "INVALID:") {
		t.Fatalf("expected reason, got:\n%s", h.stdout.String())
	}

	h = newHarness()
	if err := h.run(t, "validate", form, "--set", "Nope=1"); err == nil {
		t.Fatalf("expected unknown label to fail")
	}
}

type scriptedDriver struct {
	picks []int
	infos []string
}

func (d *scriptedDriver) Confirm(context.Context, explorer.ConfirmConfig) (bool, error) {
	return false, nil
}

func (d *scriptedDriver) Select(context.Context, explorer.SelectConfig) (int, error) {
	if len(d.picks) == 0 {
		return -1, explorer.ErrAborted
	}
	pick := d.picks[0]
	d.picks = d.picks[1:]
	return pick, nil
}

func (d *scriptedDriver) Info(_ context.Context, msg string) error {
	d.infos = append(d.infos, msg)
	return nil
}

func TestExploreWithPreset(t *testing.T) {
	form := writeFixture(t, testsupport.ServiceFixture)
	driver := &scriptedDriver{picks: []int{0}}
	h := newHarness()
	h.app.promptDriver = driver
	if err := h.run(t, "explore", form, "--set", "ServiceType=B"); err != nil {
		t.Fatalf("explore: %v", err)
	}
	if len(driver.infos) != 1 || !strings.Contains(driver.infos[0], "Q4 Region = EU") {
		t.Fatalf("unexpected summaries: %v", driver.infos)
	}
	if !strings.Contains(h.stdout.String(), "Explored 1 path(s).") {
		t.Fatalf("unexpected output:\n%s", h.stdout.String())
	}
}

func TestExploreAbortIsNotAnError(t *testing.T) {
	form := writeFixture(t, testsupport.ServiceFixture)
	h := newHarness()
	h.app.promptDriver = &scriptedDriver{}
	if err := h.run(t, "explore", form); err != nil {
		t.Fatalf("explore: %v", err)
	}
	if !strings.Contains(h.stdout.String(), "Exploration aborted.") {
		t.Fatalf("unexpected output:\n%s", h.stdout.String())
	}
}

func TestMetricsFileIsWritten(t *testing.T) {
	form := writeFixture(t, testsupport.ServiceFixture)
	metrics := filepath.Join(t.TempDir(), "formcover.prom")
	h := newHarness()
	if err := h.run(t, "generate", form, t.TempDir(), "--metrics-file", metrics); err != nil {
		t.Fatalf("generate: %v", err)
	}
	data, err := os.ReadFile(metrics)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	for _, want := range []string{"formcover_solver_checks_total", `formcover_plan_cases{form="Service Intake"}`} {
		if !strings.Contains(string(data), want) {
			t.Fatalf("metrics missing %q:\n%s", want, data)
		}
	}
}

func TestWatchFileRegeneratesOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "form.json")
	if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	changed := make(chan struct{}, 4)
	done := make(chan error, 1)
	go func() {
		done <- watchFile(ctx, path, 20*time.Millisecond, testsupport.QuietLogger(), func() error {
			calls.Add(1)
			changed <- struct{}{}
			return nil
		})
	}()

	select {
	case <-changed:
	case <-time.After(2 * time.Second):
		t.Fatalf("initial generation did not run")
	}
	if err := os.WriteFile(path, []byte(`{"name": "x"}`), 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatalf("write did not trigger regeneration")
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("watch: %v", err)
	}
	if calls.Load() < 2 {
		t.Fatalf("expected at least two runs, got %d", calls.Load())
	}
}
