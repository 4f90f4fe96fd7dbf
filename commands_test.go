package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/LHacuevas/strideSync/internal/session"
	"github.com/LHacuevas/strideSync/internal/store"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()

	valid := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(valid, []byte("cadence:\n  min: 150\n  max: 165\n"), 0644); err != nil {
		t.Fatal(err)
	}
	invalid := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(invalid, []byte("cadence:\n  min: 170\n  max: 160\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig(valid)
	if err != nil {
		t.Fatalf("loadConfig(valid) error = %v", err)
	}
	if cfg.Cadence.Min != 150 || cfg.Cadence.Max != 165 {
		t.Errorf("cadence range = %v-%v, want 150-165", cfg.Cadence.Min, cfg.Cadence.Max)
	}

	if _, err := loadConfig(invalid); err == nil || !strings.Contains(err.Error(), "invalid config") {
		t.Errorf("loadConfig(invalid) error = %v, want validation error", err)
	}

	if _, err := loadConfig(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("loadConfig() with an explicit missing file should fail")
	}
}

func TestInitCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"init", "--config", path})
	if err := root.Execute(); err != nil {
		t.Fatalf("init error = %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Errorf("config not written: %v", err)
	}
	if !strings.Contains(out.String(), path) {
		t.Errorf("output = %q, want the config path", out.String())
	}
}

func testSummary() session.Summary {
	c := 168
	return session.Summary{
		SessionID:  "3f1c",
		Duration:   90 * time.Second,
		TotalSteps: 1250,
		AvgCadence: 168,
		AvgTarget:  167.5,
		Zones:      store.ZoneTotals{In: 60 * time.Second, Below: 30 * time.Second},
		Points: []store.Point{
			{Seq: 0, RecordedAt: time.Date(2024, 5, 4, 7, 30, 1, 0, time.UTC), Elapsed: time.Second, Cadence: &c, Target: 167.5, Zone: store.ZoneIn, Interval: time.Second},
		},
	}
}

func TestPrintSummaryShowsEndTime(t *testing.T) {
	s := testSummary()
	var out bytes.Buffer
	printSummary(&out, s)
	if strings.Contains(out.String(), "Ended:") {
		t.Errorf("active session printed an end time:\n%s", out.String())
	}

	ended := time.Date(2024, 5, 4, 8, 0, 0, 0, time.UTC)
	s.EndedAt = &ended
	out.Reset()
	printSummary(&out, s)
	if !strings.Contains(out.String(), ended.Local().Format(time.RFC1123)) {
		t.Errorf("summary missing end time:\n%s", out.String())
	}
}

func TestPrintSummary(t *testing.T) {
	var out bytes.Buffer
	printSummary(&out, testSummary())

	for _, want := range []string{"Session 3f1c", "1m30s", "1,250", "168 spm", "167.5 spm", "33% below, 67% in, 0% above", "Good rhythm"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("summary missing %q:\n%s", want, out.String())
		}
	}
}

func TestExportCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.csv")
	if err := exportCSV(path, testSummary()); err != nil {
		t.Fatalf("exportCSV() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("exported %d lines, want header plus 1 row", len(lines))
	}

	if err := exportCSV(filepath.Join(t.TempDir(), "missing", "run.csv"), testSummary()); err == nil {
		t.Error("exportCSV() into a missing directory should fail")
	}
}
