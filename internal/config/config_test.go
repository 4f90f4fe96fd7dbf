package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/LHacuevas/strideSync/internal/cadence"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	// Test cadence defaults
	if cfg.Cadence.Min != 160 {
		t.Errorf("Cadence.Min = %v, want 160", cfg.Cadence.Min)
	}
	if cfg.Cadence.Max != 175 {
		t.Errorf("Cadence.Max = %v, want 175", cfg.Cadence.Max)
	}
	if cfg.Cadence.Adjust {
		t.Error("Cadence.Adjust should be off by default")
	}
	if cfg.Cadence.AdjustUpRate != 2 || cfg.Cadence.AdjustUpInterval != 10 {
		t.Errorf("adjust up = %v/%vs, want 2/10s", cfg.Cadence.AdjustUpRate, cfg.Cadence.AdjustUpInterval)
	}
	if cfg.Cadence.AnnouncementInterval != 0 {
		t.Errorf("Cadence.AnnouncementInterval = %v, want 0", cfg.Cadence.AnnouncementInterval)
	}

	// Test feedback and detector defaults
	if cfg.Feedback.Margin != 3 || cfg.Feedback.Floor != 140 {
		t.Errorf("Feedback = %+v, want margin 3 floor 140", cfg.Feedback)
	}
	if cfg.Detector.Threshold != 0 || cfg.Detector.Alpha != 0.8 {
		t.Errorf("Detector = %+v, want mode-default threshold alpha 0.8", cfg.Detector)
	}

	// Test sensor defaults
	if cfg.Sensor.Source != SourceSimulated {
		t.Errorf("Sensor.Source = %q, want %q", cfg.Sensor.Source, SourceSimulated)
	}
	if cfg.Sensor.SimulatedSPM != 170 {
		t.Errorf("Sensor.SimulatedSPM = %v, want 170", cfg.Sensor.SimulatedSPM)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() error = %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name        string
		modify      func(*Config)
		expectError bool
		errContains string
	}{
		{
			name:   "valid config",
			modify: func(c *Config) {},
		},
		{
			name:   "valid adjusting config",
			modify: func(c *Config) { c.Cadence.Adjust = true },
		},
		{
			name:        "min not below max",
			modify:      func(c *Config) { c.Cadence.Min = 175 },
			expectError: true,
			errContains: "cadence.min",
		},
		{
			name:        "zero min",
			modify:      func(c *Config) { c.Cadence.Min = 0 },
			expectError: true,
			errContains: "positive",
		},
		{
			name:        "negative hold",
			modify:      func(c *Config) { c.Cadence.HoldHighDuration = -1 },
			expectError: true,
			errContains: "hold durations",
		},
		{
			name:        "negative detector threshold",
			modify:      func(c *Config) { c.Detector.Threshold = -1 },
			expectError: true,
			errContains: "detector.threshold",
		},
		{
			name: "zero rate with adjust",
			modify: func(c *Config) {
				c.Cadence.Adjust = true
				c.Cadence.AdjustDownRate = 0
			},
			expectError: true,
			errContains: "rates",
		},
		{
			name:   "zero rate without adjust",
			modify: func(c *Config) { c.Cadence.AdjustDownRate = 0 },
		},
		{
			name: "zero interval with adjust",
			modify: func(c *Config) {
				c.Cadence.Adjust = true
				c.Cadence.AdjustUpInterval = 0
			},
			expectError: true,
			errContains: "intervals",
		},
		{
			name:        "unknown beat frequency",
			modify:      func(c *Config) { c.Cadence.BeatFrequency = "double" },
			expectError: true,
			errContains: "beat_frequency",
		},
		{
			name:        "unknown detector mode",
			modify:      func(c *Config) { c.Detector.Mode = "peak" },
			expectError: true,
			errContains: "detector.mode",
		},
		{
			name:        "unknown source",
			modify:      func(c *Config) { c.Sensor.Source = "bluetooth" },
			expectError: true,
			errContains: "sensor.source",
		},
		{
			name:        "replay without file",
			modify:      func(c *Config) { c.Sensor.Source = SourceReplay },
			expectError: true,
			errContains: "replay_file",
		},
		{
			name: "mqtt with broker",
			modify: func(c *Config) {
				c.Sensor.Source = SourceMQTT
				c.Sensor.MQTTBroker = "tcp://localhost:1883"
			},
		},
		{
			name:        "mqtt without broker",
			modify:      func(c *Config) { c.Sensor.Source = SourceMQTT },
			expectError: true,
			errContains: "mqtt_broker",
		},
		{
			name:        "serial without port",
			modify:      func(c *Config) { c.Sensor.Source = SourceSerial },
			expectError: true,
			errContains: "serial_port",
		},
		{
			name:        "bad log level",
			modify:      func(c *Config) { c.Log.Level = "verbose" },
			expectError: true,
			errContains: "log.level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			err := cfg.Validate()
			if tt.expectError {
				if err == nil {
					t.Error("expected error, got nil")
				} else if tt.errContains != "" && !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("error %q should contain %q", err.Error(), tt.errContains)
				}
			} else {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadFile(filepath.Join(dir, "nope.json"))
		if !errors.Is(err, ErrNoConfig) {
			t.Errorf("LoadFile() error = %v, want ErrNoConfig", err)
		}
	})

	t.Run("json keeps defaults for missing fields", func(t *testing.T) {
		path := filepath.Join(dir, "partial.json")
		data := `{"cadence": {"min": 150, "max": 165, "hold_low_duration": 0}, "log": {"level": ""}}`
		if err := os.WriteFile(path, []byte(data), 0644); err != nil {
			t.Fatal(err)
		}

		cfg, err := LoadFile(path)
		if err != nil {
			t.Fatalf("LoadFile() error = %v", err)
		}
		if cfg.Cadence.Min != 150 || cfg.Cadence.Max != 165 {
			t.Errorf("Cadence = %v-%v, want 150-165", cfg.Cadence.Min, cfg.Cadence.Max)
		}
		if cfg.Cadence.HoldLowDuration != 0 {
			t.Errorf("HoldLowDuration = %v, want explicit 0", cfg.Cadence.HoldLowDuration)
		}
		if cfg.Cadence.AdjustUpRate != 2 {
			t.Errorf("AdjustUpRate = %v, want default 2", cfg.Cadence.AdjustUpRate)
		}
		if cfg.Log.Level != "info" {
			t.Errorf("Log.Level = %q, want info", cfg.Log.Level)
		}
	})

	t.Run("yaml", func(t *testing.T) {
		path := filepath.Join(dir, "config.yaml")
		data := "cadence:\n  adjust: true\n  beat_frequency: cycle\nsensor:\n  source: mqtt\n  mqtt_broker: tcp://broker:1883\n"
		if err := os.WriteFile(path, []byte(data), 0644); err != nil {
			t.Fatal(err)
		}

		cfg, err := LoadFile(path)
		if err != nil {
			t.Fatalf("LoadFile() error = %v", err)
		}
		if !cfg.Cadence.Adjust || cfg.Cadence.BeatFrequency != "cycle" {
			t.Errorf("Cadence = %+v, want adjust with cycle beat", cfg.Cadence)
		}
		if cfg.Sensor.MQTTTopic != "stridesync/motion" {
			t.Errorf("Sensor.MQTTTopic = %q, want default topic", cfg.Sensor.MQTTTopic)
		}
		if err := cfg.Validate(); err != nil {
			t.Errorf("Validate() error = %v", err)
		}
	})

	t.Run("malformed", func(t *testing.T) {
		path := filepath.Join(dir, "bad.json")
		if err := os.WriteFile(path, []byte("{"), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadFile(path); err == nil || errors.Is(err, ErrNoConfig) {
			t.Errorf("LoadFile() error = %v, want parse error", err)
		}
	})
}

func TestSaveAndCreateExample(t *testing.T) {
	dir := t.TempDir()

	for _, name := range []string{"nested/config.json", "nested/config.yml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			cfg := DefaultConfig()
			cfg.Cadence.Min = 155
			if err := SaveFile(path, &cfg); err != nil {
				t.Fatalf("SaveFile() error = %v", err)
			}
			got, err := LoadFile(path)
			if err != nil {
				t.Fatalf("LoadFile() error = %v", err)
			}
			if got.Cadence.Min != 155 {
				t.Errorf("Cadence.Min = %v, want 155", got.Cadence.Min)
			}
		})
	}

	t.Run("example does not overwrite", func(t *testing.T) {
		path := filepath.Join(dir, "example.json")
		if _, err := CreateExample(path); err != nil {
			t.Fatalf("CreateExample() error = %v", err)
		}
		cfg, err := LoadFile(path)
		if err != nil {
			t.Fatalf("LoadFile() error = %v", err)
		}
		if !cfg.Cadence.Adjust || cfg.Speech.Command != "espeak" {
			t.Errorf("example = %+v", cfg)
		}

		if err := os.WriteFile(path, []byte(`{"cadence":{"min":100}}`), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := CreateExample(path); err != nil {
			t.Fatalf("CreateExample() error = %v", err)
		}
		cfg, _ = LoadFile(path)
		if cfg.Cadence.Min != 100 {
			t.Errorf("CreateExample() overwrote an existing config")
		}
	})
}

func TestConversions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Cadence.BeatFrequency = "cycle"
	cfg.Cadence.AnnouncementInterval = 45

	s := cfg.Cadence.Settings()
	if s.BeatFrequency != cadence.BeatCycle {
		t.Errorf("BeatFrequency = %v, want cycle", s.BeatFrequency)
	}
	if s.AnnouncementInterval != 45 || s.Min != 160 || s.Max != 175 {
		t.Errorf("Settings() = %+v", s)
	}
	if s.Midpoint() != 167.5 {
		t.Errorf("Midpoint() = %v, want 167.5", s.Midpoint())
	}

	if got := cfg.Feedback.Feedback(); got != cadence.DefaultFeedbackConfig() {
		t.Errorf("Feedback() = %+v, want defaults", got)
	}
	if got := cfg.Detector.Detector(); got != cadence.DefaultDetectorConfig() {
		t.Errorf("Detector() = %+v, want defaults", got)
	}
}

func TestDetectorThresholdFollowsMode(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name      string
		data      string
		threshold float64
	}{
		{"linear default", `{"detector": {"mode": "linear"}}`, cadence.DefaultLinearThreshold},
		{"raw-axis default", `{"detector": {"mode": "raw-axis"}}`, cadence.DefaultRawAxisThreshold},
		{"explicit threshold wins", `{"detector": {"mode": "raw-axis", "threshold": 12}}`, 12},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, string(rune('a'+i))+".json")
			if err := os.WriteFile(path, []byte(tt.data), 0644); err != nil {
				t.Fatal(err)
			}
			cfg, err := LoadFile(path)
			if err != nil {
				t.Fatalf("LoadFile() error = %v", err)
			}
			if err := cfg.Validate(); err != nil {
				t.Fatalf("Validate() error = %v", err)
			}
			if got := cfg.Detector.Detector().Threshold; got != tt.threshold {
				t.Errorf("Detector().Threshold = %v, want %v", got, tt.threshold)
			}
		})
	}
}

func TestRawAxisConfigDetectsSteps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raw.json")
	if err := os.WriteFile(path, []byte(`{"detector": {"mode": "raw-axis"}}`), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	d := cadence.NewStepDetector(cfg.Detector.Detector())

	// 50 Hz resting on gravity with a vertical spike every 360ms
	t0 := time.Unix(1000, 0)
	want := 0
	for i := 0; i < 500; i++ {
		y := 9.81
		if i > 0 && i%18 == 0 {
			y = 18
			want++
		}
		d.OnSample(cadence.MotionSample{Time: t0.Add(time.Duration(i) * 20 * time.Millisecond), Accel: [3]float64{0, y, 0}})
	}
	if d.TotalSteps() != want {
		t.Errorf("TotalSteps() = %d, want %d", d.TotalSteps(), want)
	}
}
