package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/LHacuevas/strideSync/internal/cadence"
)

// Config represents the application configuration
type Config struct {
	Cadence  CadenceConfig  `json:"cadence" yaml:"cadence"`
	Feedback FeedbackConfig `json:"feedback" yaml:"feedback"`
	Detector DetectorConfig `json:"detector" yaml:"detector"`
	Sensor   SensorConfig   `json:"sensor" yaml:"sensor"`
	Speech   SpeechConfig   `json:"speech" yaml:"speech"`
	Log      LogConfig      `json:"log" yaml:"log"`
}

// CadenceConfig holds the target cadence settings. Durations and intervals
// are in seconds, rates in steps per minute.
type CadenceConfig struct {
	Min                  float64 `json:"min" yaml:"min"`
	Max                  float64 `json:"max" yaml:"max"`
	Adjust               bool    `json:"adjust" yaml:"adjust"`
	HoldLowDuration      float64 `json:"hold_low_duration" yaml:"hold_low_duration"`
	AdjustUpRate         float64 `json:"adjust_up_rate" yaml:"adjust_up_rate"`
	AdjustUpInterval     float64 `json:"adjust_up_interval" yaml:"adjust_up_interval"`
	HoldHighDuration     float64 `json:"hold_high_duration" yaml:"hold_high_duration"`
	AdjustDownRate       float64 `json:"adjust_down_rate" yaml:"adjust_down_rate"`
	AdjustDownInterval   float64 `json:"adjust_down_interval" yaml:"adjust_down_interval"`
	AnnouncementInterval float64 `json:"announcement_interval" yaml:"announcement_interval"`
	BeatFrequency        string  `json:"beat_frequency" yaml:"beat_frequency"`
}

// FeedbackConfig holds zone classification settings
type FeedbackConfig struct {
	Margin float64 `json:"margin" yaml:"margin"`
	Floor  int     `json:"floor" yaml:"floor"`
}

// DetectorConfig holds step detection tuning. A zero threshold uses the
// default for the selected mode.
type DetectorConfig struct {
	Mode      string  `json:"mode" yaml:"mode"`
	Threshold float64 `json:"threshold" yaml:"threshold"`
	Alpha     float64 `json:"alpha" yaml:"alpha"`
}

// SensorConfig selects and configures the motion sample source
type SensorConfig struct {
	Source        string `json:"source" yaml:"source"`
	SimulatedSPM  int    `json:"simulated_spm" yaml:"simulated_spm"`
	ReplayFile    string `json:"replay_file,omitempty" yaml:"replay_file,omitempty"`
	MQTTBroker    string `json:"mqtt_broker,omitempty" yaml:"mqtt_broker,omitempty"`
	MQTTTopic     string `json:"mqtt_topic,omitempty" yaml:"mqtt_topic,omitempty"`
	MQTTClientID  string `json:"mqtt_client_id,omitempty" yaml:"mqtt_client_id,omitempty"`
	WebSocketAddr string `json:"websocket_addr,omitempty" yaml:"websocket_addr,omitempty"`
	SerialPort    string `json:"serial_port,omitempty" yaml:"serial_port,omitempty"`
	SerialBaud    int    `json:"serial_baud,omitempty" yaml:"serial_baud,omitempty"`
}

// SpeechConfig holds the external text-to-speech command. An empty command
// logs announcements instead of speaking them.
type SpeechConfig struct {
	Command string   `json:"command" yaml:"command"`
	Args    []string `json:"args,omitempty" yaml:"args,omitempty"`
}

// LogConfig holds logging preferences
type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
	File   string `json:"file,omitempty" yaml:"file,omitempty"`
}

// Sensor sources
const (
	SourceSimulated = "simulated"
	SourceReplay    = "replay"
	SourceMQTT      = "mqtt"
	SourceWebSocket = "websocket"
	SourceSerial    = "serial"
)

// ErrNoConfig is returned when the config file doesn't exist
var ErrNoConfig = errors.New("config file not found")

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Cadence: CadenceConfig{
			Min:                160,
			Max:                175,
			Adjust:             false,
			HoldLowDuration:    30,
			AdjustUpRate:       2,
			AdjustUpInterval:   10,
			HoldHighDuration:   30,
			AdjustDownRate:     2,
			AdjustDownInterval: 10,
			BeatFrequency:      string(cadence.BeatStep),
		},
		Feedback: FeedbackConfig{
			Margin: cadence.DefaultZoneMargin,
			Floor:  cadence.DefaultValidityFloor,
		},
		Detector: DetectorConfig{
			Mode:  string(cadence.ModeLinear),
			Alpha: cadence.DefaultAlpha,
		},
		Sensor: SensorConfig{
			Source:        SourceSimulated,
			SimulatedSPM:  170,
			MQTTTopic:     "stridesync/motion",
			MQTTClientID:  "stridesync",
			WebSocketAddr: ":8765",
			SerialBaud:    115200,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads the configuration from ~/.stridesync/config.json
func Load() (*Config, error) {
	path, err := getConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile reads the configuration from path. Files ending in .yaml or .yml
// are parsed as YAML, anything else as JSON. Fields missing from the file
// keep their defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, ErrNoConfig
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if isYAML(path) {
		err = yaml.Unmarshal(data, &cfg)
	} else {
		err = json.Unmarshal(data, &cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply defaults for emptied values
	defaults := DefaultConfig()
	if cfg.Cadence.BeatFrequency == "" {
		cfg.Cadence.BeatFrequency = defaults.Cadence.BeatFrequency
	}
	if cfg.Detector.Mode == "" {
		cfg.Detector.Mode = defaults.Detector.Mode
	}
	if cfg.Sensor.Source == "" {
		cfg.Sensor.Source = defaults.Sensor.Source
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaults.Log.Level
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = defaults.Log.Format
	}

	return &cfg, nil
}

// SaveFile writes the configuration to path, as YAML or JSON by extension
func SaveFile(path string, cfg *Config) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	var data []byte
	var err error
	if isYAML(path) {
		data, err = yaml.Marshal(cfg)
	} else {
		data, err = json.MarshalIndent(cfg, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// CreateExample writes an example config to path (the default location when
// empty) unless one exists. It returns the path used.
func CreateExample(path string) (string, error) {
	if path == "" {
		var err error
		path, err = getConfigPath()
		if err != nil {
			return "", err
		}
	}

	// Check if config already exists
	if _, err := os.Stat(path); err == nil {
		return path, nil // Config exists, don't overwrite
	}

	example := DefaultConfig()
	example.Cadence.Adjust = true
	example.Cadence.AnnouncementInterval = 60
	example.Speech.Command = "espeak"

	return path, SaveFile(path, &example)
}

// Validate checks that the settings are usable. The cadence engine trusts
// its settings, so this is the only place they are sanitized.
func (c *Config) Validate() error {
	cc := c.Cadence
	if cc.Min <= 0 {
		return fmt.Errorf("cadence.min must be positive, got %v", cc.Min)
	}
	if cc.Min >= cc.Max {
		return fmt.Errorf("cadence.min (%v) must be less than cadence.max (%v)", cc.Min, cc.Max)
	}
	if cc.HoldLowDuration < 0 || cc.HoldHighDuration < 0 {
		return errors.New("cadence hold durations must not be negative")
	}
	if cc.AnnouncementInterval < 0 {
		return fmt.Errorf("cadence.announcement_interval must not be negative, got %v", cc.AnnouncementInterval)
	}
	if cc.Adjust {
		if cc.AdjustUpRate <= 0 || cc.AdjustDownRate <= 0 {
			return errors.New("cadence adjust rates must be positive when adjust is enabled")
		}
		if cc.AdjustUpInterval <= 0 || cc.AdjustDownInterval <= 0 {
			return errors.New("cadence adjust intervals must be positive when adjust is enabled")
		}
	}
	switch cadence.BeatFrequency(cc.BeatFrequency) {
	case cadence.BeatStep, cadence.BeatCycle:
	default:
		return fmt.Errorf("cadence.beat_frequency must be \"step\" or \"cycle\", got %q", cc.BeatFrequency)
	}

	if c.Feedback.Margin < 0 {
		return fmt.Errorf("feedback.margin must not be negative, got %v", c.Feedback.Margin)
	}

	switch cadence.DetectorMode(c.Detector.Mode) {
	case cadence.ModeLinear, cadence.ModeRawAxis:
	default:
		return fmt.Errorf("detector.mode must be \"linear\" or \"raw-axis\", got %q", c.Detector.Mode)
	}
	if c.Detector.Threshold < 0 {
		return fmt.Errorf("detector.threshold must not be negative, got %v", c.Detector.Threshold)
	}
	if c.Detector.Alpha < 0 || c.Detector.Alpha >= 1 {
		return fmt.Errorf("detector.alpha must be in [0, 1), got %v", c.Detector.Alpha)
	}

	if err := c.Sensor.validate(); err != nil {
		return err
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error, got %q", c.Log.Level)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("log.format must be \"text\" or \"json\", got %q", c.Log.Format)
	}

	return nil
}

func (s SensorConfig) validate() error {
	switch s.Source {
	case SourceSimulated:
		if s.SimulatedSPM < 0 {
			return fmt.Errorf("sensor.simulated_spm must not be negative, got %d", s.SimulatedSPM)
		}
	case SourceReplay:
		if s.ReplayFile == "" {
			return errors.New("sensor.replay_file is required for the replay source")
		}
	case SourceMQTT:
		if s.MQTTBroker == "" || s.MQTTTopic == "" {
			return errors.New("sensor.mqtt_broker and sensor.mqtt_topic are required for the mqtt source")
		}
	case SourceWebSocket:
		if s.WebSocketAddr == "" {
			return errors.New("sensor.websocket_addr is required for the websocket source")
		}
	case SourceSerial:
		if s.SerialPort == "" {
			return errors.New("sensor.serial_port is required for the serial source")
		}
		if s.SerialBaud <= 0 {
			return fmt.Errorf("sensor.serial_baud must be positive, got %d", s.SerialBaud)
		}
	default:
		return fmt.Errorf("sensor.source %q is not one of simulated, replay, mqtt, websocket, serial", s.Source)
	}
	return nil
}

// Settings converts to the engine's immutable settings value
func (c CadenceConfig) Settings() cadence.Settings {
	return cadence.Settings{
		Min:                  c.Min,
		Max:                  c.Max,
		Adjust:               c.Adjust,
		HoldLowDuration:      c.HoldLowDuration,
		AdjustUpRate:         c.AdjustUpRate,
		AdjustUpInterval:     c.AdjustUpInterval,
		HoldHighDuration:     c.HoldHighDuration,
		AdjustDownRate:       c.AdjustDownRate,
		AdjustDownInterval:   c.AdjustDownInterval,
		AnnouncementInterval: c.AnnouncementInterval,
		BeatFrequency:        cadence.BeatFrequency(c.BeatFrequency),
	}
}

// Feedback converts to the engine's feedback configuration
func (f FeedbackConfig) Feedback() cadence.FeedbackConfig {
	return cadence.FeedbackConfig{Margin: f.Margin, Floor: f.Floor}
}

// Detector converts to the engine's step detector configuration
func (d DetectorConfig) Detector() cadence.DetectorConfig {
	mode := cadence.DetectorMode(d.Mode)
	threshold := d.Threshold
	if threshold <= 0 {
		threshold = cadence.DefaultThreshold(mode)
	}
	return cadence.DetectorConfig{
		Mode:      mode,
		Threshold: threshold,
		Alpha:     d.Alpha,
	}
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// getConfigPath returns the path to the config file
func getConfigPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// GetConfigDir returns the path to the config directory
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".stridesync"), nil
}
