// Package config loads the collector configuration from a YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables that override the file configuration.
const (
	EnvListenAddr = "COLLECTOR_LISTEN_ADDR"
	EnvLogLevel   = "COLLECTOR_LOG_LEVEL"
	EnvDataDir    = "COLLECTOR_DATA_DIR"
	EnvCameraID   = "COLLECTOR_CAMERA_ID"
	EnvMQTTBroker = "COLLECTOR_MQTT_BROKER"
)

// Config is the complete collector configuration.
type Config struct {
	ListenAddr string           `yaml:"listen_addr"`
	DataDir    string           `yaml:"data_dir"`   // sqlite journal location
	OutputDir  string           `yaml:"output_dir"` // default capture directory, optional
	Tray       bool             `yaml:"tray"`
	Log        LogConfig        `yaml:"log"`
	Camera     CameraConfig     `yaml:"camera"`
	Detector   DetectorConfig   `yaml:"detector"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Session    SessionConfig    `yaml:"session"`
	MQTT       MQTTConfig       `yaml:"mqtt"`
}

// LogConfig selects the logger level and format.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// CameraConfig contains camera device settings.
type CameraConfig struct {
	FrontID int `yaml:"front_id"`
	BackID  int `yaml:"back_id"` // -1 when there is no second camera
	FPS     int `yaml:"fps"`
}

// DetectorConfig configures the MediaPipe landmark services.
type DetectorConfig struct {
	Python         string  `yaml:"python"` // interpreter, empty for auto-detect
	HandsScript    string  `yaml:"hands_script"`
	FacePoseScript string  `yaml:"face_pose_script"`
	MinConfidence  float64 `yaml:"min_confidence"`
	Mock           bool    `yaml:"mock"`
}

// ClassifierConfig selects the live gesture classifier.
type ClassifierConfig struct {
	Kind         string   `yaml:"kind"` // none, templates, process
	TemplatesDir string   `yaml:"templates_dir"`
	Command      string   `yaml:"command"`
	Args         []string `yaml:"args"`
	Labels       []string `yaml:"labels"`
}

// SessionConfig holds the recording timeline constants.
type SessionConfig struct {
	DelayTicks     int           `yaml:"delay_ticks"`
	RecordingTicks int           `yaml:"recording_ticks"`
	TotalGestures  int           `yaml:"total_gestures"`
	BufferSize     int           `yaml:"buffer_size"`
	TickInterval   time.Duration `yaml:"tick_interval"`
}

// MQTTConfig enables publishing session activity. An empty broker disables it.
type MQTTConfig struct {
	Broker   string `yaml:"broker"` // host:port
	ClientID string `yaml:"client_id"`
	Topic    string `yaml:"topic"`
	QoS      byte   `yaml:"qos"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	home, _ := os.UserHomeDir()
	return Config{
		ListenAddr: "127.0.0.1:7474",
		DataDir:    filepath.Join(home, ".landmarkscollector"),
		Tray:       true,
		Log:        LogConfig{Level: "info", Format: "json"},
		Camera:     CameraConfig{FrontID: 0, BackID: -1, FPS: 15},
		Detector:   DetectorConfig{MinConfidence: 0.5},
		Classifier: ClassifierConfig{Kind: "none"},
		Session: SessionConfig{
			DelayTicks:     3,
			RecordingTicks: 5,
			TotalGestures:  10,
			BufferSize:     30,
			TickInterval:   time.Second,
		},
		MQTT: MQTTConfig{ClientID: "landmarkscollector", Topic: "landmarkscollector"},
	}
}

// Load reads the optional YAML file at path over the defaults, then applies the .env
// file (if present) and environment overrides, and validates the result.
func Load(path string, envFiles ...string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := LoadEnv(envFiles...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}
	cfg.applyEnv()

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// LoadEnv reads .env style files into the process environment without overriding
// variables that are already set. With no paths, ".env" is used.
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	return godotenv.Load(paths...)
}

func (c *Config) applyEnv() {
	c.ListenAddr = GetEnv(EnvListenAddr, c.ListenAddr)
	c.Log.Level = GetEnv(EnvLogLevel, c.Log.Level)
	c.DataDir = GetEnv(EnvDataDir, c.DataDir)
	c.Camera.FrontID = GetEnvInt(EnvCameraID, c.Camera.FrontID)
	c.MQTT.Broker = GetEnv(EnvMQTTBroker, c.MQTT.Broker)
}

// Validate checks the configuration for values the collector cannot run with.
func Validate(c *Config) error {
	if c.ListenAddr == "" {
		return errors.New("listen_addr is required")
	}
	if c.DataDir == "" {
		return errors.New("data_dir is required")
	}
	if c.Camera.FrontID < 0 {
		return fmt.Errorf("camera.front_id must be >= 0, got %d", c.Camera.FrontID)
	}
	if c.Camera.BackID >= 0 && c.Camera.BackID == c.Camera.FrontID {
		return fmt.Errorf("camera.back_id must differ from camera.front_id")
	}
	if c.Camera.FPS <= 0 {
		return fmt.Errorf("camera.fps must be > 0, got %d", c.Camera.FPS)
	}

	s := c.Session
	if s.DelayTicks <= 0 || s.RecordingTicks <= 0 {
		return fmt.Errorf("session ticks must be > 0 (delay=%d recording=%d)", s.DelayTicks, s.RecordingTicks)
	}
	if s.TotalGestures <= 0 {
		return fmt.Errorf("session.total_gestures must be > 0, got %d", s.TotalGestures)
	}
	if s.BufferSize <= 0 {
		return fmt.Errorf("session.buffer_size must be > 0, got %d", s.BufferSize)
	}
	if s.TickInterval <= 0 {
		return fmt.Errorf("session.tick_interval must be > 0, got %s", s.TickInterval)
	}

	if c.MQTT.Broker != "" {
		if c.MQTT.Topic == "" {
			return errors.New("mqtt.topic is required when mqtt.broker is set")
		}
		if c.MQTT.QoS > 2 {
			return fmt.Errorf("mqtt.qos must be 0, 1 or 2, got %d", c.MQTT.QoS)
		}
	}

	switch c.Classifier.Kind {
	case "", "none":
	case "templates":
		if c.Classifier.TemplatesDir == "" {
			return errors.New("classifier.templates_dir is required for kind templates")
		}
	case "process":
		if c.Classifier.Command == "" || len(c.Classifier.Labels) == 0 {
			return errors.New("classifier.command and classifier.labels are required for kind process")
		}
	default:
		return fmt.Errorf("unknown classifier.kind %q", c.Classifier.Kind)
	}
	return nil
}

// GetEnv returns the value of the environment variable named by key, or fallback
// if the variable is unset or empty.
func GetEnv(key, fallback string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return fallback
}

// GetEnvInt returns the integer value of the environment variable named by key,
// or fallback if the variable is unset, empty, or not a valid integer.
func GetEnvInt(key string, fallback int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return fallback
}
