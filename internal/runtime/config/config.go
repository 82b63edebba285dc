package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultPubSubSystem  = "channel"
	DefaultCommandTopic  = "hostbridge.commands"
	DefaultPushTopic     = "hostbridge.pushes"
	DefaultMaxIDAttempts = 8
)

// Config groups the settings required to initialise the bridge Service.
type Config struct {
	// PubSubSystem selects the transport linking bridge and host. Only the
	// in-process "channel" transport ships with the module.
	PubSubSystem string `yaml:"pubsub_system"`

	// CommandTopic carries outbound "<COMMAND>|<json>" messages to the host.
	CommandTopic string `yaml:"command_topic"`
	// PushTopic carries inbound pushes from the host. Each message names its
	// channel in the bridge_channel metadata key.
	PushTopic string `yaml:"push_topic"`

	// ChannelBufferSize sizes the gochannel subscriber buffers.
	ChannelBufferSize int64 `yaml:"channel_buffer_size"`
	// BlockPublishUntilAck makes a publish return only once the inbound
	// handler processed it.
	BlockPublishUntilAck bool `yaml:"block_publish_until_ack"`

	// RequestTimeout fails correlated requests the host never answers.
	// Zero keeps them pending until Close.
	RequestTimeout time.Duration `yaml:"request_timeout"`
	// MaxIDAttempts bounds collision retries before the counter fallback.
	MaxIDAttempts int `yaml:"max_id_attempts"`

	// Metrics configuration.
	MetricsEnabled bool `yaml:"metrics_enabled"`
	// MetricsPort is the port where Prometheus metrics will be exposed.
	MetricsPort int `yaml:"metrics_port"`

	// HTTPPort serves application handlers registered on the Service.
	HTTPPort int `yaml:"http_port"`
}

// Getter methods to implement transport.Config interface.
func (c *Config) GetPubSubSystem() string       { return c.PubSubSystem }
func (c *Config) GetChannelBufferSize() int64   { return c.ChannelBufferSize }
func (c *Config) GetBlockPublishUntilAck() bool { return c.BlockPublishUntilAck }

func (c Config) String() string {
	// Use a type alias to avoid infinite recursion when printing
	type configAlias Config
	return fmt.Sprintf("%+v", configAlias(c))
}

// WithDefaults returns a copy with empty fields set to their defaults.
func (c Config) WithDefaults() Config {
	if c.PubSubSystem == "" {
		c.PubSubSystem = DefaultPubSubSystem
	}
	if c.CommandTopic == "" {
		c.CommandTopic = DefaultCommandTopic
	}
	if c.PushTopic == "" {
		c.PushTopic = DefaultPushTopic
	}
	if c.MaxIDAttempts == 0 {
		c.MaxIDAttempts = DefaultMaxIDAttempts
	}
	return c
}

// Load reads a YAML config file, applies defaults and validates the result.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(raw)
}

// Parse decodes YAML config bytes, applies defaults and validates the result.
func Parse(raw []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	c = c.WithDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks that the configuration is usable. Every problem is
// reported, joined with errors.Join.
// Note: the transport name is not checked so custom transports can register.
func (c *Config) Validate() error {
	var errs []error

	errs = append(errs, c.validateTopics()...)
	errs = append(errs, c.validateLimits()...)
	errs = append(errs, c.validatePorts()...)

	return errors.Join(errs...)
}

func (c *Config) validateTopics() []error {
	var errs []error
	if strings.TrimSpace(c.CommandTopic) == "" {
		errs = append(errs, errors.New("topics: command topic is required"))
	}
	if strings.TrimSpace(c.PushTopic) == "" {
		errs = append(errs, errors.New("topics: push topic is required"))
	}
	if c.CommandTopic != "" && c.CommandTopic == c.PushTopic {
		errs = append(errs, fmt.Errorf("topics: command and push topic must differ (both %q)", c.CommandTopic))
	}
	return errs
}

func (c *Config) validateLimits() []error {
	var errs []error
	if c.ChannelBufferSize < 0 {
		errs = append(errs, errors.New("channel: buffer size cannot be negative"))
	}
	if c.RequestTimeout < 0 {
		errs = append(errs, errors.New("requests: timeout cannot be negative"))
	}
	if c.MaxIDAttempts < 0 {
		errs = append(errs, errors.New("ids: max attempts cannot be negative"))
	}
	return errs
}

func (c *Config) validatePorts() []error {
	var errs []error
	if c.MetricsPort < 0 || c.MetricsPort > 65535 {
		errs = append(errs, fmt.Errorf("metrics: invalid port %d", c.MetricsPort))
	}
	if c.HTTPPort < 0 || c.HTTPPort > 65535 {
		errs = append(errs, fmt.Errorf("http: invalid port %d", c.HTTPPort))
	}
	return errs
}

// ValidateConfig is a convenience function to validate a config pointer.
// Returns nil if the config is valid.
func ValidateConfig(c *Config) error {
	if c == nil {
		return errors.New("config is nil")
	}
	return c.Validate()
}
