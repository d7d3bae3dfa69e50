package config

import (
	"io"
	"os"
	"time"

	"mesa/pkg/blink"
	"mesa/pkg/panel"
	"mesa/pkg/raspberry"

	"github.com/pkg/errors"
	"github.com/womat/debug"
	"gopkg.in/yaml.v2"
)

// Renderers lists the supported values of Config.Renderer.
var Renderers = []string{"ebiten", "terminal", "headless"}

// Config defines the struct of global config and the struct of the configuration file
type Config struct {
	// TickInt is the duration of one logical cycle in ms
	TickInt   int                     `yaml:"tick"`
	Tick      time.Duration           `yaml:"-"`
	Script    string                  `yaml:"script"`
	Renderer  string                  `yaml:"renderer"`
	Scale     float64                 `yaml:"scale"`
	Blink     map[string]blink.Config `yaml:"blink"`
	Modules   []panel.Spec            `yaml:"modules"`
	Gpio      raspberry.Config        `yaml:"gpio"`
	Statsview string                  `yaml:"statsview"`
	Flag      FlagConfig              `yaml:"-"`
	Debug     DebugConfig             `yaml:"debug"`
	Webserver WebserverConfig         `yaml:"webserver"`
	MQTT      MQTTConfig              `yaml:"mqtt"`
}

// FlagConfig defines the configured flags (parameters)
type FlagConfig struct {
	Debug      string
	ConfigFile string
	Script     string
	Renderer   string
}

// WebserverConfig defines the struct of the webserver and webservice configuration and configuration file
type WebserverConfig struct {
	URL         string          `yaml:"url"`
	Webservices map[string]bool `yaml:"webservices"`
}

// MQTTConfig defines the struct of the mqtt client configuration and configuration file
type MQTTConfig struct {
	Connection string `yaml:"connection"`
	Topic      string `yaml:"topic"`
}

// DebugConfig defines the struct of the debug configuration and configuration file
type DebugConfig struct {
	File       io.WriteCloser `yaml:"-"`
	Flag       int            `yaml:"-"`
	FlagString string         `yaml:"flag"`
	FileString string         `yaml:"file"`
}

func NewConfig() *Config {
	channels := map[string]blink.Config{}
	for c, cfg := range blink.DefaultChannels() {
		channels[c.String()] = cfg
	}

	return &Config{
		TickInt:  1,
		Renderer: "ebiten",
		Scale:    2,
		Blink:    channels,
		Modules:  []panel.Spec{{Type: "mm20"}, {Type: "mm20"}, {Type: "matrix"}},
		Gpio: raspberry.Config{
			Driver:     "gpiod",
			Chip:       "gpiochip0",
			LEDs:       []int{5, 6, 13, 19, 26, 16, 20, 21},
			Switches:   []int{4, 17, 27, 22, 10, 9, 11, 0},
			BounceTime: 20,
		},
		Debug: DebugConfig{
			FileString: "stderr",
			FlagString: "standard",
		},
		Webserver: WebserverConfig{
			URL: "http://0.0.0.0:4000",
			Webservices: map[string]bool{
				"version": true,
				"health":  true,
				"ports":   true,
			},
		},
		MQTT: MQTTConfig{
			Topic: "mesa/ports",
		},
	}
}

// LoadConfig reads the config file (if any), applies the command line flags and validates the result.
func (c *Config) LoadConfig() error {
	if c.Flag.ConfigFile != "" {
		if err := c.readConfigFile(); err != nil {
			return errors.Wrapf(err, "error reading config file %q", c.Flag.ConfigFile)
		}
	}

	if c.Flag.Debug != "" {
		c.Debug.FlagString = c.Flag.Debug
	}
	if c.Flag.Script != "" {
		c.Script = c.Flag.Script
	}
	if c.Flag.Renderer != "" {
		c.Renderer = c.Flag.Renderer
	}

	if err := c.Validate(); err != nil {
		return err
	}

	if err := c.setDebugConfig(); err != nil {
		return errors.Wrapf(err, "unable to open debug file %q", c.Debug.FileString)
	}

	c.Tick = time.Duration(c.TickInt) * time.Millisecond
	return nil
}

// Validate checks the values which can't be checked by decoding.
func (c *Config) Validate() error {
	if c.TickInt <= 0 {
		return errors.Errorf("tick must be positive, got %d", c.TickInt)
	}

	if !contains(Renderers, c.Renderer) {
		return errors.Errorf("unknown renderer %q", c.Renderer)
	}

	if _, err := c.Channels(); err != nil {
		return err
	}

	if _, err := panel.NewBackplane(c.Modules, panel.DefaultGeometry); err != nil {
		return errors.Wrap(err, "modules")
	}

	if c.Gpio.Enabled {
		if err := c.Gpio.Validate(); err != nil {
			return err
		}
	}

	switch c.Debug.FlagString {
	case "standard", "debug", "trace", "full":
	default:
		return errors.Errorf("unknown log level %q", c.Debug.FlagString)
	}
	return nil
}

// Channels returns the blink channel configuration.
func (c *Config) Channels() (map[blink.Channel]blink.Config, error) {
	channels := make(map[blink.Channel]blink.Config, len(c.Blink))
	for name, cfg := range c.Blink {
		ch, err := blink.ParseChannel(name)
		if err != nil {
			return nil, errors.Wrap(err, "blink")
		}
		if err := cfg.Validate(); err != nil {
			return nil, errors.Wrapf(err, "blink %s", name)
		}
		channels[ch] = cfg
	}
	return channels, nil
}

func (c *Config) readConfigFile() error {
	file, err := os.Open(c.Flag.ConfigFile)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	decoder := yaml.NewDecoder(file)
	if err = decoder.Decode(c); err != nil {
		return err
	}

	return nil
}

func (c *Config) setDebugConfig() (err error) {
	// defines Debug section of global.Config
	switch c.Debug.FlagString {
	case "trace", "full":
		c.Debug.Flag = debug.Full
	case "debug":
		c.Debug.Flag = debug.Warning | debug.Info | debug.Error | debug.Fatal | debug.Debug
	case "standard":
		c.Debug.Flag = debug.Standard
	}

	switch c.Debug.FileString {
	case "stderr":
		c.Debug.File = os.Stderr
	case "stdout":
		c.Debug.File = os.Stdout
	default:
		if c.Debug.File, err = os.OpenFile(c.Debug.FileString, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o666); err != nil {
			return
		}
	}

	return
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
