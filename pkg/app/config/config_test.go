package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"mesa/pkg/app/config"
	"mesa/pkg/blink"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	name := filepath.Join(t.TempDir(), "mesa.yaml")
	if err := os.WriteFile(name, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return name
}

func TestDefaults(t *testing.T) {
	c := config.NewConfig()
	if err := c.LoadConfig(); err != nil {
		t.Fatal(err)
	}
	if c.Tick != time.Millisecond {
		t.Errorf("expected 1ms tick, got %v", c.Tick)
	}

	channels, err := c.Channels()
	if err != nil {
		t.Fatal(err)
	}
	if got := channels[blink.B3]; got.Frequency != 3 || got.On != 1 || got.Off != 1 {
		t.Errorf("unexpected B3 default %+v", got)
	}
}

func TestLoadConfig(t *testing.T) {
	c := config.NewConfig()
	c.Flag.ConfigFile = writeFile(t, `
tick: 2
script: traffic.lua
renderer: terminal
blink:
  B1: {frequency: 2.0, on: 1, off: 4}
modules:
  - {type: matrix, color: [0, 255, 0]}
debug:
  flag: debug
`)
	c.Flag.Renderer = "headless"

	if err := c.LoadConfig(); err != nil {
		t.Fatal(err)
	}
	if c.Tick != 2*time.Millisecond || c.Script != "traffic.lua" {
		t.Errorf("file values not applied: %v %q", c.Tick, c.Script)
	}
	if c.Renderer != "headless" {
		t.Errorf("flag must override the file, got %q", c.Renderer)
	}
	if len(c.Modules) != 1 || c.Modules[0].Type != "matrix" {
		t.Errorf("unexpected modules %+v", c.Modules)
	}

	channels, err := c.Channels()
	if err != nil {
		t.Fatal(err)
	}
	if got := channels[blink.B1]; got.Frequency != 2 || got.Off != 4 {
		t.Errorf("unexpected B1 %+v", got)
	}
	// the yaml map is merged into the defaults
	if _, ok := channels[blink.B2]; !ok {
		t.Errorf("default B2 lost")
	}
}

func TestInvalid(t *testing.T) {
	td := []struct {
		name, yaml, want string
	}{
		{"tick", "tick: 0", "tick"},
		{"renderer", "renderer: vga", "renderer"},
		{"channel", "blink: {B4: {frequency: 1, on: 1, off: 1}}", "unknown blink channel"},
		{"frequency", "blink: {B2: {frequency: 0, on: 1, off: 1}}", "frequency"},
		{"nan", "blink: {B2: {frequency: .nan, on: 1, off: 1}}", "frequency NaN"},
		{"inf", "blink: {B3: {frequency: .inf, on: 1, off: 1}}", "frequency +Inf"},
		{"units", "blink: {B1: {frequency: 1, on: 100000, off: 1}}", "exceed"},
		{"module", "modules: [{type: scope}]", "unknown module type"},
		{"gpio", "gpio: {enabled: true, leds: [1, 2]}", "gpio"},
		{"log", "debug: {flag: verbose}", "log level"},
		{"yaml", "tick: [", "config file"},
	}
	for _, d := range td {
		c := config.NewConfig()
		c.Flag.ConfigFile = writeFile(t, d.yaml)
		err := c.LoadConfig()
		if err == nil || !strings.Contains(err.Error(), d.want) {
			t.Errorf("%s: expected error containing %q, got %v", d.name, d.want, err)
		}
	}

	c := config.NewConfig()
	c.Flag.ConfigFile = filepath.Join(t.TempDir(), "missing.yaml")
	if err := c.LoadConfig(); err == nil {
		t.Errorf("expected an error for a missing file")
	}
}
