package main

import (
	"flag"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const (
	defaultService  = "http://localhost:8080"
	defaultListen   = ":3000"
	defaultInterval = time.Second
	defaultWidth    = 800
	defaultHeight   = 600
	defaultEpochs   = 1000
)

type Config struct {
	Service  string
	Listen   string
	Interval time.Duration
	Width    int
	Height   int
	Epochs   int
	Patterns string
	Outputs  int
	Scale    string
	UI       string
	PNG      string
	LogFile  string
	Font     string
	FontSize float64
	Bias     bool
	Origins  []string
}

// loadConfig parses flags; NETVIZ_SERVICE and NETVIZ_LISTEN apply when the
// matching flag is not given.
func loadConfig(args []string) (Config, error) {
	var cfg Config
	var origins string

	fs := flag.NewFlagSet("netviz", flag.ContinueOnError)
	fs.StringVar(&cfg.Service, "service", defaultService, "network service base URL")
	fs.StringVar(&cfg.Listen, "listen", defaultListen, "address of the web surface")
	fs.DurationVar(&cfg.Interval, "interval", defaultInterval, "state poll interval")
	fs.IntVar(&cfg.Width, "width", defaultWidth, "canvas width")
	fs.IntVar(&cfg.Height, "height", defaultHeight, "canvas height")
	fs.IntVar(&cfg.Epochs, "epochs", defaultEpochs, "epochs per train command")
	fs.StringVar(&cfg.Patterns, "patterns", "", "CSV or JSON pattern file (default: XOR)")
	fs.IntVar(&cfg.Outputs, "outputs", 1, "trailing expectation columns in a CSV; 0 treats the last column as a class label")
	fs.StringVar(&cfg.Scale, "scale", "none", "feature scaling for imported patterns: none, minmax, zscore")
	fs.StringVar(&cfg.UI, "ui", "web", "front-end: web or tui")
	fs.StringVar(&cfg.PNG, "png", "", "file every rendered frame is mirrored to")
	fs.StringVar(&cfg.LogFile, "log", "netviz.log", "log file used by the tui")
	fs.StringVar(&cfg.Font, "font", "", "TrueType font for labels (default: built-in bitmap font)")
	fs.Float64Var(&cfg.FontSize, "font-size", 12, "label font size in points")
	fs.BoolVar(&cfg.Bias, "bias", true, "draw bias labels")
	fs.StringVar(&origins, "origin", "*", "comma separated CORS origins")

	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if v := os.Getenv("NETVIZ_SERVICE"); v != "" && !set["service"] {
		cfg.Service = v
	}
	if v := os.Getenv("NETVIZ_LISTEN"); v != "" && !set["listen"] {
		cfg.Listen = v
	}

	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.Origins = append(cfg.Origins, o)
		}
	}

	return cfg, cfg.validate()
}

func (c Config) validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return errors.Errorf("invalid canvas size %dx%d", c.Width, c.Height)
	}
	if c.Interval <= 0 {
		return errors.Errorf("invalid poll interval %v", c.Interval)
	}
	if c.Outputs < 0 {
		return errors.Errorf("invalid output column count %d", c.Outputs)
	}
	if c.UI != "web" && c.UI != "tui" {
		return errors.Errorf("unknown ui %q (valid: web, tui)", c.UI)
	}
	if c.Service == "" {
		return errors.New("service URL is required")
	}
	return nil
}
