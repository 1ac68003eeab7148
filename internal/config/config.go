// Package config resolves runtime configuration for the orrery commands.
// Values come from an optional config file, ORRERY_* environment variables
// and bound CLI flags, in viper's usual precedence.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/signalsfoundry/orrery/catalog"
	"github.com/signalsfoundry/orrery/core"
	"github.com/signalsfoundry/orrery/model"
)

// ErrMissingTimeOffset is returned when no source supplies the time offset.
var ErrMissingTimeOffset = errors.New("time offset not provided: set --days, --date or --form-data")

// EnvPrefix namespaces environment variables (ORRERY_DAYS, ORRERY_GRPC_ADDR, ...).
const EnvPrefix = "ORRERY"

// Date layouts accepted for --date.
var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

// Config holds all runtime configuration.
type Config struct {
	// Days, Date and FormData are alternative sources of the time offset,
	// consulted in that order.
	Days     string `mapstructure:"days"`
	Date     string `mapstructure:"date"`
	FormData string `mapstructure:"form_data"`
	// Epoch is the reference date for Date. Empty means J2000.
	Epoch string `mapstructure:"epoch"`

	Catalog string `mapstructure:"catalog"`

	GRPCAddr string `mapstructure:"grpc_addr"`
	HTTPAddr string `mapstructure:"http_addr"`

	FrameInterval      time.Duration `mapstructure:"frame_interval"`
	TransitionDuration time.Duration `mapstructure:"transition_duration"`

	WSMessageRate  float64 `mapstructure:"ws_message_rate"`
	WSMessageBurst int     `mapstructure:"ws_message_burst"`
}

// SetDefaults registers built-in defaults on the global viper instance.
func SetDefaults() {
	viper.SetDefault("epoch", "")
	viper.SetDefault("catalog", "")
	viper.SetDefault("grpc_addr", ":50061")
	viper.SetDefault("http_addr", ":8080")
	viper.SetDefault("frame_interval", time.Second/30)
	viper.SetDefault("transition_duration", core.TransitionDuration)
	viper.SetDefault("ws_message_rate", 20.0)
	viper.SetDefault("ws_message_burst", 10)
}

// Load reads configuration from viper, applying built-in defaults for any
// values not set by config file, environment, or flags.
func Load() (Config, error) {
	SetDefaults()
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()
	for _, k := range []string{"days", "date", "form_data"} {
		// Unset keys are invisible to Unmarshal unless bound.
		if err := viper.BindEnv(k); err != nil {
			return Config{}, fmt.Errorf("bind %s: %w", k, err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if cfg.FrameInterval <= 0 {
		return Config{}, fmt.Errorf("frame_interval must be positive, got %s", cfg.FrameInterval)
	}
	if cfg.TransitionDuration < 0 {
		return Config{}, fmt.Errorf("transition_duration must not be negative, got %s", cfg.TransitionDuration)
	}
	return cfg, nil
}

// TimeOffset resolves the offset from the first configured source.
func (c Config) TimeOffset() (core.TimeOffset, error) {
	switch {
	case strings.TrimSpace(c.Days) != "":
		days, err := strconv.ParseFloat(strings.TrimSpace(c.Days), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: days %q is not a number", core.ErrInvalidTimeOffset, c.Days)
		}
		return core.NewTimeOffset(days)

	case strings.TrimSpace(c.Date) != "":
		date, err := parseDate(c.Date)
		if err != nil {
			return 0, err
		}
		epoch := core.J2000
		if c.Epoch != "" {
			if epoch, err = parseDate(c.Epoch); err != nil {
				return 0, fmt.Errorf("epoch: %w", err)
			}
		}
		return core.OffsetFromDate(epoch, date)

	case c.FormData != "":
		return offsetFromFormData(c.FormData)
	}
	return 0, ErrMissingTimeOffset
}

// Bodies loads the configured catalog file, or the embedded catalog when
// none is set.
func (c Config) Bodies() ([]*model.CelestialBody, error) {
	if c.Catalog == "" {
		return catalog.Default(), nil
	}
	data, err := os.ReadFile(c.Catalog)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return catalog.Parse(data)
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unrecognised date %q", core.ErrInvalidTimeOffset, s)
}

// formData mirrors the form selection the date picker stores.
type formData struct {
	DaysDifference *float64 `json:"daysDifference"`
}

func offsetFromFormData(path string) (core.TimeOffset, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read form data: %w", err)
	}
	var fd formData
	if err := json.Unmarshal(raw, &fd); err != nil {
		return 0, fmt.Errorf("%w: form data: %v", core.ErrInvalidTimeOffset, err)
	}
	if fd.DaysDifference == nil {
		return 0, fmt.Errorf("%w: form data has no daysDifference", ErrMissingTimeOffset)
	}
	return core.NewTimeOffset(*fd.DaysDifference)
}
