package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// Presence expiry modes.
const (
	// PresenceIndependent removes a client at the first expiry that fires,
	// even when a later request would keep it inside the window.
	PresenceIndependent = "independent"
	// PresenceSliding keeps a client until one window after its last request.
	PresenceSliding = "sliding"
)

// Visit recency modes used for the "viewed page" activity entry.
const (
	RecencyFirstSeen = "first_seen"
	RecencyLastVisit = "last_visit"
)

// AppConfig holds configuration values parsed from environment variables.
type AppConfig struct {
	// Env is the runtime environment, either "dev" or "prod".
	Env string `koanf:"env" validate:"required,oneof=dev prod"`

	// LogLevel controls log verbosity: "debug", "info", "warn", or "error".
	LogLevel string `koanf:"log_level" validate:"required,oneof=debug info warn error"`

	// Port is the TCP port the HTTP server binds to.
	Port int `koanf:"port" validate:"required,gte=1,lt=65535"`

	// MaxConns caps concurrently open HTTP connections. Zero means unlimited.
	MaxConns int `koanf:"max_conns" validate:"gte=0"`

	// StaticDir is the directory served for every path outside the API.
	StaticDir string `koanf:"static_dir" validate:"required"`

	// PresenceWindow is how long a client counts as online after a request.
	PresenceWindow time.Duration `koanf:"presence_window" validate:"gte=1s"`

	// PresenceMode selects the expiry behavior, see PresenceIndependent and PresenceSliding.
	PresenceMode string `koanf:"presence_mode" validate:"required,oneof=independent sliding"`

	// PresenceSweep is the interval of the background expiry sweep.
	PresenceSweep time.Duration `koanf:"presence_sweep" validate:"gte=1s"`

	VisitsRecency    string `koanf:"visits_recency" validate:"required,oneof=first_seen last_visit"`
	VisitsRecentSize int    `koanf:"visits_recent_size" validate:"gte=1"`

	// VisitsMaxPaths bounds the number of distinct paths counted individually.
	// Zero means unlimited.
	VisitsMaxPaths int `koanf:"visits_max_paths" validate:"gte=0"`

	// MessagesCapacity is the number of messages kept in memory.
	MessagesCapacity int `koanf:"messages_capacity" validate:"gte=10"`

	// MessagesArchive is an optional bbolt file receiving messages evicted from memory.
	MessagesArchive string `koanf:"messages_archive"`

	UniquesExpected uint    `koanf:"uniques_expected" validate:"gte=1"`
	UniquesFPRate   float64 `koanf:"uniques_fp_rate" validate:"gt=0,lt=1"`

	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gte=1s"`
}

// DEFAULT_APP_CONFIG defines the defaults applied before environment overrides.
var DEFAULT_APP_CONFIG = AppConfig{
	Env:              "prod",
	LogLevel:         "info",
	Port:             3000,
	MaxConns:         1024,
	StaticDir:        "../public_html",
	PresenceWindow:   5 * time.Minute,
	PresenceMode:     PresenceIndependent,
	PresenceSweep:    15 * time.Second,
	VisitsRecency:    RecencyFirstSeen,
	VisitsRecentSize: 64,
	VisitsMaxPaths:   10000,
	MessagesCapacity: 1000,
	MessagesArchive:  "",
	UniquesExpected:  100000,
	UniquesFPRate:    0.01,
	ShutdownTimeout:  10 * time.Second,
}

// validSweep rejects a sweep interval longer than the presence window, which
// would leave expired clients in the set for more than a full window.
func validSweep(sl validator.StructLevel) {
	cfg := sl.Current().Interface().(AppConfig)
	if cfg.PresenceSweep > cfg.PresenceWindow {
		sl.ReportError(cfg.PresenceSweep, "PresenceSweep", "presence_sweep", "ltefield", "PresenceWindow")
	}
}

// envLoader loads environment variables with the prefix "PULSE_".
// Keys are lower-cased with the prefix removed; it can be mocked in tests.
var envLoader = func(k *koanf.Koanf) error {
	return k.Load(env.Provider(".", env.Opt{
		Prefix: "PULSE_",
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ToLower(strings.TrimPrefix(key, "PULSE_"))
			return key, strings.TrimSpace(value)
		},
	}), nil)
}

// defaultLoader loads DEFAULT_APP_CONFIG through the structs provider.
var defaultLoader = func(k *koanf.Koanf) error {
	return k.Load(structs.Provider(DEFAULT_APP_CONFIG, "koanf"), nil)
}

// registerValidation registers the cross-field sweep check with the validator.
var registerValidation = func(v *validator.Validate) error {
	v.RegisterStructValidation(validSweep, AppConfig{})
	return nil
}

// Load parses environment variables and returns an AppConfig instance.
// It applies default values and runs validation automatically.
func Load() (*AppConfig, error) {
	k := koanf.New(".")

	err := defaultLoader(k)
	if err != nil {
		return nil, fmt.Errorf("error loading default config: %w", err)
	}

	err = envLoader(k)
	if err != nil {
		return nil, fmt.Errorf("error loading env: %w", err)
	}

	var cfg AppConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	err = registerValidation(validate)
	if err != nil {
		return nil, fmt.Errorf("error registering validation: %w", err)
	}

	err = validate.Struct(&cfg)
	if err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return &cfg, nil
}
