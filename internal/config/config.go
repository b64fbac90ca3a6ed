package config

import (
	"time"

	"github.com/ruamjai/ruamjai/internal/lib/geo"
)

// Config represents the complete application configuration. Sections are
// unmarshalled individually from Prefab's config (prefab.yaml plus PF__
// environment variables).
type Config struct {
	Tracker    TrackerConfig    `yaml:"tracker"`
	Triage     TriageConfig     `yaml:"triage"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Feed       FeedConfig       `yaml:"feed"`
	Cache      CacheConfig      `yaml:"cache"`
}

// TrackerConfig holds location tracking settings.
type TrackerConfig struct {
	TickInterval time.Duration `yaml:"tick_interval"`
	StepDelta    float64       `yaml:"step_delta"`
	Home         HomeConfig    `yaml:"home"`
	// Route, when set, is an encoded polyline the simulated walk follows
	// instead of the diagonal drift.
	Route string `yaml:"route"`
}

// HomeConfig is the fallback position used before any real fix.
type HomeConfig struct {
	Latitude  float64 `yaml:"latitude"`
	Longitude float64 `yaml:"longitude"`
}

// Point converts the YAML coordinates into a geo.Point.
func (h HomeConfig) Point() geo.Point {
	return geo.Point{Latitude: h.Latitude, Longitude: h.Longitude}
}

// TriageConfig holds interruption and nearby-view settings.
type TriageConfig struct {
	RadiusKm float64 `yaml:"radius_km"`
}

// ClassifierConfig holds incident classification settings. An empty API
// key disables the service round trip entirely.
type ClassifierConfig struct {
	APIKey      string        `yaml:"api_key"`
	Model       string        `yaml:"model"`
	BaseURL     string        `yaml:"base_url"`
	Temperature float32       `yaml:"temperature"`
	MaxTokens   int           `yaml:"max_tokens"`
	CacheTTL    time.Duration `yaml:"cache_ttl"`
}

// FeedConfig holds mock feed settings. Seeding is on by default; the flag
// is inverted so the zero value keeps the documented behavior after a
// partial config load.
type FeedConfig struct {
	SkipSeed           bool          `yaml:"skip_seed"`
	TransitionInterval time.Duration `yaml:"transition_interval"`
}

// CacheConfig holds cache maintenance settings.
type CacheConfig struct {
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
}

// DefaultConfig returns a configuration matching the documented defaults:
// the Bangkok reference position, the five kilometer radius, and a
// one-second simulated walk tick.
func DefaultConfig() *Config {
	return &Config{
		Tracker: TrackerConfig{
			TickInterval: time.Second,
			StepDelta:    0.00008,
			Home: HomeConfig{
				Latitude:  13.7563,
				Longitude: 100.5018,
			},
		},
		Triage: TriageConfig{
			RadiusKm: 5.0,
		},
		Classifier: ClassifierConfig{
			Model:       "gpt-4o-mini",
			Temperature: 0.2,
			MaxTokens:   300,
			CacheTTL:    24 * time.Hour,
		},
		Feed: FeedConfig{
			TransitionInterval: 30 * time.Second,
		},
		Cache: CacheConfig{
			CleanupInterval: 10 * time.Minute,
		},
	}
}

// Merge overlays loaded values onto the defaults so partial configuration
// files keep sensible behavior.
func (c *Config) Merge(defaults *Config) {
	if c.Tracker.TickInterval <= 0 {
		c.Tracker.TickInterval = defaults.Tracker.TickInterval
	}
	if c.Tracker.StepDelta == 0 {
		c.Tracker.StepDelta = defaults.Tracker.StepDelta
	}
	if (c.Tracker.Home == HomeConfig{}) {
		c.Tracker.Home = defaults.Tracker.Home
	}
	if c.Triage.RadiusKm <= 0 {
		c.Triage.RadiusKm = defaults.Triage.RadiusKm
	}
	if c.Classifier.Model == "" {
		c.Classifier.Model = defaults.Classifier.Model
	}
	if c.Classifier.Temperature == 0 {
		c.Classifier.Temperature = defaults.Classifier.Temperature
	}
	if c.Classifier.MaxTokens == 0 {
		c.Classifier.MaxTokens = defaults.Classifier.MaxTokens
	}
	if c.Classifier.CacheTTL <= 0 {
		c.Classifier.CacheTTL = defaults.Classifier.CacheTTL
	}
	if c.Feed.TransitionInterval <= 0 {
		c.Feed.TransitionInterval = defaults.Feed.TransitionInterval
	}
	if c.Cache.CleanupInterval <= 0 {
		c.Cache.CleanupInterval = defaults.Cache.CleanupInterval
	}
}
