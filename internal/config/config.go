package config

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"
	_ "time/tzdata" // brand zones must resolve on hosts without zoneinfo

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"mspro-labs/scoop-scout/internal/extract"
	"mspro-labs/scoop-scout/internal/scrapeerr"
)

// AppConfig holds infrastructure config from standard env vars
type AppConfig struct {
	DBPath          string
	ConfigPath      string // brand config YAML
	LocationsPath   string // location registry YAML
	OutputPath      string // flavors.json artifact
	LogLevel        string
	Concurrency     int // brands scraped at once
	BrowserPoolSize int // live browser processes
	Addr            string
}

func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("DB_PATH", "./local-data/flavors.db")
	v.SetDefault("CONFIG_PATH", "config.yaml")
	v.SetDefault("LOCATIONS_PATH", "locations.yaml")
	v.SetDefault("OUTPUT_PATH", "static/data/flavors.json")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CONCURRENCY", 3)
	v.SetDefault("BROWSER_POOL_SIZE", 2)
	v.SetDefault("ADDR", ":8080")

	return v
}

func NewAppConfig(v *viper.Viper) (AppConfig, error) {
	cfg := AppConfig{
		DBPath:          v.GetString("DB_PATH"),
		ConfigPath:      v.GetString("CONFIG_PATH"),
		LocationsPath:   v.GetString("LOCATIONS_PATH"),
		OutputPath:      v.GetString("OUTPUT_PATH"),
		LogLevel:        v.GetString("LOG_LEVEL"),
		Concurrency:     v.GetInt("CONCURRENCY"),
		BrowserPoolSize: v.GetInt("BROWSER_POOL_SIZE"),
		Addr:            v.GetString("ADDR"),
	}

	if cfg.Concurrency < 1 {
		return AppConfig{}, fmt.Errorf("invalid CONCURRENCY %d", cfg.Concurrency)
	}
	if cfg.BrowserPoolSize < 1 {
		return AppConfig{}, fmt.Errorf("invalid BROWSER_POOL_SIZE %d", cfg.BrowserPoolSize)
	}
	if cfg.OutputPath == "" {
		return AppConfig{}, fmt.Errorf("OUTPUT_PATH must not be empty")
	}

	return cfg, nil
}

// GetAppConfig reads infrastructure settings from environment variables.
func GetAppConfig() (AppConfig, error) {
	return NewAppConfig(NewViper())
}

// Strategy names how a brand's pages are fetched.
type Strategy string

const (
	StrategyStatic  Strategy = "static"
	StrategyDynamic Strategy = "dynamic"
	StrategySocial  Strategy = "social"
)

const DefaultTimezone = "America/Chicago"

const DefaultMaxPosts = 10

// BrandFile is the brand config YAML as written.
type BrandFile struct {
	Timezone string                `yaml:"timezone"`
	Brands   map[string]BrandEntry `yaml:"brands"`
}

type BrandEntry struct {
	DisplayName         string          `yaml:"display_name"`
	Strategy            Strategy        `yaml:"strategy"`
	Shared              bool            `yaml:"shared"`
	Timezone            string          `yaml:"timezone"`
	Selectors           Selectors       `yaml:"selectors"`
	Patterns            string          `yaml:"patterns"`
	CustomPatterns      []CustomPattern `yaml:"custom_patterns"`
	Placeholders        []string        `yaml:"placeholders"`
	MaxPosts            int             `yaml:"max_posts"`
	TodayOnly           *bool           `yaml:"today_only"`
	LocationConcurrency int             `yaml:"location_concurrency"`
}

type Selectors struct {
	Content     string `yaml:"content"`     // block holding the announcement
	Wait        string `yaml:"wait"`        // rendered element that signals readiness
	Item        string `yaml:"item"`        // one flavor per match inside Content
	Flavor      string `yaml:"flavor"`      // optional field inside Content or Item
	Description string `yaml:"description"` // optional field; with Item, a sibling after it
	Date        string `yaml:"date"`        // optional page date inside Content
	Consent     string `yaml:"consent"`     // cookie or login dialog to dismiss
	Post        string `yaml:"post"`        // social post container
	Expand      string `yaml:"expand"`      // "See more" text on social posts
}

type CustomPattern struct {
	Name string `yaml:"name"`
	Expr string `yaml:"expr"`
}

// Brand is a validated brand entry ready for a scraper.
type Brand struct {
	Key                 string
	DisplayName         string
	Strategy            Strategy
	Shared              bool
	Location            *time.Location
	Selectors           Selectors
	Patterns            extract.PatternSet
	MaxPosts            int
	TodayOnly           bool
	LocationConcurrency int
}

// BrandConfig is the validated brand file.
type BrandConfig struct {
	Location *time.Location // default zone, used for run-level dates
	Brands   []Brand        // sorted by key
}

// Select returns the named brands, or all of them when keys is empty.
func (c *BrandConfig) Select(keys []string) ([]Brand, error) {
	if len(keys) == 0 {
		return c.Brands, nil
	}
	byKey := make(map[string]Brand, len(c.Brands))
	for _, b := range c.Brands {
		byKey[b.Key] = b
	}
	out := make([]Brand, 0, len(keys))
	for _, k := range keys {
		b, ok := byKey[k]
		if !ok {
			return nil, fmt.Errorf("unknown brand %q", k)
		}
		out = append(out, b)
	}
	return out, nil
}

// LoadBrands reads and validates the brand config YAML.
func LoadBrands(path string) (*BrandConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file at '%s': %w", path, err)
	}
	return parseBrands(path, data)
}

// ParseBrands validates brand config from memory.
func ParseBrands(data []byte) (*BrandConfig, error) {
	return parseBrands("config", data)
}

func parseBrands(source string, data []byte) (*BrandConfig, error) {
	var file BrandFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, &scrapeerr.ConfigError{Source: source, Index: -1, Reason: fmt.Sprintf("invalid YAML: %v", err)}
	}

	defaultZone := file.Timezone
	if defaultZone == "" {
		defaultZone = DefaultTimezone
	}
	loc, err := time.LoadLocation(defaultZone)
	if err != nil {
		return nil, &scrapeerr.ConfigError{Source: source, Index: -1, Field: "timezone", Reason: fmt.Sprintf("unknown zone %q", defaultZone)}
	}

	keys := make([]string, 0, len(file.Brands))
	for k := range file.Brands {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	cfg := &BrandConfig{Location: loc, Brands: make([]Brand, 0, len(keys))}
	for _, key := range keys {
		b, err := resolve(source, key, file.Brands[key], defaultZone)
		if err != nil {
			return nil, err
		}
		cfg.Brands = append(cfg.Brands, b)
	}
	return cfg, nil
}

func resolve(source, key string, e BrandEntry, defaultZone string) (Brand, error) {
	fail := func(field, reason string) error {
		return &scrapeerr.ConfigError{Source: source, Brand: key, Index: -1, Field: field, Reason: reason}
	}

	b := Brand{
		Key:                 key,
		DisplayName:         e.DisplayName,
		Strategy:            Strategy(strings.ToLower(string(e.Strategy))),
		Shared:              e.Shared,
		Selectors:           e.Selectors,
		MaxPosts:            e.MaxPosts,
		TodayOnly:           true,
		LocationConcurrency: e.LocationConcurrency,
	}
	if b.DisplayName == "" {
		b.DisplayName = key
	}
	if e.TodayOnly != nil {
		b.TodayOnly = *e.TodayOnly
	}
	if b.LocationConcurrency < 1 {
		b.LocationConcurrency = 1
	}

	preset := e.Patterns
	switch b.Strategy {
	case StrategyStatic:
		if b.Selectors.Content == "" {
			b.Selectors.Content = "body"
		}
	case StrategyDynamic:
		if b.Selectors.Content == "" {
			b.Selectors.Content = "body"
		}
		if b.Selectors.Wait == "" {
			b.Selectors.Wait = b.Selectors.Content
		}
	case StrategySocial:
		if b.Selectors.Item != "" || b.Selectors.Date != "" {
			return Brand{}, fail("selectors", "item and date apply to static and dynamic pages only")
		}
		if b.Selectors.Post == "" {
			b.Selectors.Post = `[role="article"]`
		}
		if b.Selectors.Expand == "" {
			b.Selectors.Expand = "See more"
		}
		if b.MaxPosts <= 0 {
			b.MaxPosts = DefaultMaxPosts
		}
		if preset == "" {
			preset = "announcement"
		}
	case "":
		return Brand{}, fail("strategy", "is required")
	default:
		return Brand{}, fail("strategy", fmt.Sprintf("must be static, dynamic or social, got %q", e.Strategy))
	}

	zone := e.Timezone
	if zone == "" {
		zone = defaultZone
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return Brand{}, fail("timezone", fmt.Sprintf("unknown zone %q", zone))
	}
	b.Location = loc

	set, err := extract.PresetByName(preset)
	if err != nil {
		return Brand{}, fail("patterns", err.Error())
	}
	custom := make([]extract.Pattern, 0, len(e.CustomPatterns))
	for i, cp := range e.CustomPatterns {
		name := cp.Name
		if name == "" {
			name = fmt.Sprintf("%s-%d", key, i)
		}
		p, err := extract.CompilePattern(name, cp.Expr)
		if err != nil {
			return Brand{}, fail(fmt.Sprintf("custom_patterns[%d]", i), err.Error())
		}
		custom = append(custom, p)
	}
	b.Patterns = set.With(custom, e.Placeholders)

	return b, nil
}

// MultiFlavor reports whether pages list several flavors, one per item.
func (b Brand) MultiFlavor() bool {
	return b.Selectors.Item != ""
}

// Today is the brand's civil date for t.
func (b Brand) Today(t time.Time) string {
	loc := b.Location
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(time.DateOnly)
}
