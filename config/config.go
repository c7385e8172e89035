package config

import (
	"os"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// SystemConfig holds process-level settings.
type SystemConfig struct {
	Appid    string `yaml:"appid"`
	Location string `yaml:"location"`
	Workdir  string `yaml:"workdir"`
}

// LoggerConfig controls zap initialization.
type LoggerConfig struct {
	Mode       string `yaml:"mode"` // development | production
	FileEnable bool   `yaml:"file_enable"`
	Filename   string `yaml:"filename"`
}

// CatalogAPIConfig points at the remote product API.
type CatalogAPIConfig struct {
	BaseURL string `yaml:"base_url"`
	Timeout int    `yaml:"timeout"` // seconds, 0 = default
}

// AssetsConfig points at the remote object-storage endpoints.
type AssetsConfig struct {
	UploadURL    string `yaml:"upload_url"`
	DeleteURL    string `yaml:"delete_url"`
	UploadPreset string `yaml:"upload_preset"`
	// RetryFailedDeletes enables the janitor that re-attempts asset deletes
	// which failed their fire-and-forget call. Off by default: the stock
	// behavior is notification-only with accepted local/remote divergence.
	RetryFailedDeletes bool   `yaml:"retry_failed_deletes"`
	RetrySchedule      string `yaml:"retry_schedule"` // cron spec, default @every 1m
}

// CatalogOptions are the option lists the product form offers. They are
// injected into the form controller at construction; nothing reads them from
// ambient global state.
type CatalogOptions struct {
	Genders       []string `yaml:"genders"`
	DefaultGender string   `yaml:"default_gender"`
	Statuses      []string `yaml:"statuses"`
	Tags          []string `yaml:"tags"`
	Sizes         []string `yaml:"sizes"`
	Colors        []string `yaml:"colors"`
}

// Gender returns the configured default gender, falling back to the last
// entry of the gender list (the unisex option in the stock configuration).
func (o CatalogOptions) Gender() string {
	if o.DefaultGender != "" {
		return o.DefaultGender
	}
	if len(o.Genders) > 0 {
		return o.Genders[len(o.Genders)-1]
	}
	return ""
}

// Status returns the default status for a fresh draft.
func (o CatalogOptions) Status() string {
	if len(o.Statuses) > 0 {
		return o.Statuses[0]
	}
	return ""
}

type AppConfig struct {
	System  SystemConfig     `yaml:"system"`
	Logger  LoggerConfig     `yaml:"logger"`
	API     CatalogAPIConfig `yaml:"api"`
	Assets  AssetsConfig     `yaml:"assets"`
	Options CatalogOptions   `yaml:"options"`
}

// DefaultConfig mirrors the stock dashboard configuration.
func DefaultConfig() *AppConfig {
	return &AppConfig{
		System: SystemConfig{
			Appid:    "admincore",
			Location: "UTC",
			Workdir:  "/var/admincore",
		},
		Logger: LoggerConfig{
			Mode:     "development",
			Filename: "/var/admincore/admincore.log",
		},
		API: CatalogAPIConfig{
			Timeout: 30,
		},
		Assets: AssetsConfig{
			UploadPreset:  "my-uploads",
			RetrySchedule: "@every 1m",
		},
		Options: CatalogOptions{
			Genders:  []string{"Men", "Women", "Kids", "Unisex"},
			Statuses: []string{"sale", "new", "regular", "disabled"},
			Tags:     []string{"Shirts", "Shoes", "Pants", "Accessories"},
			Sizes:    []string{"XS", "S", "M", "L", "XL"},
			Colors:   []string{"Black", "White", "Red", "Blue", "Green"},
		},
	}
}

// LoadConfig reads the YAML file at path (skipped when empty or missing) and
// applies environment overrides on top of the defaults.
func LoadConfig(path string) (*AppConfig, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, errors.Wrapf(err, "read config %s", path)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrapf(err, "parse config %s", path)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, errors.Wrap(err, "apply env overrides")
	}
	return cfg, nil
}

// applyEnv folds ADMINCORE_* variables over the loaded file. Values are
// decoded weakly typed so booleans and ints may be given as plain strings.
func (c *AppConfig) applyEnv() error {
	overrides := map[string]interface{}{}
	section := func(name string) map[string]interface{} {
		m, ok := overrides[name].(map[string]interface{})
		if !ok {
			m = map[string]interface{}{}
			overrides[name] = m
		}
		return m
	}
	for env, target := range map[string][2]string{
		"ADMINCORE_API_BASE_URL":          {"api", "base_url"},
		"ADMINCORE_API_TIMEOUT":           {"api", "timeout"},
		"ADMINCORE_ASSETS_UPLOAD_URL":     {"assets", "upload_url"},
		"ADMINCORE_ASSETS_DELETE_URL":     {"assets", "delete_url"},
		"ADMINCORE_ASSETS_UPLOAD_PRESET":  {"assets", "upload_preset"},
		"ADMINCORE_ASSETS_RETRY_DELETES":  {"assets", "retry_failed_deletes"},
		"ADMINCORE_ASSETS_RETRY_SCHEDULE": {"assets", "retry_schedule"},
		"ADMINCORE_LOGGER_MODE":           {"logger", "mode"},
		"ADMINCORE_LOGGER_FILE_ENABLE":    {"logger", "file_enable"},
		"ADMINCORE_LOGGER_FILENAME":       {"logger", "filename"},
		"ADMINCORE_WORKDIR":               {"system", "workdir"},
	} {
		if v := os.Getenv(env); v != "" {
			section(target[0])[target[1]] = v
		}
	}
	if len(overrides) == 0 {
		return nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           c,
		TagName:          "yaml",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return dec.Decode(overrides)
}
