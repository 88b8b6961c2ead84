package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the base name of droste.yaml without extension.
	ConfigFileName = "droste"

	// EnvPrefix prefixes environment overrides, e.g. DROSTE_SERVER_PORT.
	EnvPrefix = "DROSTE"
)

// Loader resolves a Config from defaults, a YAML file, environment variables
// and whatever flags the caller bound on its viper instance.
type Loader struct {
	v *viper.Viper
}

// NewLoader uses the global viper instance.
func NewLoader() *Loader {
	return &Loader{v: viper.GetViper()}
}

// NewLoaderWithViper uses v, typically a fresh viper.New() per run.
func NewLoaderWithViper(v *viper.Viper) *Loader {
	return &Loader{v: v}
}

// Load searches GetConfigSearchPaths for droste.yaml and validates the result.
// A missing file is not an error.
func (l *Loader) Load() (*Config, error) {
	return l.LoadWithFile("")
}

// LoadWithFile reads path (or searches when path is empty) and validates the
// result.
func (l *Loader) LoadWithFile(path string) (*Config, error) {
	cfg, err := l.Read(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Read is LoadWithFile without validation.
func (l *Loader) Read(path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file does not exist: %s", path)
		}
		l.v.SetConfigFile(path)
	} else {
		l.v.SetConfigName(ConfigFileName)
		l.v.SetConfigType("yaml")
		for _, dir := range GetConfigSearchPaths() {
			l.v.AddConfigPath(dir)
		}
	}

	l.v.SetEnvPrefix(EnvPrefix)
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	l.v.AutomaticEnv()
	registerDefaults(l.v, "", reflect.ValueOf(DefaultConfig()).Elem())

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &cfg, nil
}

// ConfigFileUsed returns the file that was read, or "" when none was found.
func (l *Loader) ConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// Viper exposes the underlying instance for flag binding and re-unmarshaling.
func (l *Loader) Viper() *viper.Viper {
	return l.v
}

// registerDefaults sets a default for every leaf of rv keyed by its
// mapstructure path. Viper only maps environment variables onto known keys,
// so every field has to be registered.
func registerDefaults(v *viper.Viper, prefix string, rv reflect.Value) {
	rt := rv.Type()
	for i := range rt.NumField() {
		field := rt.Field(i)
		name, _, _ := strings.Cut(field.Tag.Get("mapstructure"), ",")
		if name == "" || name == "-" {
			continue
		}
		key := name
		if prefix != "" {
			key = prefix + "." + name
		}
		if fv := rv.Field(i); fv.Kind() == reflect.Struct {
			registerDefaults(v, key, fv)
		} else {
			v.SetDefault(key, fv.Interface())
		}
	}
}

// GenerateDefaultConfigFile writes a droste.yaml holding only defaults.
func GenerateDefaultConfigFile(filename string) error {
	if filename == "" {
		filename = ConfigFileName + ".yaml"
	}
	v := viper.New()
	registerDefaults(v, "", reflect.ValueOf(DefaultConfig()).Elem())
	return v.WriteConfigAs(filename)
}

// GetConfigSearchPaths returns the directories searched for droste.yaml, in
// order: working directory, home, XDG config dir, /etc/droste.
func GetConfigSearchPaths() []string {
	paths := []string{"."}
	home, homeErr := os.UserHomeDir()
	if homeErr == nil {
		paths = append(paths, home)
	}
	switch xdg, ok := os.LookupEnv("XDG_CONFIG_HOME"); {
	case ok:
		paths = append(paths, filepath.Join(xdg, ConfigFileName))
	case homeErr == nil:
		paths = append(paths, filepath.Join(home, ".config", ConfigFileName))
	}
	return append(paths, "/etc/"+ConfigFileName)
}
