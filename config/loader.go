package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix marks the environment variables that feed the configuration.
const EnvPrefix = "INFLUENCORE_"

// FileSystem abstracts the file lookups done by the loader.
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
	HomeDir() (string, error)
}

// OSFileSystem is the FileSystem of the running process.
type OSFileSystem struct{}

// Exists reports whether path can be stat'ed.
func (OSFileSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// LoadEnv loads a .env file into the process environment without overriding
// variables that are already set.
func (OSFileSystem) LoadEnv(path string) error {
	return godotenv.Load(path)
}

// HomeDir returns the user's home directory.
func (OSFileSystem) HomeDir() (string, error) {
	return os.UserHomeDir()
}

// Files are the resolved configuration sources. Empty means not found.
type Files struct {
	ConfigFile string
	EnvFile    string
}

type options struct {
	fs         FileSystem
	configFile string
	envFile    string
	environ    func() []string
}

// Option customizes Load.
type Option func(*options)

// WithFileSystem replaces the filesystem used for lookups.
func WithFileSystem(fs FileSystem) Option {
	return func(o *options) { o.fs = fs }
}

// WithConfigFile uses path instead of searching for a config file.
func WithConfigFile(path string) Option {
	return func(o *options) { o.configFile = path }
}

// WithEnvFile uses path instead of searching for a .env file.
func WithEnvFile(path string) Option {
	return func(o *options) { o.envFile = path }
}

// WithEnviron replaces os.Environ as the source of variables.
func WithEnviron(fn func() []string) Option {
	return func(o *options) { o.environ = fn }
}

// Resolve finds the config and .env files. Explicit paths win; otherwise
// the working directory is searched first, then ~/.influencore.
func Resolve(opts ...Option) Files {
	o := newOptions(opts)
	return o.resolve()
}

func newOptions(opts []Option) *options {
	o := &options{fs: OSFileSystem{}, environ: os.Environ}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *options) resolve() Files {
	files := Files{ConfigFile: o.configFile, EnvFile: o.envFile}
	dirs := o.searchDirs()

	if files.ConfigFile == "" {
		files.ConfigFile = o.find(dirs, "influencore.yml", "influencore.yaml", "config.yml", "config.yaml")
	}
	if files.EnvFile == "" {
		files.EnvFile = o.find(dirs, ".env.influencore", ".env")
	}
	return files
}

func (o *options) searchDirs() []string {
	dirs := []string{".", "config"}
	if home, err := o.fs.HomeDir(); err == nil && home != "" {
		dirs = append(dirs, filepath.Join(home, ".influencore"))
	}
	return dirs
}

func (o *options) find(dirs []string, names ...string) string {
	for _, dir := range dirs {
		for _, name := range names {
			path := filepath.Join(dir, name)
			if o.fs.Exists(path) {
				return path
			}
		}
	}
	return ""
}

// Load reads the configuration into cfg, which must be a pointer to a
// struct with mapstructure tags. Defaults are not applied.
func Load(cfg interface{}, opts ...Option) error {
	o := newOptions(opts)
	files := o.resolve()
	v := viper.New()

	if files.ConfigFile != "" {
		if !o.fs.Exists(files.ConfigFile) {
			return fmt.Errorf("config file %s not found", files.ConfigFile)
		}
		v.SetConfigFile(files.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", files.ConfigFile, err)
		}
	}

	if files.EnvFile != "" && o.fs.Exists(files.EnvFile) {
		if err := o.fs.LoadEnv(files.EnvFile); err != nil {
			return fmt.Errorf("load env file %s: %w", files.EnvFile, err)
		}
	}
	bindEnv(v, o.environ())

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	return nil
}

// bindEnv sets every INFLUENCORE_* variable under all of its candidate keys.
// Viper ignores keys that match no struct field, so the extra variants are
// harmless.
func bindEnv(v *viper.Viper, environ []string) {
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, EnvPrefix) {
			continue
		}
		for _, variant := range keyVariants(strings.TrimPrefix(key, EnvPrefix)) {
			v.Set(variant, value)
		}
	}
}

// keyVariants lists the nested keys an underscore-separated name may mean,
// since underscores are both separators and part of field names:
//
//	CLIENT_BASE_URL -> client_base_url, client.base.url, client.base_url, client_base.url
func keyVariants(name string) []string {
	lower := strings.ToLower(name)
	parts := strings.Split(lower, "_")
	if len(parts) == 1 {
		return []string{lower}
	}

	seen := make(map[string]bool)
	var out []string
	add := func(k string) {
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}

	add(lower)
	add(strings.Join(parts, "."))
	// one split point
	for i := 1; i < len(parts); i++ {
		add(strings.Join(parts[:i], "_") + "." + strings.Join(parts[i:], "_"))
	}
	// dotted prefix with a compound leaf
	for i := 1; i < len(parts)-1; i++ {
		add(strings.Join(parts[:i], ".") + "." + strings.Join(parts[i:], "_"))
	}
	return out
}
