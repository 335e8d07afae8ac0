package config

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

var (
	ErrMissingConfigName = errors.New("config name not specified")
	ErrNoConfigFile      = errors.New("no config file to watch")
)

// Manager wraps a viper instance that merges defaults, an optional config
// file, environment variables and explicit overrides.
type Manager struct {
	App       string
	EnvPrefix string
	File      string

	Viper *viper.Viper
}

// New prepares a Manager. file may be empty, in which case only defaults,
// environment and overrides are consulted. The file format follows its
// extension.
func New(app, file, envPrefix string) (*Manager, error) {
	if len(app) == 0 {
		return nil, ErrMissingConfigName
	}

	v := viper.New()

	if len(file) != 0 {
		v.SetConfigFile(file)
	}

	if len(envPrefix) != 0 {
		v.SetEnvPrefix(strings.ToUpper(envPrefix))
		v.AutomaticEnv()
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	}

	return &Manager{
		App:       app,
		EnvPrefix: envPrefix,
		File:      file,
		Viper:     v,
	}, nil
}

// BindEnv ties key to explicit environment variable names, bypassing the
// prefix. Values are looked up on every read.
func (c *Manager) BindEnv(key string, envs ...string) error {
	return c.Viper.BindEnv(append([]string{key}, envs...)...)
}

// Load reads the config file, if any, and unmarshals every known key into
// conf.
func (c *Manager) Load(conf interface{}) error {
	if len(c.File) != 0 {
		if err := c.Viper.ReadInConfig(); err != nil {
			return err
		}
	}
	return c.Viper.Unmarshal(conf, decoderConfig())
}

// SetConfig overrides key with the highest precedence.
func (c *Manager) SetConfig(key string, value interface{}) {
	c.Viper.Set(key, value)
}

// GetConfig retrieves all configuration settings as a map.
func (c *Manager) GetConfig() map[string]interface{} {
	return c.Viper.AllSettings()
}

// Watch calls onChange whenever the config file is written or replaced,
// until ctx is done. Editors that save through a rename are handled by
// watching the parent directory.
func (c *Manager) Watch(ctx context.Context, onChange func(fsnotify.Event)) error {
	if len(c.File) == 0 {
		return ErrNoConfigFile
	}

	file, err := filepath.Abs(c.File)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(file)); err != nil {
		watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != file {
					continue
				}
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
					onChange(event)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Err(err).Str("file", file).Msg("config watcher error")
			}
		}
	}()

	return nil
}

// SetDefaults registers every entry of defaults with v.
func SetDefaults(v *viper.Viper, defaults map[string]any) {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
}
