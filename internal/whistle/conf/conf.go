package conf

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"

	"github.com/coinchimp/whistle/internal/errors"
	"github.com/coinchimp/whistle/pkg/config"
)

const (
	AppName   = "whistle"
	EnvPrefix = "WHISTLE"
)

// Service owns the loaded configuration. It is safe for concurrent use.
type Service struct {
	mu   sync.RWMutex
	scm  *config.Manager
	conf *ServerConfig
}

// LoadServiceConfig builds the configuration from defaults, the optional
// config file, the environment and cmdConf overrides, in increasing order
// of precedence.
func LoadServiceConfig(configFile string, cmdConf map[string]any) (*Service, error) {
	scm, err := config.New(AppName, configFile, EnvPrefix)
	if err != nil {
		log.Error().Err(err).Msg("load server config failed")
		return nil, err
	}

	config.SetDefaults(scm.Viper, ServerDefaults)
	for key, env := range EnvBindings {
		if err := scm.BindEnv(key, env); err != nil {
			return nil, errors.Config("bind env "+env, err)
		}
	}

	for key, value := range cmdConf {
		scm.SetConfig(key, value)
	}

	s := &Service{scm: scm}
	if err := s.load(); err != nil {
		log.Error().Err(err).Msg("load server config failed")
		return nil, err
	}

	b, _ := json.Marshal(s.conf)
	log.Info().Msgf("server config: %s", string(b))

	return s, nil
}

func (s *Service) load() error {
	conf := &ServerConfig{}
	if err := s.scm.Load(conf); err != nil {
		return errors.Config("read config", err)
	}
	if conf.Port <= 0 || conf.Port > 65535 {
		return errors.Config(fmt.Sprintf("port %d is out of range [1, 65535]", conf.Port), nil)
	}

	s.conf = conf
	return nil
}

// Reload re-reads the config file. A listen address change only takes
// effect after a restart.
func (s *Service) Reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.conf
	if err := s.load(); err != nil {
		s.conf = prev
		return err
	}
	if prev != nil && prev.GetHTTPAddr() != s.conf.GetHTTPAddr() {
		log.Warn().
			Str("from", prev.GetHTTPAddr()).
			Str("to", s.conf.GetHTTPAddr()).
			Msg("listen address changed, restart to apply")
	}
	return nil
}

// Watch reloads the configuration whenever the config file changes, until
// ctx is done. Without a config file it does nothing.
func (s *Service) Watch(ctx context.Context) error {
	err := s.scm.Watch(ctx, func(event fsnotify.Event) {
		if err := s.Reload(); err != nil {
			log.Error().Err(err).Str("file", event.Name).Msg("reload config failed")
			return
		}
		log.Info().Str("file", event.Name).Msg("config reloaded")
	})
	if err == config.ErrNoConfigFile {
		return nil
	}
	return err
}

// GetConfig returns a copy of the current configuration.
func (s *Service) GetConfig() *ServerConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c := *s.conf
	return &c
}

// GetDiscordWebhooks returns the percent-encoded mapping list. Nothing is
// cached: the environment (or config file) is consulted on every call.
func (s *Service) GetDiscordWebhooks() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.scm.Viper.GetString("discord_webhooks")
}

func (s *Service) GetHTTPAddr() string {
	return s.GetConfig().GetHTTPAddr()
}

func (s *Service) GetEmbed() Embed {
	return s.GetConfig().GetEmbed()
}

func (s *Service) GetMetrics() bool {
	return s.GetConfig().GetMetrics()
}

func (s *Service) GetShutdownTimeout() time.Duration {
	return s.GetConfig().GetShutdownTimeout()
}
