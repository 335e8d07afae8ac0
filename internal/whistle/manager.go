package whistle

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/coinchimp/whistle/internal/whistle/conf"
	"github.com/coinchimp/whistle/internal/whistle/discord"
	"github.com/coinchimp/whistle/internal/whistle/http"
	"github.com/coinchimp/whistle/internal/whistle/metrics"
)

// Manager wires the relay's services together.
type Manager struct {
	sc *conf.Service

	metrics *metrics.Metrics
	http    *http.Service
}

func New() *Manager {
	return &Manager{}
}

// CommandHTTPServer loads the configuration and serves until SIGINT or
// SIGTERM.
func (m *Manager) CommandHTTPServer(configFile string, cmdConf map[string]any) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return m.Serve(ctx, configFile, cmdConf)
}

// Serve is CommandHTTPServer with a caller-owned lifetime.
func (m *Manager) Serve(ctx context.Context, configFile string, cmdConf map[string]any) error {
	var err error
	m.sc, err = conf.LoadServiceConfig(configFile, cmdConf)
	if err != nil {
		return err
	}

	if err := m.sc.Watch(ctx); err != nil {
		log.Err(err).Msg("config file watch disabled")
	}

	m.metrics = metrics.New()
	m.http = http.NewService(m.sc, discord.NewClient(nil), m.metrics)

	return m.http.ListenAndServe(ctx)
}
