package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/coinchimp/whistle/internal/errors"
	"github.com/coinchimp/whistle/internal/whistle/conf"
	"github.com/coinchimp/whistle/internal/whistle/discord"
	"github.com/coinchimp/whistle/internal/whistle/metrics"
)

type Service struct {
	conf    Config
	client  *discord.Client
	metrics *metrics.Metrics

	router *gin.Engine
	server *http.Server
}

type Config interface {
	GetHTTPAddr() string
	GetDiscordWebhooks() string
	GetEmbed() conf.Embed
	GetMetrics() bool
	GetShutdownTimeout() time.Duration
}

func NewService(conf Config, client *discord.Client, m *metrics.Metrics) *Service {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	if err := router.SetTrustedProxies(nil); err != nil {
		log.Err(err).Msg("Failed to set trusted proxies")
	}

	// The path segment is the lookup key and must reach the handler as sent.
	router.UseRawPath = true
	router.UnescapePathValues = false
	router.RedirectTrailingSlash = false
	router.RedirectFixedPath = false

	router.Use(
		errors.RecoveryMiddleware(),
		errors.ErrorHandlerMiddleware(),
		gin.LoggerWithWriter(log.Logger, "/"),
	)

	if client == nil {
		client = discord.NewClient(nil)
	}
	if m == nil {
		m = metrics.New()
	}

	s := &Service{
		conf:    conf,
		client:  client,
		metrics: m,
		router:  router,
	}

	s.initRouter()
	return s
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Service) ListenAndServe(ctx context.Context) error {
	s.server = &http.Server{
		Addr:    s.conf.GetHTTPAddr(),
		Handler: s.router,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Msg("Starting HTTP server on " + s.conf.GetHTTPAddr())
		errCh <- s.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return errors.Wrap(err, errors.ErrTypeInternal, "http server on "+s.conf.GetHTTPAddr())
	case <-ctx.Done():
		return s.Stop()
	}
}

func (s *Service) Stop() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.conf.GetShutdownTimeout())
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		log.Debug().Err(err).Msg("Failed to shutdown HTTP server")
		return nil
	}

	log.Info().Msg("HTTP server stopped")
	return nil
}

func (s *Service) GetRouter() *gin.Engine {
	return s.router
}
