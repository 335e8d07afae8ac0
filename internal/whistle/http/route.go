package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/coinchimp/whistle/internal/errors"
	"github.com/coinchimp/whistle/internal/whistle/discord"
	"github.com/coinchimp/whistle/internal/whistle/webhook"
)

const (
	HealthyText = "Healthy"
	SentText    = "Content sent to Discord"
)

func (s *Service) initRouter() {
	s.initBaseRouter()
	s.initWebhookRouter()
}

func (s *Service) initBaseRouter() {
	s.router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, HealthyText)
	})

	if s.conf.GetMetrics() {
		s.router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	s.router.NoRoute(s.NoRoute)
}

func (s *Service) initWebhookRouter() {
	s.router.POST("/webhook/:path", s.alertMiddleware(), s.handleWebhook)
}

// NoRoute answers every unmatched request, whatever the method.
func (s *Service) NoRoute(c *gin.Context) {
	log.Info().Str("method", c.Request.Method).Str("path", c.Request.URL.Path).Msg("Handling rejection: no route")
	c.String(http.StatusNotFound, errors.NotFoundText)
}

func (s *Service) handleWebhook(c *gin.Context) {
	path := rawSegment(c, "/webhook/")

	payload, err := readPayload(c.Request.Body)
	if err != nil {
		s.reject(c, errors.InvalidPayload(err))
		return
	}

	url, err := webhook.Lookup(s.conf.GetDiscordWebhooks(), path)
	if err != nil {
		s.reject(c, err)
		return
	}
	log.Info().Msgf("Using webhook URL: %s", url)
	log.Info().Msgf("Received data: %s", discord.Canonical(payload))

	e := s.conf.GetEmbed()
	msg := discord.Formatter{Name: e.Name, URL: e.URL, IconURL: e.IconURL}.Format(payload)

	// A caller hanging up does not abort a post already under way.
	ctx := context.WithoutCancel(c.Request.Context())

	start := time.Now()
	err = s.client.Send(ctx, url, msg)
	s.metrics.DispatchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		s.metrics.Dispatches.WithLabelValues("error").Inc()
		s.reject(c, err)
		return
	}
	s.metrics.Dispatches.WithLabelValues("ok").Inc()

	c.String(http.StatusOK, SentText)
}

// rawSegment returns the path segment after prefix exactly as the client
// escaped it. The router only guarantees this when the request carried a
// non-canonical escape, so it is recovered from the escaped path.
func rawSegment(c *gin.Context, prefix string) string {
	return strings.TrimPrefix(c.Request.URL.EscapedPath(), prefix)
}

// reject hands err to the error middleware, which answers 404 for every kind.
func (s *Service) reject(c *gin.Context, err error) {
	reason := errors.GetType(err)
	s.metrics.AlertsRejected.WithLabelValues(reason).Inc()

	if reason == errors.ErrTypeNoMatchingWebhook {
		log.Error().Msg(err.Error())
	} else {
		log.Info().Err(err).AnErr("cause", errors.RootCause(err)).Msg("Handling rejection")
	}

	_ = c.Error(err)
	c.Abort()
}

// readPayload decodes a body holding exactly one JSON value of any shape.
// The body must be valid UTF-8; encoding/json would otherwise substitute
// U+FFFD silently. Numbers are kept as json.Number so they render as received.
func readPayload(r io.Reader) (any, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(body) {
		return nil, fmt.Errorf("body is not valid UTF-8")
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var payload any
	if err := dec.Decode(&payload); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("unexpected data after JSON value")
	}
	return payload, nil
}
