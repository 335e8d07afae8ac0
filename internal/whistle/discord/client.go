package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/coinchimp/whistle/internal/errors"
)

// Client posts messages to Discord webhooks. A single attempt is made and
// the response status is not inspected.
type Client struct {
	client *http.Client
}

// NewClient wraps hc. A nil hc uses a plain http.Client with no timeout of
// its own.
func NewClient(hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{}
	}
	return &Client{client: hc}
}

// Send posts msg to url. Only a failure to build or carry the request is an
// error; any HTTP response counts as delivered.
func (c *Client) Send(ctx context.Context, url string, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return errors.DispatchFailure(url, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		log.Error().Err(err).Msg("Failed to send message to Discord")
		return errors.DispatchFailure(url, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		log.Error().Err(err).Msg("Failed to send message to Discord")
		return errors.DispatchFailure(url, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	log.Info().Int("status", resp.StatusCode).Msg("Message successfully sent to Discord.")
	return nil
}
