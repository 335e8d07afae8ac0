package http

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coinchimp/whistle/internal/errors"
	"github.com/coinchimp/whistle/internal/whistle/conf"
	"github.com/coinchimp/whistle/internal/whistle/discord"
	"github.com/coinchimp/whistle/internal/whistle/metrics"
)

type testConfig struct {
	webhooks string
	metrics  bool
}

func (c *testConfig) GetHTTPAddr() string               { return "127.0.0.1:0" }
func (c *testConfig) GetDiscordWebhooks() string        { return c.webhooks }
func (c *testConfig) GetMetrics() bool                  { return c.metrics }
func (c *testConfig) GetShutdownTimeout() time.Duration { return time.Second }
func (c *testConfig) GetEmbed() conf.Embed {
	return conf.Embed{Name: conf.DefaultEmbedName, URL: conf.DefaultEmbedURL, IconURL: conf.DefaultEmbedIconURL}
}

// fakeDiscord records every message posted to it.
type fakeDiscord struct {
	*httptest.Server

	mu       sync.Mutex
	paths    []string
	messages []discord.Message
}

func newFakeDiscord(t *testing.T, status int) *fakeDiscord {
	t.Helper()
	f := &fakeDiscord{}
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		var msg discord.Message
		if err := json.Unmarshal(b, &msg); err != nil {
			t.Errorf("fake discord: bad body %q: %v", b, err)
		}
		f.mu.Lock()
		f.paths = append(f.paths, r.URL.Path)
		f.messages = append(f.messages, msg)
		f.mu.Unlock()
		w.WriteHeader(status)
	}))
	t.Cleanup(f.Close)
	return f
}

func (f *fakeDiscord) calls() ([]string, []discord.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.paths...), append([]discord.Message(nil), f.messages...)
}

func mappings(t *testing.T, pairs ...string) string {
	t.Helper()
	var list []map[string]string
	for i := 0; i+1 < len(pairs); i += 2 {
		list = append(list, map[string]string{"path": pairs[i], "url": pairs[i+1]})
	}
	b, err := json.Marshal(list)
	if err != nil {
		t.Fatal(err)
	}
	return url.PathEscape(string(b))
}

func do(s *Service, method, target, contentType, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	s.GetRouter().ServeHTTP(w, req)
	return w
}

func assertResponse(t *testing.T, w *httptest.ResponseRecorder, code int, body string) {
	t.Helper()
	if w.Code != code {
		t.Errorf("status = %d, want %d", w.Code, code)
	}
	if w.Body.String() != body {
		t.Errorf("body = %q, want %q", w.Body.String(), body)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Content-Type = %q, want text/plain", ct)
	}
}

func TestScenarioAObjectAlert(t *testing.T) {
	fake := newFakeDiscord(t, http.StatusNoContent)
	s := NewService(&testConfig{webhooks: mappings(t, "alerts", fake.URL+"/abc")}, nil, nil)

	body := `{"exchange":"BINANCE","ticker":"BTCUSDT","close":"100","open":"120","event":"cross","interval":"1h","volume":"500"}`
	w := do(s, http.MethodPost, "/webhook/alerts", "application/json", body)
	assertResponse(t, w, http.StatusOK, SentText)

	paths, msgs := fake.calls()
	if len(msgs) != 1 {
		t.Fatalf("outbound calls = %d, want 1", len(msgs))
	}
	if paths[0] != "/abc" {
		t.Errorf("outbound path = %q, want /abc", paths[0])
	}
	e := msgs[0].Embeds[0]
	if e.Author.Name != "Whistle: BTCUSDT cross at BINANCE" {
		t.Errorf("Author.Name = %q", e.Author.Name)
	}
	if e.Color != discord.ColorRed {
		t.Errorf("Color = %#x, want red", e.Color)
	}
}

func TestScenarioBUnknownPath(t *testing.T) {
	fake := newFakeDiscord(t, http.StatusNoContent)
	s := NewService(&testConfig{webhooks: mappings(t, "alerts", fake.URL)}, nil, nil)

	w := do(s, http.MethodPost, "/webhook/unknown", "application/json", `{"ticker":"BTC"}`)
	assertResponse(t, w, http.StatusNotFound, errors.NotFoundText)

	if _, msgs := fake.calls(); len(msgs) != 0 {
		t.Errorf("outbound calls = %d, want 0", len(msgs))
	}
}

func TestScenarioCInvalidConfig(t *testing.T) {
	fake := newFakeDiscord(t, http.StatusNoContent)
	for _, cfg := range []string{"%zz", "not json", `[{"path":"alerts",`} {
		s := NewService(&testConfig{webhooks: cfg}, nil, nil)

		w := do(s, http.MethodPost, "/webhook/alerts", "application/json", `{}`)
		assertResponse(t, w, http.StatusNotFound, errors.NotFoundText)
	}
	if _, msgs := fake.calls(); len(msgs) != 0 {
		t.Errorf("outbound calls = %d, want 0", len(msgs))
	}
}

func TestScenarioDTextAlert(t *testing.T) {
	fake := newFakeDiscord(t, http.StatusOK)
	s := NewService(&testConfig{webhooks: mappings(t, "alerts", fake.URL)}, nil, nil)

	w := do(s, http.MethodPost, "/webhook/alerts", "application/json", `"simple text"`)
	assertResponse(t, w, http.StatusOK, SentText)

	_, msgs := fake.calls()
	if len(msgs) != 1 {
		t.Fatalf("outbound calls = %d, want 1", len(msgs))
	}
	e := msgs[0].Embeds[0]
	if e.Description != `Event: "simple text"` {
		t.Errorf("Description = %q", e.Description)
	}
	if e.Color != discord.ColorPink {
		t.Errorf("Color = %#x, want pink", e.Color)
	}
}

func TestScenarioEHealth(t *testing.T) {
	for _, cfg := range []string{"", "%zz", mappings(t, "a", "http://x")} {
		s := NewService(&testConfig{webhooks: cfg}, nil, nil)
		assertResponse(t, do(s, http.MethodGet, "/", "", ""), http.StatusOK, HealthyText)
	}
}

func TestDispatchFailureIsNotFound(t *testing.T) {
	fake := newFakeDiscord(t, http.StatusOK)
	addr := fake.URL
	fake.Close()

	m := metrics.New()
	s := NewService(&testConfig{webhooks: mappings(t, "alerts", addr)}, nil, m)

	w := do(s, http.MethodPost, "/webhook/alerts", "application/json", `{"ticker":"BTC"}`)
	assertResponse(t, w, http.StatusNotFound, errors.NotFoundText)
}

func TestRemoteStatusIsNotInspected(t *testing.T) {
	fake := newFakeDiscord(t, http.StatusBadRequest)
	s := NewService(&testConfig{webhooks: mappings(t, "alerts", fake.URL)}, nil, nil)

	w := do(s, http.MethodPost, "/webhook/alerts", "application/json", `1`)
	assertResponse(t, w, http.StatusOK, SentText)
}

func TestFirstMappingWins(t *testing.T) {
	first := newFakeDiscord(t, http.StatusOK)
	second := newFakeDiscord(t, http.StatusOK)
	s := NewService(&testConfig{webhooks: mappings(t, "alerts", first.URL, "alerts", second.URL)}, nil, nil)

	assertResponse(t, do(s, http.MethodPost, "/webhook/alerts", "", `{}`), http.StatusOK, SentText)

	if _, msgs := first.calls(); len(msgs) != 1 {
		t.Errorf("first destination calls = %d, want 1", len(msgs))
	}
	if _, msgs := second.calls(); len(msgs) != 0 {
		t.Errorf("second destination calls = %d, want 0", len(msgs))
	}
}

func TestConfigReadPerRequest(t *testing.T) {
	fake := newFakeDiscord(t, http.StatusOK)
	cfg := &testConfig{webhooks: "%5B%5D"}
	s := NewService(cfg, nil, nil)

	assertResponse(t, do(s, http.MethodPost, "/webhook/alerts", "", `{}`), http.StatusNotFound, errors.NotFoundText)

	cfg.webhooks = mappings(t, "alerts", fake.URL)
	assertResponse(t, do(s, http.MethodPost, "/webhook/alerts", "", `{}`), http.StatusOK, SentText)
}

func TestPathSegmentUsedVerbatim(t *testing.T) {
	fake := newFakeDiscord(t, http.StatusOK)

	for _, segment := range []string{"a%20b", "a%2Fb", "plain"} {
		t.Run(segment, func(t *testing.T) {
			s := NewService(&testConfig{webhooks: mappings(t, segment, fake.URL)}, nil, nil)
			assertResponse(t, do(s, http.MethodPost, "/webhook/"+segment, "application/json", `{}`), http.StatusOK, SentText)
		})
	}

	s := NewService(&testConfig{webhooks: mappings(t, "a b", fake.URL)}, nil, nil)
	w := do(s, http.MethodPost, "/webhook/a%20b", "application/json", `{}`)
	assertResponse(t, w, http.StatusNotFound, errors.NotFoundText)
}

func TestRejectedRequests(t *testing.T) {
	fake := newFakeDiscord(t, http.StatusOK)
	s := NewService(&testConfig{webhooks: mappings(t, "alerts", fake.URL)}, nil, nil)

	tests := []struct {
		name        string
		method      string
		target      string
		contentType string
		body        string
	}{
		{"empty body", http.MethodPost, "/webhook/alerts", "application/json", ""},
		{"malformed json", http.MethodPost, "/webhook/alerts", "application/json", `{"ticker":`},
		{"trailing data", http.MethodPost, "/webhook/alerts", "application/json", `{} {}`},
		{"invalid utf-8 string", http.MethodPost, "/webhook/alerts", "application/json", "\"bad \xff byte\""},
		{"invalid utf-8 object", http.MethodPost, "/webhook/alerts", "", "{\"ticker\":\"\xc3\"}"},
		{"non-application json", http.MethodPost, "/webhook/alerts", "text/x+json", `{}`},
		{"text content type", http.MethodPost, "/webhook/alerts", "text/plain", `{}`},
		{"bad content type", http.MethodPost, "/webhook/alerts", ";;", `{}`},
		{"get on webhook", http.MethodGet, "/webhook/alerts", "", ""},
		{"missing segment", http.MethodPost, "/webhook/", "application/json", `{}`},
		{"extra segment", http.MethodPost, "/webhook/alerts/x", "application/json", `{}`},
		{"trailing slash", http.MethodPost, "/webhook/alerts/", "application/json", `{}`},
		{"post on health", http.MethodPost, "/", "application/json", `{}`},
		{"unknown route", http.MethodGet, "/nope", "", ""},
		{"metrics disabled", http.MethodGet, "/metrics", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(s, tt.method, tt.target, tt.contentType, tt.body)
			assertResponse(t, w, http.StatusNotFound, errors.NotFoundText)
		})
	}

	if _, msgs := fake.calls(); len(msgs) != 0 {
		t.Errorf("outbound calls = %d, want 0", len(msgs))
	}
}

func TestAcceptedContentTypes(t *testing.T) {
	fake := newFakeDiscord(t, http.StatusOK)
	s := NewService(&testConfig{webhooks: mappings(t, "alerts", fake.URL)}, nil, nil)

	for _, ct := range []string{"", "application/json", "application/json; charset=utf-8", "application/vnd.api+json", "Application/JSON"} {
		w := do(s, http.MethodPost, "/webhook/alerts", ct, `{"ticker":"BTC"}`)
		if w.Code != http.StatusOK {
			t.Errorf("Content-Type %q: status = %d, want 200", ct, w.Code)
		}
	}
}

func TestMetricsRoute(t *testing.T) {
	fake := newFakeDiscord(t, http.StatusOK)
	s := NewService(&testConfig{webhooks: mappings(t, "alerts", fake.URL), metrics: true}, nil, nil)

	do(s, http.MethodPost, "/webhook/alerts", "", `{}`)
	do(s, http.MethodPost, "/webhook/unknown", "", `{}`)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	s.GetRouter().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{
		"whistle_alerts_received_total 2",
		`whistle_alerts_rejected_total{reason="no_matching_webhook"} 1`,
		`whistle_dispatch_total{result="ok"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
