package webhook

import (
	"encoding/json"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/coinchimp/whistle/internal/errors"
)

// emptyList is used whenever the configured value cannot be decoded.
const emptyList = "[]"

// Mapping pairs an inbound path name with a Discord webhook URL.
type Mapping struct {
	Path string `json:"path"`
	URL  string `json:"url"`
}

// Load turns the percent-encoded JSON mapping list into mappings. It never
// fails: a value that decodes to invalid UTF-8 or does not parse yields an
// empty list. Malformed escapes are left as they are.
//
// Entries that are not objects, or whose path is not a string, can never be
// matched and are dropped. A url that is absent or not a string is kept as
// the empty string so that the entry still shadows later duplicates.
func Load(encoded string) []Mapping {
	log.Info().Msgf("DISCORD_WEBHOOKS (encoded): %s", encoded)

	decoded := unescape(encoded)
	if !utf8.ValidString(decoded) {
		decoded = emptyList
	}
	log.Info().Msgf("DISCORD_WEBHOOKS (decoded): %s", decoded)

	mappings, err := parse(decoded)
	if err != nil {
		log.Error().Err(err).Msg("Failed to parse DISCORD_WEBHOOKS")
		log.Error().Msgf("Decoded DISCORD_WEBHOOKS value: %s", decoded)
		return []Mapping{}
	}

	log.Info().Msgf("Parsed webhooks: %+v", mappings)
	return mappings
}

// unescape replaces every well-formed %XX escape with its byte. A '%' not
// followed by two hex digits is copied through, and '+' stays a plus.
func unescape(s string) string {
	if !strings.Contains(s, "%") {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+2 < len(s) && ishex(s[i+1]) && ishex(s[i+2]) {
			b.WriteByte(unhex(s[i+1])<<4 | unhex(s[i+2]))
			i += 2
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func ishex(c byte) bool {
	return '0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}

func unhex(c byte) byte {
	switch {
	case '0' <= c && c <= '9':
		return c - '0'
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}

func parse(text string) ([]Mapping, error) {
	var value any
	if err := json.Unmarshal([]byte(text), &value); err != nil {
		return nil, errors.ConfigParse(text, err)
	}

	items, ok := value.([]any)
	if !ok {
		log.Warn().Msgf("DISCORD_WEBHOOKS is not a JSON array: %s", text)
		return []Mapping{}, nil
	}

	mappings := make([]Mapping, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		path, ok := obj["path"].(string)
		if !ok {
			continue
		}
		u, _ := obj["url"].(string)
		mappings = append(mappings, Mapping{Path: path, URL: u})
	}
	return mappings, nil
}

// Resolve returns the URL of the first mapping whose path equals path. A
// first match without a URL does not fall through to later entries.
func Resolve(mappings []Mapping, path string) (string, error) {
	for _, m := range mappings {
		if m.Path != path {
			continue
		}
		if m.URL == "" {
			break
		}
		return m.URL, nil
	}
	return "", errors.NoMatchingWebhook(path)
}

// Lookup loads the encoded mapping list and resolves path against it.
func Lookup(encoded, path string) (string, error) {
	return Resolve(Load(encoded), path)
}
