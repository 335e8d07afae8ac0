package discord

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Embed colors.
const (
	ColorRed   = 0xFF0000
	ColorGreen = 0x00FF00
	ColorPink  = 0xFFC0CB
)

// Message is the body of a Discord webhook execution.
type Message struct {
	Embeds []Embed `json:"embeds"`
}

type Embed struct {
	Author      Author `json:"author"`
	Description string `json:"description"`
	Color       int    `json:"color"`
}

type Author struct {
	Name    string `json:"name"`
	URL     string `json:"url"`
	IconURL string `json:"icon_url"`
}

// Alert holds the recognised fields of an object payload. Every field is
// the empty string unless the payload carried it as a JSON string.
type Alert struct {
	Exchange string
	Ticker   string
	Close    string
	Open     string
	Volume   string
	Event    string
	Interval string
}

// AlertFrom extracts the recognised fields from an object payload.
func AlertFrom(obj map[string]any) Alert {
	str := func(key string) string {
		s, _ := obj[key].(string)
		return s
	}
	return Alert{
		Exchange: str("exchange"),
		Ticker:   str("ticker"),
		Close:    str("close"),
		Open:     str("open"),
		Volume:   str("volume"),
		Event:    str("event"),
		Interval: str("interval"),
	}
}

// Color is red when close sorts before open as a string, green otherwise.
// Prices are not parsed: "9" sorts after "10".
func (a Alert) Color() int {
	if a.Close < a.Open {
		return ColorRed
	}
	return ColorGreen
}

// Formatter renders payloads into messages stamped with its branding.
type Formatter struct {
	Name    string
	URL     string
	IconURL string
}

// Format builds the message for payload. Objects become an alert summary;
// any other JSON value becomes a text notification.
func (f Formatter) Format(payload any) Message {
	var embed Embed
	if obj, ok := payload.(map[string]any); ok {
		a := AlertFrom(obj)
		embed = Embed{
			Author: f.author(fmt.Sprintf("%s: %s %s at %s", f.Name, a.Ticker, a.Event, a.Exchange)),
			Description: fmt.Sprintf("Open: %s\nClose: %s\nInterval: %s\nVolume: %s\n",
				a.Open, a.Close, a.Interval, a.Volume),
			Color: a.Color(),
		}
	} else {
		embed = Embed{
			Author:      f.author(f.Name + ": Text Notification"),
			Description: "Event: " + Canonical(payload),
			Color:       ColorPink,
		}
	}
	return Message{Embeds: []Embed{embed}}
}

func (f Formatter) author(name string) Author {
	return Author{Name: name, URL: f.URL, IconURL: f.IconURL}
}

// Canonical renders v as compact JSON without HTML escaping, so a string
// comes out quoted and a json.Number exactly as it was received.
func Canonical(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Sprint(v)
	}
	return strings.TrimSuffix(buf.String(), "\n")
}
