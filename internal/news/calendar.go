// Package news blocks entries around high-impact economic releases.
package news

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Impact ranks calendar events; unknown labels rank zero.
type Impact int

const (
	ImpactNone Impact = iota
	ImpactLow
	ImpactMedium
	ImpactHigh
)

// ParseImpact maps a calendar label to its rank.
func ParseImpact(label string) Impact {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "low":
		return ImpactLow
	case "medium":
		return ImpactMedium
	case "high":
		return ImpactHigh
	default:
		return ImpactNone
	}
}

func (i Impact) String() string {
	switch i {
	case ImpactLow:
		return "Low"
	case ImpactMedium:
		return "Medium"
	case ImpactHigh:
		return "High"
	default:
		return "None"
	}
}

// MarshalText renders the label in JSON.
func (i Impact) MarshalText() ([]byte, error) { return []byte(i.String()), nil }

// Event is a scheduled release for one currency.
type Event struct {
	Title    string    `json:"title"`
	Currency string    `json:"currency"`
	Time     time.Time `json:"time"`
	Impact   Impact    `json:"impact"`
}

type calendarRow struct {
	Title   string `json:"title"`
	Country string `json:"country"`
	Date    string `json:"date"`
	Impact  string `json:"impact"`
}

// Calendar downloads the weekly calendar feed.
type Calendar struct {
	client *http.Client
	url    string
}

// NewCalendar returns a client for the JSON feed at url.
func NewCalendar(url string, client *http.Client) *Calendar {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Calendar{client: client, url: url}
}

// Fetch returns every parseable event of the feed.
func (c *Calendar) Fetch(ctx context.Context) ([]Event, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("calendar error: %s", resp.Status)
	}
	var rows []calendarRow
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode calendar: %w", err)
	}
	events := make([]Event, 0, len(rows))
	for _, row := range rows {
		ts, err := time.Parse(time.RFC3339, strings.TrimSpace(row.Date))
		if err != nil {
			continue
		}
		events = append(events, Event{
			Title:    row.Title,
			Currency: strings.ToUpper(strings.TrimSpace(row.Country)),
			Time:     ts,
			Impact:   ParseImpact(row.Impact),
		})
	}
	return events, nil
}
