package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"motor_service/internal/domain/model"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// thingSpeakFields maps feed fields onto channels.
var thingSpeakFields = [model.ChannelCount]string{"field1", "field2", "field3", "field4", "field5", "field6"}

type ThingSpeakRepository struct {
	baseURL string
	client  *http.Client
	results int
	timeout time.Duration
}

func NewThingSpeakRepository(baseURL string, results int, timeout time.Duration) *ThingSpeakRepository {
	return &ThingSpeakRepository{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: timeout,
		},
		results: results,
		timeout: timeout,
	}
}

type thingSpeakFeed struct {
	Channel map[string]any `json:"channel"`
	Feeds []map[string]any `json:"feeds"`
}

// FetchChannel returns the latest feed entries of a channel mapped onto the
// six sensor channels. Any failure is logged and yields an empty batch.
func (r *ThingSpeakRepository) FetchChannel(ctx context.Context, channelID, apiKey string) model.Batch {
	feed, err := r.fetchFeed(ctx, channelID, apiKey)
	if err != nil {
		slog.Warn("ThingSpeak fetch failed", "channel_id", channelID, "error", err)
		return model.Batch{}
	}
	if len(feed.Feeds) == 0 {
		slog.Warn("ThingSpeak channel returned no feeds", "channel_id", channelID)
		return model.Batch{}
	}

	slog.Debug("ThingSpeak feed fetched", "channel_id", channelID, "channel_name", feed.Channel["name"], "entries", len(feed.Feeds))
	return convertToBatch(feed)
}

func (r *ThingSpeakRepository) fetchFeed(ctx context.Context, channelID, apiKey string) (*thingSpeakFeed, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := url.Values{}
	if r.results > 0 {
		query.Set("results", strconv.Itoa(r.results))
	}
	if apiKey != "" {
		query.Set("api_key", apiKey)
	}
	endpoint := fmt.Sprintf("%s/channels/%s/feeds.json?%s", r.baseURL, url.PathEscape(channelID), query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var feed thingSpeakFeed
	if err := json.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("failed to decode feed: %w", err)
	}

	return &feed, nil
}

// convertToBatch leaves a channel absent when the feed never carries its
// field, so reconciliation can zero-fill it.
func convertToBatch(feed *thingSpeakFeed) model.Batch {
	var batch model.Batch
	for _, c := range model.Channels {
		if !feed.defines(thingSpeakFields[c]) {
			continue
		}
		series := make([]float64, 0, len(feed.Feeds))
		for _, entry := range feed.Feeds {
			series = append(series, fieldValue(entry[thingSpeakFields[c]]))
		}
		batch.Series[c] = series
	}

	return batch
}

// defines reports whether the channel declares the field or any entry sends it.
func (f *thingSpeakFeed) defines(field string) bool {
	if label, ok := f.Channel[field].(string); ok && strings.TrimSpace(label) != "" {
		return true
	}
	for _, entry := range f.Feeds {
		if _, ok := entry[field]; ok {
			return true
		}
	}
	return false
}

// fieldValue reads a feed field; ThingSpeak sends numbers as strings and
// unset fields as null.
func fieldValue(v any) float64 {
	switch t := v.(type) {
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return math.NaN()
		}
		return f
	case float64:
		return t
	default:
		return math.NaN()
	}
}
