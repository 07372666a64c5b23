package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tomek7667/serachart/internal/history"
)

const backendTimeout = 15 * time.Second

// Backend reads history from the greenhouse controller's /api/history.
type Backend struct {
	base   *url.URL
	client *http.Client
}

func NewBackend(baseURL string) (*Backend, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse backend url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("backend url %q needs a scheme and host", baseURL)
	}
	return &Backend{
		base:   u,
		client: &http.Client{Timeout: backendTimeout},
	}, nil
}

func (b *Backend) History(ctx context.Context, metricID string, from, to time.Time) (history.Batch, error) {
	u := *b.base
	u.Path += "/api/history"
	q := url.Values{}
	q.Set("metric", metricID)
	q.Set("from", strconv.FormatFloat(unixSeconds(from), 'f', 3, 64))
	q.Set("to", strconv.FormatFloat(unixSeconds(to), 'f', 3, 64))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return history.Batch{}, fmt.Errorf("failed to build history request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := b.client.Do(req)
	if err != nil {
		return history.Batch{}, fmt.Errorf("history request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return history.Batch{}, fmt.Errorf("history request for %s: %s", metricID, backendError(resp))
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	var batch history.Batch
	if err := dec.Decode(&batch); err != nil {
		return history.Batch{}, fmt.Errorf("failed to decode history for %s: %w", metricID, err)
	}
	if batch.Metric == "" {
		batch.Metric = metricID
	}
	return batch, nil
}

// backendError prefers the controller's {"error": ...} body over the bare status.
func backendError(resp *http.Response) string {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
		return fmt.Sprintf("%s (%s)", payload.Error, resp.Status)
	}
	return resp.Status
}
