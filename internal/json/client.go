// Package json stores exported history batches as one JSON file per metric.
package json

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/tomek7667/serachart/internal/history"
)

var ErrNotFound = errors.New("no exported history for metric")

type Client struct {
	Dir string
	m   sync.Mutex
}

func New(dir string) (*Client, error) {
	c := &Client{
		Dir: dir,
		m:   sync.Mutex{},
	}
	if !c.dirExists() {
		if err := os.MkdirAll(c.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create history dir: %w", err)
		}
	}
	return c, nil
}

func (c *Client) dirExists() bool {
	info, err := os.Stat(c.Dir)
	return err == nil && info.IsDir()
}

func (c *Client) path(metricID string) (string, error) {
	if metricID == "" || strings.ContainsAny(metricID, `/\`) || strings.HasPrefix(metricID, ".") {
		return "", fmt.Errorf("invalid metric id %q", metricID)
	}
	return filepath.Join(c.Dir, metricID+".json"), nil
}

func (c *Client) GetBatch(metricID string) (history.Batch, error) {
	p, err := c.path(metricID)
	if err != nil {
		return history.Batch{}, err
	}
	c.m.Lock()
	defer c.m.Unlock()
	b, err := ReadBatch(p)
	if errors.Is(err, os.ErrNotExist) {
		return history.Batch{}, fmt.Errorf("%s: %w", metricID, ErrNotFound)
	}
	return b, err
}

// Metrics lists the metric ids that have an exported file, sorted.
func (c *Client) Metrics() ([]string, error) {
	entries, err := os.ReadDir(c.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list history dir: %w", err)
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		ids = append(ids, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(ids)
	return ids, nil
}

// ReadBatch decodes a batch file. Numbers are kept as json.Number so large
// timestamps survive unchanged until the sample filter.
func ReadBatch(path string) (history.Batch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return history.Batch{}, fmt.Errorf("failed to read history file: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var b history.Batch
	if err := dec.Decode(&b); err != nil {
		return history.Batch{}, fmt.Errorf("failed to decode history file %s: %w", path, err)
	}
	return b, nil
}
