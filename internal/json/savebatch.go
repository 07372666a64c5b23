package json

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tomek7667/serachart/internal/history"
)

// SaveBatch replaces the exported file for the batch's metric. The write
// goes through a temp file so readers never see a partial document.
func (c *Client) SaveBatch(b history.Batch) error {
	p, err := c.path(b.Metric)
	if err != nil {
		return err
	}
	if b.Points == nil {
		b.Points = []history.RawPoint{}
	}
	data, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("failed to encode batch: %w", err)
	}

	c.m.Lock()
	defer c.m.Unlock()
	tmp, err := os.CreateTemp(c.Dir, filepath.Base(p)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write batch: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write batch: %w", err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace %s: %w", p, err)
	}
	return nil
}
