package json

import (
	"errors"
	"fmt"
	"os"
)

func (c *Client) DeleteBatch(metricID string) error {
	p, err := c.path(metricID)
	if err != nil {
		return err
	}
	c.m.Lock()
	defer c.m.Unlock()
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete %s: %w", p, err)
	}
	return nil
}
