package channel

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"BtcPulse/internal/domain/models"
)

// FileChannel appends alerts as JSON lines to a log file. Writes are
// serialized; a failed write reports undelivered without affecting other
// channels.
type FileChannel struct {
	path string
	mu   sync.Mutex
	f    *os.File
}

// NewFileChannel opens (or creates) the JSONL alert log.
func NewFileChannel(path string) (*FileChannel, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open alert log: %w", err)
	}
	return &FileChannel{path: path, f: f}, nil
}

func (c *FileChannel) Name() string { return "file" }

func (c *FileChannel) Send(_ context.Context, a *models.Alert) (bool, error) {
	return c.write(map[string]interface{}{"type": "alert", "alert": a})
}

func (c *FileChannel) SendComposite(_ context.Context, s *models.CompositeSignal) (bool, error) {
	return c.write(map[string]interface{}{"type": "composite", "composite": s})
}

func (c *FileChannel) write(record interface{}) (bool, error) {
	b, err := json.Marshal(record)
	if err != nil {
		return false, fmt.Errorf("marshal alert record: %w", err)
	}
	b = append(b, '\n')

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.f.Write(b); err != nil {
		return false, fmt.Errorf("write alert record: %w", err)
	}
	return true, nil
}

// Close closes the underlying file.
func (c *FileChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.f.Close()
}
