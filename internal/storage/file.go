package storage

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	logx "blastbot/pkg/logx"
)

// fileStore is a dependency-free persistence backend: a single
// append-only JSON Lines file, one delivery record per line.
type fileStore struct {
	log logx.Logger

	mu   sync.Mutex
	file *os.File
}

func openFile(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("storage.path is required for file driver")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, err
	}
	return &fileStore{log: log, file: f}, nil
}

func (s *fileStore) AppendDelivery(ctx context.Context, e DeliveryEntry) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return errors.New("delivery log closed")
	}
	return json.NewEncoder(s.file).Encode(e)
}

func (s *fileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}
