package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-bot/internal/domain"
	"github.com/spec-kit/ticket-bot/pkg/util"
)

const (
	ticketsFile    = "tickets.json"
	categoriesFile = "categories.json"
	configFile     = "config.json"
)

// Snapshot is everything the store holds, as loaded at startup.
type Snapshot struct {
	Tickets       map[string]domain.Ticket
	Categories    map[string]domain.Category
	SupportRoleID string
}

type supportConfig struct {
	SupportRoleID string `json:"supportRoleId,omitempty"`
}

// FileStore persists the registries as three independent JSON documents
// under a data directory. Every save replaces its document wholesale; a
// temp-file-plus-rename write keeps a crash mid-write from corrupting it.
type FileStore struct {
	dir    string
	logger *zap.Logger
}

// NewFileStore creates the store, creating the data directory if needed.
func NewFileStore(dir string, logger *zap.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, util.NewPersistenceError("create data directory", err)
	}
	return &FileStore{dir: dir, logger: logger}, nil
}

// Dir returns the data directory path.
func (s *FileStore) Dir() string {
	return s.dir
}

// Load reads all three documents, treating a missing file as "no data yet".
// Legacy bare-id category values are normalized to the canonical record
// shape here, so the rest of the system only ever sees one shape.
func (s *FileStore) Load(ctx context.Context) (Snapshot, error) {
	snapshot := Snapshot{
		Tickets:    make(map[string]domain.Ticket),
		Categories: make(map[string]domain.Category),
	}

	if err := s.readDocument(ticketsFile, &snapshot.Tickets); err != nil {
		return Snapshot{}, err
	}

	raw := make(map[string]domain.Category)
	if err := s.readDocument(categoriesFile, &raw); err != nil {
		return Snapshot{}, err
	}
	for key, cat := range raw {
		snapshot.Categories[key] = cat.Normalize(key)
	}

	var cfg supportConfig
	if err := s.readDocument(configFile, &cfg); err != nil {
		return Snapshot{}, err
	}
	snapshot.SupportRoleID = cfg.SupportRoleID

	s.logger.Info("store loaded",
		zap.Int("tickets", len(snapshot.Tickets)),
		zap.Int("categories", len(snapshot.Categories)),
		zap.Bool("support_role_configured", snapshot.SupportRoleID != ""))
	return snapshot, nil
}

// SaveTickets replaces the ticket document.
func (s *FileStore) SaveTickets(ctx context.Context, tickets map[string]domain.Ticket) error {
	return s.writeDocument(ticketsFile, tickets)
}

// SaveCategories replaces the category document.
func (s *FileStore) SaveCategories(ctx context.Context, categories map[string]domain.Category) error {
	return s.writeDocument(categoriesFile, categories)
}

// SaveSupportRole replaces the support-role config document.
func (s *FileStore) SaveSupportRole(ctx context.Context, roleID string) error {
	return s.writeDocument(configFile, supportConfig{SupportRoleID: roleID})
}

// Ping verifies the data directory is still writable.
func (s *FileStore) Ping(ctx context.Context) error {
	info, err := os.Stat(s.dir)
	if err != nil {
		return util.NewPersistenceError("stat data directory", err)
	}
	if !info.IsDir() {
		return util.NewPersistenceError("data path is not a directory", nil)
	}
	return nil
}

func (s *FileStore) readDocument(name string, out any) error {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Info("no existing document, starting fresh", zap.String("file", name))
			return nil
		}
		return util.NewPersistenceError(fmt.Sprintf("read %s", name), err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return util.NewPersistenceError(fmt.Sprintf("decode %s", name), err)
	}
	return nil
}

func (s *FileStore) writeDocument(name string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return util.NewPersistenceError(fmt.Sprintf("encode %s", name), err)
	}

	target := filepath.Join(s.dir, name)
	tmp, err := os.CreateTemp(s.dir, name+".tmp-*")
	if err != nil {
		return util.NewPersistenceError(fmt.Sprintf("stage %s", name), err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return util.NewPersistenceError(fmt.Sprintf("write %s", name), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return util.NewPersistenceError(fmt.Sprintf("flush %s", name), err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return util.NewPersistenceError(fmt.Sprintf("replace %s", name), err)
	}
	return nil
}
