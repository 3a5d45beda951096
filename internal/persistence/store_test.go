package persistence

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-bot/internal/domain"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	store, err := NewFileStore(t.TempDir(), zap.NewNop())
	assert.NoError(t, err)
	return store
}

func TestFileStore_LoadEmptyDirectory(t *testing.T) {
	store := newTestStore(t)

	snapshot, err := store.Load(context.Background())
	assert.NoError(t, err)
	assert.Empty(t, snapshot.Tickets)
	assert.Empty(t, snapshot.Categories)
	assert.Empty(t, snapshot.SupportRoleID)
}

func TestFileStore_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	tickets := map[string]domain.Ticket{
		"t1": {ID: "t1", UserID: "user-1", ChannelID: "chan-1", Topic: "Exchange", MessageID: "msg-1"},
		"t2": {ID: "t2", UserID: "user-2", ChannelID: "chan-2", Topic: "Other", Closed: true},
	}
	categories := map[string]domain.Category{
		"exchange": {ChannelID: "cat-1", Label: "Exchange", Description: "Swap things", Emoji: "🔄"},
	}

	assert.NoError(t, store.SaveTickets(ctx, tickets))
	assert.NoError(t, store.SaveCategories(ctx, categories))
	assert.NoError(t, store.SaveSupportRole(ctx, "role-1"))

	snapshot, err := store.Load(ctx)
	assert.NoError(t, err)
	assert.Equal(t, tickets, snapshot.Tickets)
	assert.Equal(t, categories, snapshot.Categories)
	assert.Equal(t, "role-1", snapshot.SupportRoleID)
}

func TestFileStore_LoadNormalizesLegacyCategories(t *testing.T) {
	dir := t.TempDir()
	legacy := `{"exchange": "cat-legacy", "vip": {"id": "cat-vip", "label": "VIP", "description": "VIP support", "emoji": "⭐"}}`
	assert.NoError(t, os.WriteFile(filepath.Join(dir, "categories.json"), []byte(legacy), 0o644))

	store, err := NewFileStore(dir, zap.NewNop())
	assert.NoError(t, err)

	snapshot, err := store.Load(context.Background())
	assert.NoError(t, err)

	// Bare-id values come back as full records with derived fields.
	exchange := snapshot.Categories["exchange"]
	assert.Equal(t, "cat-legacy", exchange.ChannelID)
	assert.Equal(t, "Exchange", exchange.Label)
	assert.Equal(t, domain.DefaultCategoryEmoji, exchange.Emoji)

	// Structured records pass through unchanged.
	vip := snapshot.Categories["vip"]
	assert.Equal(t, "cat-vip", vip.ChannelID)
	assert.Equal(t, "VIP", vip.Label)
	assert.Equal(t, "⭐", vip.Emoji)
}

func TestFileStore_SaveLeavesNoTempFiles(t *testing.T) {
	store := newTestStore(t)
	assert.NoError(t, store.SaveSupportRole(context.Background(), "role-1"))

	entries, err := os.ReadDir(store.Dir())
	assert.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Equal(t, "config.json", entries[0].Name())
}

func TestFileStore_Ping(t *testing.T) {
	store := newTestStore(t)
	assert.NoError(t, store.Ping(context.Background()))

	broken := &FileStore{dir: filepath.Join(store.Dir(), "missing"), logger: zap.NewNop()}
	assert.Error(t, broken.Ping(context.Background()))
}
