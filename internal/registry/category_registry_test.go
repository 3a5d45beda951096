package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/ticket-bot/internal/domain"
	"github.com/spec-kit/ticket-bot/pkg/util"
)

func TestCategoryRegistry_AddRejectsDuplicates(t *testing.T) {
	reg := NewCategoryRegistry(nil)

	err := reg.Add("vip", domain.Category{ChannelID: "cat-1", Label: "VIP", Description: "VIP support", Emoji: "⭐"})
	assert.NoError(t, err)

	err = reg.Add("vip", domain.Category{ChannelID: "cat-2", Label: "VIP again"})
	assert.True(t, util.IsCode(err, util.CodeConflict))

	// The original record survives the rejected attempt.
	cat, ok := reg.Resolve("vip")
	assert.True(t, ok)
	assert.Equal(t, "cat-1", cat.ChannelID)
}

func TestCategoryRegistry_UpsertReplaces(t *testing.T) {
	reg := NewCategoryRegistry(nil)
	reg.Upsert("exchange", domain.Category{ChannelID: "cat-1", Label: "Exchange"})
	reg.Upsert("exchange", domain.Category{ChannelID: "cat-2", Label: "Exchange v2"})

	cat, ok := reg.Resolve("exchange")
	assert.True(t, ok)
	assert.Equal(t, "cat-2", cat.ChannelID)
	assert.Equal(t, "Exchange v2", cat.Label)
}

func TestCategoryRegistry_RemoveUnknownKey(t *testing.T) {
	reg := NewCategoryRegistry(nil)
	reg.Upsert("other", domain.Category{ChannelID: "cat-1"})

	_, err := reg.Remove("ghost")
	assert.True(t, util.IsCode(err, util.CodeNotFound))

	// Registry unchanged by the failed removal.
	assert.Len(t, reg.ListForMenu(), 1)

	removed, err := reg.Remove("other")
	assert.NoError(t, err)
	assert.Equal(t, "cat-1", removed.ChannelID)
	assert.Empty(t, reg.ListForMenu())
}

func TestCategoryRegistry_ListForMenuIsSorted(t *testing.T) {
	reg := NewCategoryRegistry(nil)
	reg.Upsert("winners", domain.Category{ChannelID: "c3"})
	reg.Upsert("exchange", domain.Category{ChannelID: "c1"})
	reg.Upsert("staff", domain.Category{ChannelID: "c2"})

	entries := reg.ListForMenu()
	keys := make([]string, 0, len(entries))
	for _, entry := range entries {
		keys = append(keys, entry.Key)
	}
	assert.Equal(t, []string{"exchange", "staff", "winners"}, keys)
}

func TestCategoryRegistry_NormalizesOnWrite(t *testing.T) {
	reg := NewCategoryRegistry(nil)
	assert.NoError(t, reg.Add("billing", domain.Category{ChannelID: "cat-1"}))

	cat, ok := reg.Resolve("billing")
	assert.True(t, ok)
	assert.Equal(t, "Billing", cat.Label)
	assert.NotEmpty(t, cat.Description)
	assert.Equal(t, domain.DefaultCategoryEmoji, cat.Emoji)
}
