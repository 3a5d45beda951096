package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DefaultCategoryEmoji marks categories that never got a custom emoji.
const DefaultCategoryEmoji = "🎫"

// Category maps a topic key to its destination container and the display
// metadata shown in the selection menu.
type Category struct {
	ChannelID   string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description"`
	Emoji       string `json:"emoji"`
}

// UnmarshalJSON accepts both persisted shapes: the structured record and the
// legacy bare container id. Legacy values surface with only ChannelID set;
// Normalize fills the display defaults.
func (c *Category) UnmarshalJSON(data []byte) error {
	var legacy string
	if err := json.Unmarshal(data, &legacy); err == nil {
		*c = Category{ChannelID: legacy}
		return nil
	}

	type categoryRecord Category
	var record categoryRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return fmt.Errorf("category record: %w", err)
	}
	*c = Category(record)
	return nil
}

// Normalize returns the canonical record for the given topic key, filling
// defaults for fields the legacy shape could not carry.
func (c Category) Normalize(key string) Category {
	if c.Label == "" {
		c.Label = capitalize(key)
	}
	if c.Description == "" {
		c.Description = fmt.Sprintf("Open a %s ticket", c.Label)
	}
	if c.Emoji == "" {
		c.Emoji = DefaultCategoryEmoji
	}
	return c
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
