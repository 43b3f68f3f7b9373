package cart

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/multimart/multimart-backend/pkg/redis"
)

// ErrCorrupted marks persisted cart data that could not be decoded. The store
// treats it as absent and clears the entry.
var ErrCorrupted = errors.New("persisted cart data is corrupted")

// Storage is the durable home of a session's item list.
type Storage interface {
	Load(ctx context.Context) ([]LineItem, error)
	Save(ctx context.Context, items []LineItem) error
	Clear(ctx context.Context) error
}

// persistedItem mirrors LineItem with a nullable selected flag, so records
// written before the selection feature default to selected on restore.
type persistedItem struct {
	ID            string  `json:"id"`
	LineItemKey   string  `json:"line_item_key"`
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	OriginalPrice float64 `json:"original_price"`
	Quantity      int     `json:"quantity"`
	Selected      *bool   `json:"selected,omitempty"`
	Image         string  `json:"image"`
	Description   string  `json:"description"`

	SelectedColor    string `json:"selected_color,omitempty"`
	SelectedSize     string `json:"selected_size,omitempty"`
	SelectedMaterial string `json:"selected_material,omitempty"`
	SelectedRAM      string `json:"selected_ram,omitempty"`

	Colors    []string `json:"colors,omitempty"`
	Sizes     []string `json:"sizes,omitempty"`
	Materials []string `json:"materials,omitempty"`
	RAMs      []string `json:"rams,omitempty"`
}

func encodeItems(items []LineItem) ([]byte, error) {
	records := make([]persistedItem, len(items))
	for i, item := range items {
		selected := item.Selected
		records[i] = persistedItem{
			ID:               item.ID,
			LineItemKey:      item.LineItemKey,
			Name:             item.Name,
			Price:            item.Price,
			OriginalPrice:    item.OriginalPrice,
			Quantity:         item.Quantity,
			Selected:         &selected,
			Image:            item.Image,
			Description:      item.Description,
			SelectedColor:    item.SelectedColor,
			SelectedSize:     item.SelectedSize,
			SelectedMaterial: item.SelectedMaterial,
			SelectedRAM:      item.SelectedRAM,
			Colors:           item.Colors,
			Sizes:            item.Sizes,
			Materials:        item.Materials,
			RAMs:             item.RAMs,
		}
	}
	return json.Marshal(records)
}

func decodeItems(raw []byte) ([]LineItem, error) {
	var records []persistedItem
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, ErrCorrupted
	}
	items := make([]LineItem, len(records))
	for i, record := range records {
		selected := true
		if record.Selected != nil {
			selected = *record.Selected
		}
		items[i] = normalizeItem(LineItem{
			ID:               record.ID,
			LineItemKey:      record.LineItemKey,
			Name:             record.Name,
			Price:            record.Price,
			OriginalPrice:    record.OriginalPrice,
			Quantity:         record.Quantity,
			Selected:         selected,
			Image:            record.Image,
			Description:      record.Description,
			SelectedColor:    record.SelectedColor,
			SelectedSize:     record.SelectedSize,
			SelectedMaterial: record.SelectedMaterial,
			SelectedRAM:      record.SelectedRAM,
			Colors:           record.Colors,
			Sizes:            record.Sizes,
			Materials:        record.Materials,
			RAMs:             record.RAMs,
		})
	}
	return items, nil
}

// RedisStorage persists one session's cart as a JSON blob in redis.
type RedisStorage struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedisStorage builds storage for the given session.
func NewRedisStorage(client *redis.Client, sessionID string, ttl time.Duration) *RedisStorage {
	return &RedisStorage{
		client: client,
		key:    client.CartKey(sessionID),
		ttl:    ttl,
	}
}

// Load reads and decodes the persisted item list. A missing key is an empty
// cart, not an error.
func (s *RedisStorage) Load(ctx context.Context) ([]LineItem, error) {
	raw, err := s.client.Get(ctx, s.key)
	if err != nil {
		if errors.Is(err, redis.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return decodeItems([]byte(raw))
}

// Save writes the serialized item list with the configured TTL.
func (s *RedisStorage) Save(ctx context.Context, items []LineItem) error {
	raw, err := encodeItems(items)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key, string(raw), s.ttl)
}

// Clear removes the persisted entry.
func (s *RedisStorage) Clear(ctx context.Context) error {
	return s.client.Del(ctx, s.key)
}

// MemoryStorage keeps the serialized list in process memory. Tests and local
// development use it; the round trip goes through the same codec as redis.
type MemoryStorage struct {
	mu  sync.Mutex
	raw []byte
}

// NewMemoryStorage returns empty storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

// Seed replaces the stored bytes directly, letting tests plant malformed data.
func (s *MemoryStorage) Seed(raw []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.raw = raw
}

// Load decodes the stored list.
func (s *MemoryStorage) Load(ctx context.Context) ([]LineItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.raw == nil {
		return nil, nil
	}
	return decodeItems(s.raw)
}

// Save stores the encoded list.
func (s *MemoryStorage) Save(ctx context.Context, items []LineItem) error {
	raw, err := encodeItems(items)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.raw = raw
	return nil
}

// Clear drops the stored bytes.
func (s *MemoryStorage) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.raw = nil
	return nil
}
