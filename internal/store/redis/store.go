package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"convohub-backend/internal/models"
	"convohub-backend/internal/store"

	goredis "github.com/redis/go-redis/v9"
)

// keyTTL is the rolling expiry applied on every write and read. It must stay
// equal to the session cookie lifetime, otherwise history outlives the
// session token (or the reverse).
const keyTTL = 7 * 24 * time.Hour

// listClient is the slice of Redis commands the store depends on.
// *goredis.Client satisfies it; tests provide an in-memory fake.
type listClient interface {
	RPush(ctx context.Context, key string, values ...interface{}) *goredis.IntCmd
	LRange(ctx context.Context, key string, start, stop int64) *goredis.StringSliceCmd
	LIndex(ctx context.Context, key string, index int64) *goredis.StringCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *goredis.BoolCmd
	Scan(ctx context.Context, cursor uint64, match string, count int64) *goredis.ScanCmd
}

// Compile-time check to ensure RedisStore implements store.Store.
var _ store.Store = (*RedisStore)(nil)

// RedisStore persists conversation logs as Redis lists of JSON-encoded
// messages, one list per (feature, session, conversation) key.
type RedisStore struct {
	rdb listClient
}

// NewRedisStore wraps an established Redis client.
func NewRedisStore(rdb *goredis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

// storedMessage is the persisted element shape:
// {type: human|ai|system, content, timestamp}.
type storedMessage struct {
	Type      string `json:"type"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

func encodeMessage(m models.Message) (string, error) {
	wireType, err := m.Role.WireType()
	if err != nil {
		return "", err
	}
	raw, err := json.Marshal(storedMessage{
		Type:      wireType,
		Content:   m.Content,
		Timestamp: m.Timestamp.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode message: %w", err)
	}
	return string(raw), nil
}

func decodeMessage(raw string) (models.Message, error) {
	var sm storedMessage
	if err := json.Unmarshal([]byte(raw), &sm); err != nil {
		return models.Message{}, fmt.Errorf("failed to decode stored message: %w", err)
	}
	role, err := models.RoleFromWireType(sm.Type)
	if err != nil {
		return models.Message{}, err
	}
	ts, err := time.Parse(time.RFC3339Nano, sm.Timestamp)
	if err != nil {
		return models.Message{}, fmt.Errorf("invalid message timestamp %q: %w", sm.Timestamp, err)
	}
	return models.Message{Role: role, Content: sm.Content, Timestamp: ts.UTC()}, nil
}

func conversationKey(feature, sessionID, conversationID string) string {
	return fmt.Sprintf("%s_chat:%s:%s", feature, sessionID, conversationID)
}

func indexKey(feature, sessionID string) string {
	return fmt.Sprintf("%s_chat_list:%s", feature, sessionID)
}

// AppendMessages appends msgs in order with a single RPUSH, so all messages
// of one call land contiguously, and refreshes the key's expiry.
func (s *RedisStore) AppendMessages(ctx context.Context, feature, sessionID, conversationID string, msgs []models.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	values := make([]interface{}, 0, len(msgs))
	for _, m := range msgs {
		encoded, err := encodeMessage(m)
		if err != nil {
			return err
		}
		values = append(values, encoded)
	}

	key := conversationKey(feature, sessionID, conversationID)
	if err := s.rdb.RPush(ctx, key, values...).Err(); err != nil {
		log.Printf("ERROR [RedisStore] AppendMessages: RPUSH failed for key %s: %v", key, err)
		return fmt.Errorf("%w: append to %s: %v", store.ErrUnavailable, key, err)
	}
	if err := s.rdb.Expire(ctx, key, keyTTL).Err(); err != nil {
		log.Printf("WARN [RedisStore] AppendMessages: EXPIRE failed for key %s: %v", key, err)
	}
	return nil
}

// LoadMessages returns the most recent HistoryWindow messages, oldest first.
// An absent key yields an empty log.
func (s *RedisStore) LoadMessages(ctx context.Context, feature, sessionID, conversationID string) ([]models.Message, error) {
	key := conversationKey(feature, sessionID, conversationID)
	raw, err := s.rdb.LRange(ctx, key, -int64(store.HistoryWindow), -1).Result()
	if err != nil {
		log.Printf("ERROR [RedisStore] LoadMessages: LRANGE failed for key %s: %v", key, err)
		return nil, fmt.Errorf("%w: load %s: %v", store.ErrUnavailable, key, err)
	}

	msgs := make([]models.Message, 0, len(raw))
	for _, entry := range raw {
		m, err := decodeMessage(entry)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	if len(msgs) > 0 {
		if err := s.rdb.Expire(ctx, key, keyTTL).Err(); err != nil {
			log.Printf("WARN [RedisStore] LoadMessages: EXPIRE failed for key %s: %v", key, err)
		}
	}
	return msgs, nil
}

// RegisterConversation appends {conversation_id, title, timestamp} to the
// session's conversation list and refreshes its expiry.
func (s *RedisStore) RegisterConversation(ctx context.Context, feature, sessionID string, entry store.IndexEntry) error {
	raw, err := json.Marshal(map[string]string{
		"conversation_id": entry.ConversationID,
		"title":           entry.Title,
		"timestamp":       entry.Timestamp,
	})
	if err != nil {
		return fmt.Errorf("failed to encode index entry: %w", err)
	}

	key := indexKey(feature, sessionID)
	if err := s.rdb.RPush(ctx, key, string(raw)).Err(); err != nil {
		log.Printf("ERROR [RedisStore] RegisterConversation: RPUSH failed for key %s: %v", key, err)
		return fmt.Errorf("%w: register in %s: %v", store.ErrUnavailable, key, err)
	}
	if err := s.rdb.Expire(ctx, key, keyTTL).Err(); err != nil {
		log.Printf("WARN [RedisStore] RegisterConversation: EXPIRE failed for key %s: %v", key, err)
	}
	return nil
}

// ListConversations returns the most recent HistoryWindow index entries in
// stored order.
func (s *RedisStore) ListConversations(ctx context.Context, feature, sessionID string) ([]store.IndexEntry, error) {
	key := indexKey(feature, sessionID)
	raw, err := s.rdb.LRange(ctx, key, -int64(store.HistoryWindow), -1).Result()
	if err != nil {
		log.Printf("ERROR [RedisStore] ListConversations: LRANGE failed for key %s: %v", key, err)
		return nil, fmt.Errorf("%w: list %s: %v", store.ErrUnavailable, key, err)
	}

	entries := make([]store.IndexEntry, 0, len(raw))
	for _, item := range raw {
		var decoded struct {
			ConversationID string `json:"conversation_id"`
			Title          string `json:"title"`
			Timestamp      string `json:"timestamp"`
		}
		if err := json.Unmarshal([]byte(item), &decoded); err != nil {
			return nil, fmt.Errorf("failed to decode index entry: %w", err)
		}
		entries = append(entries, store.IndexEntry{
			ConversationID: decoded.ConversationID,
			Title:          decoded.Title,
			Timestamp:      decoded.Timestamp,
		})
	}
	return entries, nil
}

// RecentMessages reconstructs each conversation's "today" from the persisted
// tail. The day boundary is anchored to the conversation's own latest message
// timestamp, not wall-clock now; an empty conversation falls back to the
// current UTC midnight.
func (s *RedisStore) RecentMessages(ctx context.Context, feature, sessionID string) (map[string][]models.Message, error) {
	prefix := fmt.Sprintf("%s_chat:%s:", feature, sessionID)
	keys, err := s.scanKeys(ctx, prefix+"*")
	if err != nil {
		return nil, err
	}

	result := make(map[string][]models.Message, len(keys))
	for _, key := range keys {
		conversationID := strings.TrimPrefix(key, prefix)

		dayStart, err := s.dayStart(ctx, key)
		if err != nil {
			return nil, err
		}

		raw, err := s.rdb.LRange(ctx, key, -int64(store.RecentScanWindow), -1).Result()
		if err != nil {
			log.Printf("ERROR [RedisStore] RecentMessages: LRANGE failed for key %s: %v", key, err)
			return nil, fmt.Errorf("%w: scan %s: %v", store.ErrUnavailable, key, err)
		}

		msgs := make([]models.Message, 0, len(raw))
		for _, entry := range raw {
			m, err := decodeMessage(entry)
			if err != nil {
				return nil, err
			}
			if !m.Timestamp.Before(dayStart) {
				msgs = append(msgs, m)
			}
		}
		result[conversationID] = msgs
	}
	return result, nil
}

// dayStart returns UTC midnight of the day of the list's last entry, or of
// the current wall-clock day when the list is empty.
func (s *RedisStore) dayStart(ctx context.Context, key string) (time.Time, error) {
	latest, err := s.rdb.LIndex(ctx, key, -1).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return midnightUTC(time.Now().UTC()), nil
		}
		log.Printf("ERROR [RedisStore] RecentMessages: LINDEX failed for key %s: %v", key, err)
		return time.Time{}, fmt.Errorf("%w: peek %s: %v", store.ErrUnavailable, key, err)
	}
	m, err := decodeMessage(latest)
	if err != nil {
		return time.Time{}, err
	}
	return midnightUTC(m.Timestamp), nil
}

func midnightUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func (s *RedisStore) scanKeys(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	var cursor uint64
	for {
		batch, next, err := s.rdb.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			log.Printf("ERROR [RedisStore] scanKeys: SCAN failed for pattern %s: %v", pattern, err)
			return nil, fmt.Errorf("%w: scan %s: %v", store.ErrUnavailable, pattern, err)
		}
		keys = append(keys, batch...)
		cursor = next
		if cursor == 0 {
			return keys, nil
		}
	}
}
