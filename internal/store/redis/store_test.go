package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"convohub-backend/internal/models"
	"convohub-backend/internal/store"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRedis is an in-memory listClient. It implements just enough LRANGE /
// LINDEX semantics (negative indexes, clamping) to exercise the store.
type fakeRedis struct {
	lists   map[string][]string
	expires map[string]time.Duration
	failAll bool
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{
		lists:   make(map[string][]string),
		expires: make(map[string]time.Duration),
	}
}

var errFakeDown = fmt.Errorf("connection refused")

func (f *fakeRedis) RPush(ctx context.Context, key string, values ...interface{}) *goredis.IntCmd {
	if f.failAll {
		return goredis.NewIntResult(0, errFakeDown)
	}
	for _, v := range values {
		f.lists[key] = append(f.lists[key], v.(string))
	}
	return goredis.NewIntResult(int64(len(f.lists[key])), nil)
}

func (f *fakeRedis) LRange(ctx context.Context, key string, start, stop int64) *goredis.StringSliceCmd {
	if f.failAll {
		return goredis.NewStringSliceResult(nil, errFakeDown)
	}
	list := f.lists[key]
	n := int64(len(list))
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if n == 0 || start > stop {
		return goredis.NewStringSliceResult([]string{}, nil)
	}
	out := make([]string, stop-start+1)
	copy(out, list[start:stop+1])
	return goredis.NewStringSliceResult(out, nil)
}

func (f *fakeRedis) LIndex(ctx context.Context, key string, index int64) *goredis.StringCmd {
	if f.failAll {
		return goredis.NewStringResult("", errFakeDown)
	}
	list := f.lists[key]
	n := int64(len(list))
	if index < 0 {
		index += n
	}
	if n == 0 || index < 0 || index >= n {
		return goredis.NewStringResult("", goredis.Nil)
	}
	return goredis.NewStringResult(list[index], nil)
}

func (f *fakeRedis) Expire(ctx context.Context, key string, expiration time.Duration) *goredis.BoolCmd {
	if f.failAll {
		return goredis.NewBoolResult(false, errFakeDown)
	}
	f.expires[key] = expiration
	return goredis.NewBoolResult(true, nil)
}

func (f *fakeRedis) Scan(ctx context.Context, cursor uint64, match string, count int64) *goredis.ScanCmd {
	if f.failAll {
		return goredis.NewScanCmdResult(nil, 0, errFakeDown)
	}
	prefix := strings.TrimSuffix(match, "*")
	var keys []string
	for key := range f.lists {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return goredis.NewScanCmdResult(keys, 0, nil)
}

func newTestStore() (*RedisStore, *fakeRedis) {
	fake := newFakeRedis()
	return &RedisStore{rdb: fake}, fake
}

func msgAt(role models.Role, content string, ts time.Time) models.Message {
	return models.Message{Role: role, Content: content, Timestamp: ts.UTC()}
}

func TestAppendThenLoad_PreservesOrder(t *testing.T) {
	s, fake := newTestStore()
	ctx := context.Background()
	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)

	err := s.AppendMessages(ctx, "companion", "sess-1", "conv-1", []models.Message{
		msgAt(models.RoleHuman, "hello", now),
		msgAt(models.RoleAssistant, "hi there", now.Add(time.Second)),
	})
	require.NoError(t, err)

	msgs, err := s.LoadMessages(ctx, "companion", "sess-1", "conv-1")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, models.RoleHuman, msgs[0].Role)
	assert.Equal(t, "hello", msgs[0].Content)
	assert.Equal(t, models.RoleAssistant, msgs[1].Role)
	assert.Equal(t, "hi there", msgs[1].Content)
	assert.True(t, msgs[0].Timestamp.Equal(now))

	// Both the append and the non-empty read refresh the key's expiry.
	assert.Equal(t, keyTTL, fake.expires["companion_chat:sess-1:conv-1"])
}

func TestLoadMessages_TruncatesToWindow(t *testing.T) {
	s, _ := newTestStore()
	ctx := context.Background()
	base := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 25; i++ {
		err := s.AppendMessages(ctx, "story", "sess-1", "conv-1", []models.Message{
			msgAt(models.RoleHuman, fmt.Sprintf("turn %d", i), base.Add(time.Duration(i)*time.Minute)),
		})
		require.NoError(t, err)
	}

	msgs, err := s.LoadMessages(ctx, "story", "sess-1", "conv-1")
	require.NoError(t, err)
	require.Len(t, msgs, store.HistoryWindow)
	// The window keeps the most recent messages, oldest first.
	assert.Equal(t, "turn 5", msgs[0].Content)
	assert.Equal(t, "turn 24", msgs[len(msgs)-1].Content)
}

func TestLoadMessages_MissingKeyIsEmpty(t *testing.T) {
	s, fake := newTestStore()

	msgs, err := s.LoadMessages(context.Background(), "companion", "sess-1", "nope")
	require.NoError(t, err)
	assert.Empty(t, msgs)
	// No expiry refresh on an empty read.
	assert.NotContains(t, fake.expires, "companion_chat:sess-1:nope")
}

func TestLoadMessages_UnknownStoredTypeErrors(t *testing.T) {
	s, fake := newTestStore()
	fake.lists["companion_chat:sess-1:conv-1"] = []string{
		`{"type":"robot","content":"x","timestamp":"2026-08-28T10:00:00Z"}`,
	}

	_, err := s.LoadMessages(context.Background(), "companion", "sess-1", "conv-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "robot")
}

func TestMessages_RoundTripAllRoles(t *testing.T) {
	s, _ := newTestStore()
	ctx := context.Background()
	now := time.Date(2026, 8, 28, 10, 0, 0, 123456789, time.UTC)

	in := []models.Message{
		msgAt(models.RoleSystem, "persona", now),
		msgAt(models.RoleHuman, "question", now.Add(time.Second)),
		msgAt(models.RoleAssistant, "answer", now.Add(2*time.Second)),
	}
	require.NoError(t, s.AppendMessages(ctx, "excel", "sess-1", "conv-1", in))

	out, err := s.LoadMessages(ctx, "excel", "sess-1", "conv-1")
	require.NoError(t, err)
	require.Len(t, out, 3)
	for i := range in {
		assert.Equal(t, in[i].Role, out[i].Role)
		assert.Equal(t, in[i].Content, out[i].Content)
		assert.True(t, in[i].Timestamp.Equal(out[i].Timestamp), "message %d timestamp", i)
	}
}

func TestStoredMessage_WireShape(t *testing.T) {
	s, fake := newTestStore()
	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)

	require.NoError(t, s.AppendMessages(context.Background(), "companion", "sess-1", "conv-1", []models.Message{
		msgAt(models.RoleAssistant, "reply", now),
	}))

	raw := fake.lists["companion_chat:sess-1:conv-1"]
	require.Len(t, raw, 1)
	var decoded map[string]string
	require.NoError(t, json.Unmarshal([]byte(raw[0]), &decoded))
	// Assistant messages are stored with the "ai" wire type.
	assert.Equal(t, "ai", decoded["type"])
	assert.Equal(t, "reply", decoded["content"])
	assert.Equal(t, "2026-08-28T10:00:00Z", decoded["timestamp"])
}

func TestRegisterAndListConversations(t *testing.T) {
	s, _ := newTestStore()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		err := s.RegisterConversation(ctx, "companion", "sess-1", store.IndexEntry{
			ConversationID: fmt.Sprintf("conv-%d", i),
			Title:          fmt.Sprintf("title %d", i),
			Timestamp:      "2026-08-28T10:00:00Z",
		})
		require.NoError(t, err)
	}

	entries, err := s.ListConversations(ctx, "companion", "sess-1")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "conv-0", entries[0].ConversationID)
	assert.Equal(t, "title 2", entries[2].Title)

	// Other sessions and features see nothing.
	other, err := s.ListConversations(ctx, "companion", "sess-2")
	require.NoError(t, err)
	assert.Empty(t, other)
	other, err = s.ListConversations(ctx, "story", "sess-1")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestRecentMessages_AnchorsToLatestMessageDay(t *testing.T) {
	s, _ := newTestStore()
	ctx := context.Background()

	// Latest message is on Aug 28; Aug 27 messages must be filtered out even
	// though they are within 24 hours of the latest one.
	require.NoError(t, s.AppendMessages(ctx, "companion", "sess-1", "conv-1", []models.Message{
		msgAt(models.RoleHuman, "yesterday evening", time.Date(2026, 8, 27, 23, 30, 0, 0, time.UTC)),
		msgAt(models.RoleAssistant, "yesterday reply", time.Date(2026, 8, 27, 23, 31, 0, 0, time.UTC)),
		msgAt(models.RoleHuman, "past midnight", time.Date(2026, 8, 28, 0, 30, 0, 0, time.UTC)),
		msgAt(models.RoleAssistant, "morning reply", time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)),
	}))

	recent, err := s.RecentMessages(ctx, "companion", "sess-1")
	require.NoError(t, err)
	require.Contains(t, recent, "conv-1")
	msgs := recent["conv-1"]
	require.Len(t, msgs, 2)
	assert.Equal(t, "past midnight", msgs[0].Content)
	assert.Equal(t, "morning reply", msgs[1].Content)
}

func TestRecentMessages_PerConversationAnchors(t *testing.T) {
	s, _ := newTestStore()
	ctx := context.Background()

	// conv-stale's latest day is Aug 20; its whole Aug 20 tail is "recent"
	// for it regardless of other conversations being newer.
	require.NoError(t, s.AppendMessages(ctx, "companion", "sess-1", "conv-stale", []models.Message{
		msgAt(models.RoleHuman, "old question", time.Date(2026, 8, 20, 8, 0, 0, 0, time.UTC)),
	}))
	require.NoError(t, s.AppendMessages(ctx, "companion", "sess-1", "conv-fresh", []models.Message{
		msgAt(models.RoleHuman, "new question", time.Date(2026, 8, 28, 8, 0, 0, 0, time.UTC)),
	}))

	recent, err := s.RecentMessages(ctx, "companion", "sess-1")
	require.NoError(t, err)
	require.Len(t, recent, 2)
	require.Len(t, recent["conv-stale"], 1)
	assert.Equal(t, "old question", recent["conv-stale"][0].Content)
	require.Len(t, recent["conv-fresh"], 1)
}

func TestRecentMessages_EmptyConversationYieldsEmptySlice(t *testing.T) {
	s, fake := newTestStore()
	// A key can appear in the scan and be gone (expired) before it is read.
	fake.lists["companion_chat:sess-1:conv-gone"] = nil

	recent, err := s.RecentMessages(context.Background(), "companion", "sess-1")
	require.NoError(t, err)
	require.Contains(t, recent, "conv-gone")
	assert.Empty(t, recent["conv-gone"])
}

func TestRecentMessages_IgnoresOtherSessions(t *testing.T) {
	s, _ := newTestStore()
	ctx := context.Background()
	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)

	require.NoError(t, s.AppendMessages(ctx, "companion", "sess-1", "conv-1", []models.Message{
		msgAt(models.RoleHuman, "mine", now),
	}))
	require.NoError(t, s.AppendMessages(ctx, "companion", "sess-2", "conv-2", []models.Message{
		msgAt(models.RoleHuman, "theirs", now),
	}))

	recent, err := s.RecentMessages(ctx, "companion", "sess-1")
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Contains(t, recent, "conv-1")
}

func TestStore_WrapsUnavailable(t *testing.T) {
	s, fake := newTestStore()
	fake.failAll = true
	ctx := context.Background()
	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)

	err := s.AppendMessages(ctx, "companion", "sess-1", "conv-1", []models.Message{msgAt(models.RoleHuman, "x", now)})
	assert.ErrorIs(t, err, store.ErrUnavailable)

	_, err = s.LoadMessages(ctx, "companion", "sess-1", "conv-1")
	assert.ErrorIs(t, err, store.ErrUnavailable)

	err = s.RegisterConversation(ctx, "companion", "sess-1", store.IndexEntry{ConversationID: "c"})
	assert.ErrorIs(t, err, store.ErrUnavailable)

	_, err = s.ListConversations(ctx, "companion", "sess-1")
	assert.ErrorIs(t, err, store.ErrUnavailable)

	_, err = s.RecentMessages(ctx, "companion", "sess-1")
	assert.ErrorIs(t, err, store.ErrUnavailable)
}

func TestAppendMessages_EmptySliceIsNoOp(t *testing.T) {
	s, fake := newTestStore()

	require.NoError(t, s.AppendMessages(context.Background(), "companion", "sess-1", "conv-1", nil))
	assert.Empty(t, fake.lists)
}
