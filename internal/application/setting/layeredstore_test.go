package setting

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orris-inc/lineconnect/internal/domain/setting"
	sharedConfig "github.com/orris-inc/lineconnect/internal/shared/config"
	"github.com/orris-inc/lineconnect/internal/shared/logger"
)

type memoryRepo struct {
	mu      sync.Mutex
	rows    map[string]*setting.Entry
	readErr error
	saves   int
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{rows: map[string]*setting.Entry{}}
}

func (r *memoryRepo) Find(_ context.Context, group, key string) (*setting.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.readErr != nil {
		return nil, r.readErr
	}
	return r.rows[group+"."+key], nil
}

func (r *memoryRepo) ListGroup(_ context.Context, group string) ([]*setting.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*setting.Entry
	for _, s := range r.rows {
		if s.Group() == group {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *memoryRepo) Save(_ context.Context, s *setting.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saves++
	r.rows[s.Path()] = s
	return nil
}

func (r *memoryRepo) Remove(_ context.Context, group, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rows, group+"."+key)
	return nil
}

type recordingSubscriber struct {
	groups  []string
	changes []map[string]string
	err     error
}

func (s *recordingSubscriber) OnSettingChange(_ context.Context, group string, changes map[string]string) error {
	s.groups = append(s.groups, group)
	s.changes = append(s.changes, changes)
	return s.err
}

func TestLayeredStore_DefaultsThenDatabase(t *testing.T) {
	ctx := context.Background()
	store := NewLayeredStore(newMemoryRepo(), DefaultsFromConfig(sharedConfig.LineConfig{
		ChannelID: "env-id",
		LiffID:    "liff-env",
	}), logger.NewNopLogger())

	value, source := store.GetWithSource(ctx, setting.GroupLogin, setting.KeyChannelID)
	assert.Equal(t, "env-id", value)
	assert.Equal(t, SourceDefault, source)

	require.NoError(t, store.Set(ctx, setting.GroupLogin, setting.KeyChannelID, "db-id"))

	value, source = store.GetWithSource(ctx, setting.GroupLogin, setting.KeyChannelID)
	assert.Equal(t, "db-id", value)
	assert.Equal(t, SourceDatabase, source)
	assert.Equal(t, "liff-env", store.Get(ctx, setting.GroupLiff, setting.KeyLiffID))
	assert.Equal(t, "", store.Get(ctx, "unknown", "key"))
}

func TestLayeredStore_SetUpdatesExistingRow(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	store := NewLayeredStore(repo, nil, logger.NewNopLogger())

	require.NoError(t, store.Set(ctx, setting.GroupLiff, setting.KeyLiffID, "a"))
	require.NoError(t, store.Set(ctx, setting.GroupLiff, setting.KeyLiffID, "b"))

	row, err := repo.Find(ctx, setting.GroupLiff, setting.KeyLiffID)
	require.NoError(t, err)
	assert.Equal(t, "b", row.Value())
	assert.Equal(t, 2, row.Revision())
}

func TestLayeredStore_SetNotifiesSubscribers(t *testing.T) {
	ctx := context.Background()
	store := NewLayeredStore(newMemoryRepo(), nil, logger.NewNopLogger())
	sub := &recordingSubscriber{}
	failing := &recordingSubscriber{err: errors.New("rebuild failed")}
	store.Subscribe(sub)
	store.Subscribe(failing)

	require.NoError(t, store.Set(ctx, setting.GroupLogin, setting.KeyChannelSecret, "s3cret"))

	assert.Equal(t, []string{setting.GroupLogin}, sub.groups)
	assert.Equal(t, map[string]string{setting.KeyChannelSecret: "s3cret"}, sub.changes[0])
	assert.Len(t, failing.groups, 1)
}

func TestLayeredStore_ReadErrorFallsBack(t *testing.T) {
	repo := newMemoryRepo()
	repo.readErr = errors.New("db down")
	store := NewLayeredStore(repo, Defaults{"login": {"channel_id": "fallback"}}, logger.NewNopLogger())

	assert.Equal(t, "fallback", store.Get(context.Background(), "login", "channel_id"))
	assert.Error(t, store.Set(context.Background(), "login", "channel_id", "x"))
}

func TestLayeredStore_InvalidKey(t *testing.T) {
	store := NewLayeredStore(newMemoryRepo(), nil, logger.NewNopLogger())
	assert.ErrorIs(t, store.Set(context.Background(), "", "k", "v"), setting.ErrMalformedKey)
}

func TestLayeredStore_UnchangedValueIsNotRewritten(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	store := NewLayeredStore(repo, nil, logger.NewNopLogger())
	sub := &recordingSubscriber{}
	store.Subscribe(sub)

	require.NoError(t, store.Set(ctx, setting.GroupLiff, setting.KeyLiffID, "same"))
	require.NoError(t, store.Set(ctx, setting.GroupLiff, setting.KeyLiffID, "same"))

	assert.Equal(t, 1, repo.saves)
	assert.Len(t, sub.groups, 1)
}

func TestLayeredStore_UnsetRestoresDefault(t *testing.T) {
	ctx := context.Background()
	store := NewLayeredStore(newMemoryRepo(), Defaults{"liff": {"liff_id": "from-config"}}, logger.NewNopLogger())
	sub := &recordingSubscriber{}
	store.Subscribe(sub)

	require.NoError(t, store.Set(ctx, setting.GroupLiff, setting.KeyLiffID, "from-db"))
	require.NoError(t, store.Unset(ctx, setting.GroupLiff, setting.KeyLiffID))

	value, source := store.GetWithSource(ctx, setting.GroupLiff, setting.KeyLiffID)
	assert.Equal(t, "from-config", value)
	assert.Equal(t, SourceDefault, source)
	assert.Equal(t, map[string]string{setting.KeyLiffID: "from-config"}, sub.changes[1])
}

func TestLayeredStore_Overrides(t *testing.T) {
	ctx := context.Background()
	store := NewLayeredStore(newMemoryRepo(), nil, logger.NewNopLogger())
	require.NoError(t, store.Set(ctx, setting.GroupNotice, setting.KeyLoginNotice, "hello"))
	require.NoError(t, store.Set(ctx, setting.GroupLiff, setting.KeyLiffID, "x"))

	entries, err := store.Overrides(ctx, setting.GroupNotice)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "hello", entries[0].Value())
}
