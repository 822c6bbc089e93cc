package services_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopcore/backend/domain"
	"github.com/shopcore/backend/internal/infrastructure/buffer"
	"github.com/shopcore/backend/internal/services"
)

type fakeAuditRepo struct {
	entries  []domain.AuditEntry
	failNext int
}

func (r *fakeAuditRepo) Append(_ context.Context, entry *domain.AuditEntry) error {
	if r.failNext > 0 {
		r.failNext--
		return errors.New("connection refused")
	}
	r.entries = append(r.entries, *entry)
	return nil
}

type fakeMonitor struct{ online bool }

func (m *fakeMonitor) IsOnline() bool { return m.online }

func newProcessor(t *testing.T, repo *fakeAuditRepo, mon *fakeMonitor, maxRetries int) *services.AuditProcessor {
	t.Helper()
	store, err := buffer.Open(filepath.Join(t.TempDir(), "audit.db"), "audit")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return services.NewAuditProcessor(store, mon, repo, nil, services.ProcessorConfig{
		Interval:   time.Minute,
		BatchSize:  10,
		MaxRetries: maxRetries,
	})
}

func loginEntry(userID string) domain.AuditEntry {
	return domain.AuditEntry{
		UserID:       userID,
		Action:       domain.AuditActionLogin,
		ResourceType: domain.AuditResourceUser,
		ResourceID:   userID,
	}
}

func TestWriteDirectWhenOnline(t *testing.T) {
	repo := &fakeAuditRepo{}
	proc := newProcessor(t, repo, &fakeMonitor{online: true}, 3)

	require.NoError(t, proc.Write(context.Background(), loginEntry("u1")))
	assert.Len(t, repo.entries, 1)
	assert.Zero(t, proc.Size(), "nothing should be buffered on a direct write")
}

func TestWriteSpillsWhenOffline(t *testing.T) {
	repo := &fakeAuditRepo{}
	proc := newProcessor(t, repo, &fakeMonitor{online: false}, 3)

	require.NoError(t, proc.Write(context.Background(), loginEntry("u1")))
	assert.Empty(t, repo.entries)
	assert.Equal(t, 1, proc.Size())
}

func TestWriteSpillsOnAppendFailure(t *testing.T) {
	repo := &fakeAuditRepo{failNext: 1}
	proc := newProcessor(t, repo, &fakeMonitor{online: true}, 3)

	require.NoError(t, proc.Write(context.Background(), loginEntry("u1")))
	assert.Empty(t, repo.entries)
	assert.Equal(t, 1, proc.Size())
}

func TestDrainReplaysBufferedEntries(t *testing.T) {
	repo := &fakeAuditRepo{}
	mon := &fakeMonitor{online: false}
	proc := newProcessor(t, repo, mon, 3)
	ctx := context.Background()

	require.NoError(t, proc.Write(ctx, loginEntry("u1")))
	require.NoError(t, proc.Write(ctx, loginEntry("u2")))
	require.Equal(t, 2, proc.Size())

	// Still offline: drain is a no-op.
	require.NoError(t, proc.Drain(ctx))
	assert.Equal(t, 2, proc.Size())

	mon.online = true
	require.NoError(t, proc.Drain(ctx))
	assert.Zero(t, proc.Size())
	require.Len(t, repo.entries, 2)
	assert.Equal(t, "u1", repo.entries[0].UserID)
	assert.Equal(t, "u2", repo.entries[1].UserID)
}

func TestDrainDropsAfterMaxRetries(t *testing.T) {
	repo := &fakeAuditRepo{failNext: 10}
	proc := newProcessor(t, repo, &fakeMonitor{online: true}, 2)
	ctx := context.Background()

	require.NoError(t, proc.Write(ctx, loginEntry("u1")))
	require.Equal(t, 1, proc.Size())

	require.NoError(t, proc.Drain(ctx))
	assert.Equal(t, 1, proc.Size(), "first failure requeues")

	require.NoError(t, proc.Drain(ctx))
	assert.Zero(t, proc.Size(), "second failure hits the retry cap and drops")
	assert.Empty(t, repo.entries)
}
