package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paperpulse/paperpulse/internal/domain"
)

func openTestStore(t *testing.T) *SeenStore {
	t.Helper()
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func records(ids ...string) []domain.PaperRecord {
	papers := make([]domain.PaperRecord, len(ids))
	for i, id := range ids {
		papers[i] = domain.PaperRecord{ID: id, Title: "Paper " + id, Source: "arxiv"}
	}
	return papers
}

func TestSeenStore(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 25, 6, 0, 0, 0, time.UTC)

	t.Run("fresh store leaves all papers unseen", func(t *testing.T) {
		s := openTestStore(t)

		unseen, err := s.FilterUnseen(ctx, records("a", "b", "c"))
		require.NoError(t, err)
		assert.Len(t, unseen, 3)
	})

	t.Run("delivered papers are filtered on the next run", func(t *testing.T) {
		s := openTestStore(t)

		require.NoError(t, s.MarkDelivered(ctx, "run-1", records("a", "b"), now))

		unseen, err := s.FilterUnseen(ctx, records("a", "b", "c"))
		require.NoError(t, err)
		require.Len(t, unseen, 1)
		assert.Equal(t, "c", unseen[0].ID)
	})

	t.Run("marking the same paper twice is a no-op", func(t *testing.T) {
		s := openTestStore(t)

		require.NoError(t, s.MarkDelivered(ctx, "run-1", records("a"), now))
		require.NoError(t, s.MarkDelivered(ctx, "run-2", records("a"), now.Add(24*time.Hour)))

		unseen, err := s.FilterUnseen(ctx, records("a"))
		require.NoError(t, err)
		assert.Empty(t, unseen)
	})

	t.Run("filter preserves input order", func(t *testing.T) {
		s := openTestStore(t)

		require.NoError(t, s.MarkDelivered(ctx, "run-1", records("b"), now))

		unseen, err := s.FilterUnseen(ctx, records("c", "b", "a"))
		require.NoError(t, err)
		require.Len(t, unseen, 2)
		assert.Equal(t, "c", unseen[0].ID)
		assert.Equal(t, "a", unseen[1].ID)
	})

	t.Run("prune removes old records", func(t *testing.T) {
		s := openTestStore(t)

		require.NoError(t, s.MarkDelivered(ctx, "run-1", records("old"), now.Add(-40*24*time.Hour)))
		require.NoError(t, s.MarkDelivered(ctx, "run-2", records("new"), now))

		removed, err := s.Prune(ctx, now.Add(-30*24*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, int64(1), removed)

		unseen, err := s.FilterUnseen(ctx, records("old", "new"))
		require.NoError(t, err)
		require.Len(t, unseen, 1)
		assert.Equal(t, "old", unseen[0].ID)
	})

	t.Run("empty input is fine", func(t *testing.T) {
		s := openTestStore(t)

		unseen, err := s.FilterUnseen(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, unseen)
		require.NoError(t, s.MarkDelivered(ctx, "run-1", nil, now))
	})
}
