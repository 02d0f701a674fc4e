package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestToastScheduler_ShowAssignsIDAndKeepsOrder(t *testing.T) {
	s := NewToastScheduler(DefaultToastTTL)
	now := time.Now()

	s.Show(Toast{Title: "first"}, now)
	s.Show(Toast{Title: "second"}, now)

	toasts := s.List()
	require.Len(t, toasts, 2)
	require.Equal(t, "first", toasts[0].Title)
	require.Equal(t, "second", toasts[1].Title)
	require.NotEmpty(t, toasts[0].ID)
	require.NotEqual(t, toasts[0].ID, toasts[1].ID)
}

func TestToastScheduler_PruneExpiresOldToasts(t *testing.T) {
	s := NewToastScheduler(4 * time.Second)
	t0 := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

	s.Show(Toast{Title: "old"}, t0)
	s.Show(Toast{Title: "fresh"}, t0.Add(2*time.Second))

	s.Prune(t0.Add(4 * time.Second))

	toasts := s.List()
	require.Len(t, toasts, 1)
	require.Equal(t, "fresh", toasts[0].Title)
}

func TestToastScheduler_DismissIdempotent(t *testing.T) {
	s := NewToastScheduler(DefaultToastTTL)
	now := time.Now()
	s.Show(Toast{Title: "only"}, now)
	id := s.List()[0].ID

	s.Dismiss(id)
	require.Empty(t, s.List())

	// Second removal of the same id must not error or remove anything else.
	s.Show(Toast{Title: "other"}, now)
	s.Dismiss(id)
	require.Len(t, s.List(), 1)
}

func TestToastScheduler_DismissThenPruneSafe(t *testing.T) {
	s := NewToastScheduler(4 * time.Second)
	t0 := time.Now()
	s.Show(Toast{Title: "x"}, t0)
	id := s.List()[0].ID

	s.Dismiss(id)
	s.Prune(t0.Add(10 * time.Second))
	require.Empty(t, s.List())
}
