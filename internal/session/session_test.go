package session

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSession(t *testing.T) {
	s := New("en")
	assert.True(t, strings.HasPrefix(s.ID, "session_"))
	assert.Equal(t, "en", s.Language)
	assert.Equal(t, 0, s.QuestionsCount)
}

func TestAddTurn(t *testing.T) {
	s := New("en")
	s.AddTurn(Turn{Question: "hi", Response: "hello", ModelUsed: "primary", ResponseTime: 2 * time.Second})
	s.AddTurn(Turn{Question: "bye", Response: "goodbye", ModelUsed: "primary", ResponseTime: 4 * time.Second})

	assert.Equal(t, 2, s.QuestionsCount)
	assert.Equal(t, 6*time.Second, s.TotalResponseTime)
	assert.Equal(t, 3*time.Second, s.AvgResponseTime())
}

func TestContextLastPairs(t *testing.T) {
	s := New("en")
	for _, q := range []string{"one", "two", "three", "four"} {
		s.AddTurn(Turn{Question: q, Response: "answer " + q})
	}

	ctx := s.Context(3)
	assert.NotContains(t, ctx, "User: one")
	assert.Contains(t, ctx, "User: two")
	assert.Contains(t, ctx, "Assistant: answer four")
}

func TestContextEmptyHistory(t *testing.T) {
	s := New("en")
	assert.Equal(t, "", s.Context(3))
}

func TestRateLimit(t *testing.T) {
	s := New("en")
	for i := 0; i < 5; i++ {
		assert.True(t, s.AllowRequest(5))
	}
	assert.False(t, s.AllowRequest(5))
}

func TestRateLimitDisabled(t *testing.T) {
	s := New("en")
	for i := 0; i < 100; i++ {
		assert.True(t, s.AllowRequest(0))
	}
}

func TestRegistryCreateGetDrop(t *testing.T) {
	r := NewRegistry()
	s := r.Create("en")

	got, ok := r.Get(s.ID)
	require.True(t, ok)
	assert.Same(t, s, got)
	assert.Equal(t, 1, r.Len())

	r.Drop(s.ID)
	_, ok = r.Get(s.ID)
	assert.False(t, ok)
	assert.Equal(t, 0, r.Len())
}

func TestRegistrySweepIdle(t *testing.T) {
	r := NewRegistry()
	idle := r.Create("en")
	idle.UpdatedAt = time.Now().Add(-time.Hour)
	fresh := r.Create("en")

	swept := r.SweepIdle(30 * time.Minute)
	require.Len(t, swept, 1)
	assert.Equal(t, idle.ID, swept[0].ID)

	_, ok := r.Get(fresh.ID)
	assert.True(t, ok)
}
