package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liliang-cn/pdfinsight/internal/service"
)

func newController() *service.Controller {
	return service.NewChatService(nil, nil, nil).NewController()
}

func TestSessionRepository_SaveGet(t *testing.T) {
	repo := NewSessionRepository(time.Hour, time.Minute)
	c := newController()

	repo.Save(c)

	got, ok := repo.Get(c.ID())
	require.True(t, ok)
	assert.Same(t, c, got)
	assert.Equal(t, 1, repo.Count())
}

func TestSessionRepository_Missing(t *testing.T) {
	repo := NewSessionRepository(time.Hour, time.Minute)

	_, ok := repo.Get("nope")
	assert.False(t, ok)
}

func TestSessionRepository_Delete(t *testing.T) {
	repo := NewSessionRepository(time.Hour, time.Minute)
	c := newController()
	repo.Save(c)

	var evicted string
	repo.OnEvicted(func(id string) { evicted = id })
	repo.Delete(c.ID())

	_, ok := repo.Get(c.ID())
	assert.False(t, ok)
	assert.Equal(t, c.ID(), evicted)
}

func TestSessionRepository_Expiry(t *testing.T) {
	repo := NewSessionRepository(20*time.Millisecond, time.Hour)
	c := newController()
	repo.Save(c)

	time.Sleep(40 * time.Millisecond)

	_, ok := repo.Get(c.ID())
	assert.False(t, ok)
}
