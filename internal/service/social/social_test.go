package social

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spadoc/internal/domain"
	"spadoc/internal/repository"
	"spadoc/pkg/jsonstore"
	"spadoc/pkg/logger"
)

func newService(t *testing.T) (*Service, repository.SocialPostRepository) {
	t.Helper()
	store, err := jsonstore.New(t.TempDir(), logger.NewNop())
	require.NoError(t, err)
	posts := repository.NewSocialPostRepository(store)
	return NewService(posts, logger.NewNop()), posts
}

func TestCreate(t *testing.T) {
	s, posts := newService(t)

	post, err := s.Create(context.Background(), CreatePostInput{
		Content:   "Spring opening special!",
		Platforms: []string{"facebook", " Google ", "myspace"},
	})
	require.NoError(t, err)

	assert.Equal(t, domain.SocialStatusPublished, post.Status)
	assert.Equal(t, []string{"facebook", "google", "myspace"}, post.Platforms)
	require.Len(t, post.PlatformResults, 2)

	fb := post.PlatformResults["facebook"]
	assert.False(t, fb.Success)
	assert.True(t, fb.SetupRequired)
	assert.Equal(t, "Facebook API not configured", fb.Error)

	g := post.PlatformResults["google"]
	assert.Equal(t, "google_business", g.Platform)
	assert.False(t, g.SetupRequired)

	stored := posts.List(context.Background())
	require.Len(t, stored, 1)
	assert.Equal(t, post.ID, stored[0].ID)
}

func TestCreateValidation(t *testing.T) {
	s, posts := newService(t)

	_, err := s.Create(context.Background(), CreatePostInput{Content: "  ", Platforms: []string{"facebook"}})
	assert.ErrorIs(t, err, ErrInvalidPost)
	_, err = s.Create(context.Background(), CreatePostInput{Content: "hello", Platforms: []string{" "}})
	assert.ErrorIs(t, err, ErrInvalidPost)

	assert.Empty(t, posts.List(context.Background()))
}
