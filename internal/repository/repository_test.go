package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spadoc/internal/domain"
	"spadoc/pkg/jsonstore"
	"spadoc/pkg/logger"
)

var testNow = time.Date(2025, 7, 15, 10, 30, 0, 0, time.UTC)

func newStore(t *testing.T) *jsonstore.Store {
	t.Helper()
	s, err := jsonstore.New(t.TempDir(), logger.NewNop())
	require.NoError(t, err)
	return s
}

// breakStore makes every later save fail
func breakStore(t *testing.T, s *jsonstore.Store) {
	t.Helper()
	require.NoError(t, os.RemoveAll(s.Dir()))
}

func newBlog(t *testing.T, s *jsonstore.Store) BlogRepository {
	t.Helper()
	repo, err := NewBlogRepository(s)
	require.NoError(t, err)
	return repo
}

func TestBlogRepository_SeedsOnFirstRun(t *testing.T) {
	s := newStore(t)
	repo := newBlog(t, s)
	ctx := context.Background()

	posts := repo.List(ctx)
	require.Len(t, posts, 5)
	for _, p := range posts {
		assert.Equal(t, "Spa Doctors", p.Author)
		assert.True(t, p.HasCategory(), p.Title)
	}
	assert.FileExists(t, s.Dir()+"/"+FileBlogPosts)
}

func TestBlogRepository_AddPrependsWithTimestampID(t *testing.T) {
	repo := newBlog(t, newStore(t))
	ctx := context.Background()

	added, err := repo.Add(ctx, testNow, domain.BlogPost{Title: "  Winterizing  ", Content: "Drain it."})
	require.NoError(t, err)
	require.Len(t, added, 1)

	first := repo.List(ctx)[0]
	assert.Equal(t, testNow.UnixMilli(), first.ID)
	assert.Equal(t, "Winterizing", first.Title)
	assert.Equal(t, domain.DefaultAuthor, first.Author)
	assert.True(t, first.Date.Equal(testNow))
	assert.Len(t, repo.List(ctx), 6)
}

func TestBlogRepository_AddAvoidsIDCollisions(t *testing.T) {
	repo := newBlog(t, newStore(t))
	ctx := context.Background()

	// seed ids are 1..5, so a clock reading of 3ms collides
	added, err := repo.Add(ctx, time.UnixMilli(3),
		domain.BlogPost{Title: "a", Content: "a"},
		domain.BlogPost{Title: "b", Content: "b"},
	)
	require.NoError(t, err)
	assert.Equal(t, int64(6), added[0].ID)
	assert.Equal(t, int64(7), added[1].ID)

	list := repo.List(ctx)
	assert.Equal(t, "b", list[0].Title)
	assert.Equal(t, "a", list[1].Title)
}

func TestBlogRepository_Update(t *testing.T) {
	repo := newBlog(t, newStore(t))
	ctx := context.Background()

	updated, err := repo.Update(ctx, 2, "New title", "New body", testNow)
	require.NoError(t, err)
	assert.Equal(t, "New title", updated.Title)
	require.NotNil(t, updated.LastModified)
	assert.True(t, updated.LastModified.Equal(testNow))

	got, err := repo.Get(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "New body", got.Content)
	assert.Equal(t, "Spa Doctors", got.Author)

	_, err = repo.Update(ctx, 999, "x", "y", testNow)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBlogRepository_DeleteMissingLeavesListUnchanged(t *testing.T) {
	repo := newBlog(t, newStore(t))
	ctx := context.Background()

	err := repo.Delete(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Len(t, repo.List(ctx), 5)

	require.NoError(t, repo.Delete(ctx, 1))
	assert.Len(t, repo.List(ctx), 4)
	_, err = repo.Get(ctx, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBlogRepository_ChangesSurviveReload(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	repo := newBlog(t, s)
	require.NoError(t, repo.Delete(ctx, 3))

	reloaded := newBlog(t, s)
	assert.Len(t, reloaded.List(ctx), 4)
	_, err := reloaded.Get(ctx, 3)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBlogRepository_FailedSaveRollsBack(t *testing.T) {
	s := newStore(t)
	repo := newBlog(t, s)
	ctx := context.Background()
	breakStore(t, s)

	_, err := repo.Add(ctx, testNow, domain.BlogPost{Title: "x", Content: "y"})
	assert.Error(t, err)
	assert.Len(t, repo.List(ctx), 5)

	assert.Error(t, repo.Delete(ctx, 1))
	_, err = repo.Get(ctx, 1)
	assert.NoError(t, err)
}

func TestBlogRepository_ListByCategory(t *testing.T) {
	repo := newBlog(t, newStore(t))
	ctx := context.Background()

	for _, p := range repo.ListByCategory(ctx, "maintenance-care") {
		assert.Equal(t, "maintenance-care", p.Category)
	}
	assert.Empty(t, repo.ListByCategory(ctx, "no-such-category"))
}

func TestBlogRepository_Categorize(t *testing.T) {
	repo := newBlog(t, newStore(t))
	ctx := context.Background()

	_, err := repo.Add(ctx, testNow,
		domain.BlogPost{Title: "Hot Tub Electrical Safety: What Every Owner Should Know", Content: "c"},
		domain.BlogPost{Title: "Something new", Content: "c"},
	)
	require.NoError(t, err)

	n, err := repo.Categorize(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	list := repo.List(ctx)
	assert.Equal(t, domain.DefaultCategory, list[0].Category)
	assert.Equal(t, "safety-electrical", list[1].Category)

	n, err = repo.Categorize(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestGalleryRepository(t *testing.T) {
	repo := NewGalleryRepository(newStore(t))
	ctx := context.Background()

	require.NoError(t, repo.Add(ctx,
		domain.GalleryImage{ID: "a", Filename: "a.jpg"},
		domain.GalleryImage{ID: "b", Filename: "b.jpg"},
	))

	removed, err := repo.Delete(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "a.jpg", removed.Filename)

	_, err = repo.Delete(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Len(t, repo.List(ctx), 1)
}

func TestMediaRepository_ListNewestFirst(t *testing.T) {
	repo := NewMediaRepository(newStore(t))
	ctx := context.Background()

	require.NoError(t, repo.Add(ctx,
		domain.MediaItem{ID: "old", UploadDate: testNow.Add(-time.Hour)},
		domain.MediaItem{ID: "new", UploadDate: testNow},
	))

	list := repo.List(ctx)
	require.Len(t, list, 2)
	assert.Equal(t, "new", list[0].ID)

	got, err := repo.Get(ctx, "old")
	require.NoError(t, err)
	assert.Equal(t, "old", got.ID)

	_, err = repo.Delete(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSocialRepositories(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	posts := NewSocialPostRepository(s)
	require.NoError(t, posts.Add(ctx, domain.SocialPost{ID: "1", CreatedAt: testNow.Add(-time.Minute)}))
	require.NoError(t, posts.Add(ctx, domain.SocialPost{ID: "2", CreatedAt: testNow}))
	assert.Equal(t, "2", posts.List(ctx)[0].ID)

	settings := NewSocialSettingsRepository(s)
	assert.Contains(t, settings.Get(ctx).DefaultTemplate, "#HotTubRepair")

	yes := true
	updated, err := settings.Update(ctx, domain.SocialSettingsUpdate{DefaultTemplate: "New", AutoAddContact: &yes})
	require.NoError(t, err)
	assert.Equal(t, "New", updated.DefaultTemplate)
	require.NotNil(t, updated.AutoAddContact)
	assert.True(t, *updated.AutoAddContact)
	assert.Nil(t, updated.SendNotifications)

	// a blank template keeps the current one
	updated, err = settings.Update(ctx, domain.SocialSettingsUpdate{})
	require.NoError(t, err)
	assert.Equal(t, "New", updated.DefaultTemplate)

	reloaded := NewSocialSettingsRepository(s)
	assert.Equal(t, "New", reloaded.Get(ctx).DefaultTemplate)
}

func TestAnalyticsRepository_Counters(t *testing.T) {
	s := newStore(t)
	repo := NewAnalyticsRepository(s)
	ctx := context.Background()

	require.NoError(t, repo.RecordBlogView(ctx, testNow))
	require.NoError(t, repo.RecordBlogView(ctx, testNow))
	require.NoError(t, repo.RecordArticleExpansion(ctx, "Drain", testNow))
	require.NoError(t, repo.RecordPageView(ctx, domain.TrackPageViewRequest{Page: "/blog", SessionID: "s1", Timestamp: "t1"}, testNow))
	require.NoError(t, repo.RecordPageView(ctx, domain.TrackPageViewRequest{Page: "/contact", SessionID: "s1", Timestamp: "t2"}, testNow))

	snap := repo.Snapshot(ctx)
	assert.Equal(t, 2, snap.BlogPageViews["2025-07-15"])
	assert.Equal(t, 1, snap.ArticleExpansions["Drain"]["2025-07-15"])
	assert.Equal(t, 1, snap.PageViews["/contact"]["2025-07-15"])

	journey := snap.CustomerJourneys["s1"]
	require.NotNil(t, journey)
	assert.Equal(t, "t1", journey.StartTime)
	assert.Equal(t, "t2", journey.LastActivity)
	assert.Len(t, journey.Pages, 2)

	reloaded := NewAnalyticsRepository(s).Snapshot(ctx)
	assert.Equal(t, snap, reloaded)
}

func TestAnalyticsRepository_RecordContact(t *testing.T) {
	repo := NewAnalyticsRepository(newStore(t))
	ctx := context.Background()

	require.NoError(t, repo.RecordPageView(ctx, domain.TrackPageViewRequest{Page: "/", SessionID: "s1", Timestamp: "t1"}, testNow))

	sub, err := repo.RecordContact(ctx, domain.ContactRequest{
		Phone:     "555-1234",
		Message:   "help",
		SessionID: "s1",
	}, testNow)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultService, sub.Service)
	assert.True(t, sub.HasPhone)
	assert.False(t, sub.HasEmail)
	assert.Equal(t, 4, sub.MessageLength)
	assert.Equal(t, domain.DefaultReferrerPage, sub.ReferrerPage)
	assert.Equal(t, int(time.Tuesday), sub.DayOfWeek)
	require.NotNil(t, sub.CustomerJourney)
	assert.Len(t, sub.CustomerJourney.Pages, 1)

	// the stored journey snapshot does not follow later page views
	require.NoError(t, repo.RecordPageView(ctx, domain.TrackPageViewRequest{Page: "/blog", SessionID: "s1", Timestamp: "t2"}, testNow))
	snap := repo.Snapshot(ctx)
	require.Len(t, snap.ContactSubmissions, 1)
	assert.Len(t, snap.ContactSubmissions[0].CustomerJourney.Pages, 1)
}

func TestAnalyticsRepository_FailedSaveRollsBack(t *testing.T) {
	s := newStore(t)
	repo := NewAnalyticsRepository(s)
	ctx := context.Background()

	require.NoError(t, repo.RecordPageView(ctx, domain.TrackPageViewRequest{Page: "/", SessionID: "s1", Timestamp: "t1"}, testNow))
	before := repo.Snapshot(ctx)
	breakStore(t, s)

	assert.Error(t, repo.RecordBlogView(ctx, testNow))
	assert.Error(t, repo.RecordArticleExpansion(ctx, "new", testNow))
	assert.Error(t, repo.RecordPageView(ctx, domain.TrackPageViewRequest{Page: "/", SessionID: "s1", Timestamp: "t2"}, testNow))
	assert.Error(t, repo.RecordPageView(ctx, domain.TrackPageViewRequest{Page: "/x", SessionID: "s2"}, testNow))
	_, err := repo.RecordContact(ctx, domain.ContactRequest{Message: "m"}, testNow)
	assert.Error(t, err)

	assert.Equal(t, before, repo.Snapshot(ctx))
}
