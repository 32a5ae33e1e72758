package resource_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Kyz7/portfolio/internal/apperr"
	"github.com/Kyz7/portfolio/internal/auth"
	"github.com/Kyz7/portfolio/internal/models"
	"github.com/Kyz7/portfolio/internal/registry"
	"github.com/Kyz7/portfolio/internal/resource"
	"github.com/Kyz7/portfolio/internal/taxonomy"
	"github.com/Kyz7/portfolio/internal/testutils"
	"github.com/Kyz7/portfolio/internal/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type fixture struct {
	svc     *resource.Service
	db      *gorm.DB
	cleaner *testutils.Cleaner
}

func newFixture(t *testing.T, policy workflow.Policy, strict bool) fixture {
	db := testutils.TestDB(t)
	log := testutils.Logger()
	cleaner := &testutils.Cleaner{}
	svc := resource.NewService(db, workflow.NewGate(policy), cleaner, workflow.NewService(db, log), log, resource.Options{
		StrictFields: strict,
		Tags:         taxonomy.NewTagService(db, log),
	})
	return fixture{svc: svc, db: db, cleaner: cleaner}
}

var (
	ctx       = context.Background()
	member    = &auth.Principal{ID: 2, Role: models.RoleUser}
	moderator = &auth.Principal{ID: 1, Role: models.RoleAdmin}
)

func idOf(t *testing.T, out map[string]interface{}) uint {
	id, ok := out["id"].(uint)
	require.True(t, ok)
	return id
}

func TestServiceCreate(t *testing.T) {
	t.Run("Success - auto approve starts counters at zero", func(t *testing.T) {
		f := newFixture(t, workflow.PolicyAutoApprove, false)

		out, err := f.svc.Create(ctx, registry.Photo, map[string]interface{}{
			"title": "Sunset",
			"url":   "/uploads/sunset.jpg",
			"size":  "1024",
			"likes": 500,
		}, member)
		require.NoError(t, err)

		assert.Equal(t, models.StatusApproved, out["status"])
		assert.Equal(t, int64(0), out["likes"])
		assert.Equal(t, int64(0), out["views"])
		assert.Equal(t, "/uploads/sunset.jpg", out["url"])
		assert.Equal(t, "1024", out["size"])
		uploader := out["uploader_id"].(*uint)
		require.NotNil(t, uploader)
		assert.Equal(t, member.ID, *uploader)
	})

	t.Run("Success - review policy queues non admin uploads", func(t *testing.T) {
		f := newFixture(t, workflow.PolicyReview, false)

		out, err := f.svc.Create(ctx, registry.Article, map[string]interface{}{"title": "Draft"}, member)
		require.NoError(t, err)
		assert.Equal(t, models.StatusPending, out["status"])

		out, err = f.svc.Create(ctx, registry.Article, map[string]interface{}{"title": "Official"}, moderator)
		require.NoError(t, err)
		assert.Equal(t, models.StatusApproved, out["status"])
	})

	t.Run("Success - content is sanitized", func(t *testing.T) {
		f := newFixture(t, workflow.PolicyAutoApprove, false)

		out, err := f.svc.Create(ctx, registry.Article, map[string]interface{}{
			"title":   "Post",
			"content": `<p>hello</p><script>alert(1)</script>`,
		}, member)
		require.NoError(t, err)
		assert.Contains(t, out["content"], "<p>hello</p>")
		assert.NotContains(t, out["content"], "<script>")
	})

	t.Run("Success - unknown fields dropped in lenient mode", func(t *testing.T) {
		f := newFixture(t, workflow.PolicyAutoApprove, false)

		out, err := f.svc.Create(ctx, registry.Event, map[string]interface{}{
			"title": "Meetup",
			"venue": "Hall A",
		}, member)
		require.NoError(t, err)
		_, ok := out["venue"]
		assert.False(t, ok)
	})

	t.Run("Success - tags are registered", func(t *testing.T) {
		f := newFixture(t, workflow.PolicyAutoApprove, false)

		_, err := f.svc.Create(ctx, registry.Photo, map[string]interface{}{
			"title": "Beach",
			"url":   "/uploads/b.jpg",
			"tags":  "sea,sand",
		}, member)
		require.NoError(t, err)

		var n int64
		f.db.Model(&models.Tag{}).Where("name IN ?", []string{"sea", "sand"}).Count(&n)
		assert.Equal(t, int64(2), n)
	})

	t.Run("Error - unknown fields rejected in strict mode", func(t *testing.T) {
		f := newFixture(t, workflow.PolicyAutoApprove, true)

		_, err := f.svc.Create(ctx, registry.Event, map[string]interface{}{
			"title": "Meetup",
			"venue": "Hall A",
		}, member)
		assert.ErrorIs(t, err, apperr.ErrValidation)
	})

	t.Run("Error - missing required alias", func(t *testing.T) {
		f := newFixture(t, workflow.PolicyAutoApprove, false)

		_, err := f.svc.Create(ctx, registry.Music, map[string]interface{}{"title": "Song"}, member)
		require.Error(t, err)
		assert.ErrorIs(t, err, apperr.ErrValidation)

		var fe *resource.FieldError
		require.True(t, errors.As(err, &fe))
		assert.Contains(t, fe.Fields, "audio")
	})
}

func TestServiceUpdate(t *testing.T) {
	t.Run("Success - replaced assets are discarded", func(t *testing.T) {
		f := newFixture(t, workflow.PolicyAutoApprove, false)

		out, err := f.svc.Create(ctx, registry.Video, map[string]interface{}{
			"title":     "Clip",
			"video":     "/uploads/old.mp4",
			"thumbnail": "/uploads/old.jpg",
		}, member)
		require.NoError(t, err)
		id := idOf(t, out)

		out, err = f.svc.Update(ctx, registry.Video, id, map[string]interface{}{"video": "/uploads/new.mp4"})
		require.NoError(t, err)

		assert.Equal(t, "/uploads/new.mp4", out["video"])
		assert.Equal(t, "/uploads/old.jpg", out["thumbnail"])
		assert.Equal(t, []string{"/uploads/old.mp4"}, f.cleaner.Discarded())
	})

	t.Run("Success - status and counters are untouched", func(t *testing.T) {
		f := newFixture(t, workflow.PolicyReview, false)

		out, err := f.svc.Create(ctx, registry.Article, map[string]interface{}{"title": "Draft"}, member)
		require.NoError(t, err)
		id := idOf(t, out)

		out, err = f.svc.Update(ctx, registry.Article, id, map[string]interface{}{
			"title":  "Edited",
			"status": "approved",
			"likes":  10,
		})
		require.NoError(t, err)
		assert.Equal(t, "Edited", out["title"])
		assert.Equal(t, models.StatusPending, out["status"])
		assert.Equal(t, int64(0), out["likes"])
	})

	t.Run("Success - extras are merged", func(t *testing.T) {
		f := newFixture(t, workflow.PolicyAutoApprove, false)

		out, err := f.svc.Create(ctx, registry.Music, map[string]interface{}{
			"title":    "Song",
			"audio":    "/uploads/s.mp3",
			"artist":   "First",
			"duration": "3:00",
		}, member)
		require.NoError(t, err)

		out, err = f.svc.Update(ctx, registry.Music, idOf(t, out), map[string]interface{}{"artist": "Second"})
		require.NoError(t, err)
		assert.Equal(t, "Second", out["artist"])
		assert.Equal(t, "3:00", out["duration"])
	})

	t.Run("Error - blank required field", func(t *testing.T) {
		f := newFixture(t, workflow.PolicyAutoApprove, false)

		out, err := f.svc.Create(ctx, registry.Article, map[string]interface{}{"title": "Post"}, member)
		require.NoError(t, err)

		_, err = f.svc.Update(ctx, registry.Article, idOf(t, out), map[string]interface{}{"title": " "})
		assert.ErrorIs(t, err, apperr.ErrValidation)
	})

	t.Run("Error - wrong type is not found", func(t *testing.T) {
		f := newFixture(t, workflow.PolicyAutoApprove, false)

		out, err := f.svc.Create(ctx, registry.Article, map[string]interface{}{"title": "Post"}, member)
		require.NoError(t, err)

		_, err = f.svc.Update(ctx, registry.Event, idOf(t, out), map[string]interface{}{"title": "x"})
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})
}

func TestServiceTrash(t *testing.T) {
	f := newFixture(t, workflow.PolicyAutoApprove, false)

	out, err := f.svc.Create(ctx, registry.Photo, map[string]interface{}{
		"title":    "Tree",
		"url":      "/uploads/tree.jpg",
		"category": "Nature",
	}, member)
	require.NoError(t, err)
	id := idOf(t, out)

	t.Run("Success - soft delete hides from live listing", func(t *testing.T) {
		require.NoError(t, f.svc.SoftDelete(ctx, registry.Photo, id))
		require.NoError(t, f.svc.SoftDelete(ctx, registry.Photo, id))

		live, err := f.svc.List(ctx, registry.Photo, resource.Filters{})
		require.NoError(t, err)
		assert.Equal(t, int64(0), live.Total)

		trashed, err := f.svc.List(ctx, registry.Photo, resource.Filters{Trashed: true})
		require.NoError(t, err)
		require.Equal(t, int64(1), trashed.Total)
		assert.NotNil(t, trashed.Items[0]["deleted_at"])

		got, err := f.svc.Get(ctx, registry.Photo, id)
		require.NoError(t, err)
		assert.NotNil(t, got["deleted_at"])
	})

	t.Run("Success - restore brings it back", func(t *testing.T) {
		require.NoError(t, f.svc.Restore(ctx, registry.Photo, id))
		require.NoError(t, f.svc.Restore(ctx, registry.Photo, id))

		live, err := f.svc.List(ctx, registry.Photo, resource.Filters{})
		require.NoError(t, err)
		assert.Equal(t, int64(1), live.Total)
	})

	t.Run("Success - permanent delete removes row, favorites and assets", func(t *testing.T) {
		require.NoError(t, f.db.Create(&models.Favorite{UserID: member.ID, ResourceID: id, ResourceType: registry.Photo}).Error)

		require.NoError(t, f.svc.PermanentDelete(ctx, registry.Photo, id))

		_, err := f.svc.Get(ctx, registry.Photo, id)
		assert.ErrorIs(t, err, apperr.ErrNotFound)

		var favs int64
		f.db.Model(&models.Favorite{}).Where("resource_id = ?", id).Count(&favs)
		assert.Equal(t, int64(0), favs)
		assert.Contains(t, f.cleaner.Discarded(), "/uploads/tree.jpg")
	})

	t.Run("Success - permanent delete works for trashed and pending rows", func(t *testing.T) {
		trashed := testutils.CreateResource(t, f.db, models.Resource{Type: registry.Photo, Title: "Old", FileURL: "/uploads/old.jpg"})
		require.NoError(t, f.svc.SoftDelete(ctx, registry.Photo, trashed.ID))
		pending := testutils.CreateResource(t, f.db, models.Resource{Type: registry.Photo, Title: "Queued", Status: models.StatusPending})

		for _, id := range []uint{trashed.ID, pending.ID} {
			require.NoError(t, f.svc.PermanentDelete(ctx, registry.Photo, id))

			_, err := f.svc.Get(ctx, registry.Photo, id)
			assert.ErrorIs(t, err, apperr.ErrNotFound)

			var n int64
			f.db.Unscoped().Model(&models.Resource{}).Where("id = ?", id).Count(&n)
			assert.Equal(t, int64(0), n)
		}
		assert.Contains(t, f.cleaner.Discarded(), "/uploads/old.jpg")
	})

	t.Run("Error - missing id", func(t *testing.T) {
		assert.ErrorIs(t, f.svc.SoftDelete(ctx, registry.Photo, 9999), apperr.ErrNotFound)
		assert.ErrorIs(t, f.svc.Restore(ctx, registry.Photo, 9999), apperr.ErrNotFound)
		assert.ErrorIs(t, f.svc.PermanentDelete(ctx, registry.Photo, 9999), apperr.ErrNotFound)
	})
}

func TestServiceCounters(t *testing.T) {
	f := newFixture(t, workflow.PolicyAutoApprove, false)
	r := testutils.CreateResource(t, f.db, models.Resource{Type: registry.Photo, Title: "Popular", FileURL: "/uploads/p.jpg"})

	t.Run("Success - concurrent likes are all counted", func(t *testing.T) {
		const n = 20
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := f.svc.Like(ctx, registry.Photo, r.ID)
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		got, err := f.svc.Get(ctx, registry.Photo, r.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(n), got["likes"])
	})

	t.Run("Success - view returns the new total", func(t *testing.T) {
		views, err := f.svc.View(ctx, registry.Photo, r.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), views)
	})

	t.Run("Error - like of another type", func(t *testing.T) {
		_, err := f.svc.Like(ctx, registry.Music, r.ID)
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})
}

func TestServiceList(t *testing.T) {
	f := newFixture(t, workflow.PolicyAutoApprove, false)

	seed := []models.Resource{
		{Type: registry.Photo, Title: "Forest", Category: "Nature", Likes: 5, Tags: "green,trees"},
		{Type: registry.Photo, Title: "River", Category: "Nature", Likes: 1, Tags: "water"},
		{Type: registry.Photo, Title: "Mountain", Category: "Nature", Likes: 3, Tags: "rock,snow"},
		{Type: registry.Photo, Title: "Skyline", Category: "City", Likes: 9, Tags: "night"},
		{Type: registry.Photo, Title: "Hidden", Category: "Nature", Likes: 7, Status: models.StatusPending},
		{Type: registry.Photo, Title: "Canopy", Category: "Nature", Likes: 5, Tags: "leaves"},
		{Type: registry.Photo, Title: "Burned", Category: "Nature", Likes: 8, DeletedAt: gorm.DeletedAt{Time: time.Now(), Valid: true}},
		{Type: registry.Article, Title: "Go tips", Category: "Tech", Tags: "golang,backend"},
		{Type: registry.Article, Title: "Cooking", Category: "Food", Tags: "kitchen"},
		{Type: registry.Event, Title: "Reunion", ExtraData: datatypes.JSON(`{"date":"2020-03-01"}`)},
		{Type: registry.Event, Title: "Launch", ExtraData: datatypes.JSON(`{"date":"2030-06-15T18:00"}`)},
		{Type: registry.Event, Title: "Today", ExtraData: datatypes.JSON(`{"date":"2025-05-10"}`)},
		{Type: registry.Event, Title: "Undated"},
	}
	for _, r := range seed {
		testutils.CreateResource(t, f.db, r)
	}

	t.Run("Success - category with likes sort and pagination", func(t *testing.T) {
		page, err := f.svc.List(ctx, registry.Photo, resource.Filters{
			Category: "Nature",
			Sort:     resource.SortLikes,
			Limit:    2,
		})
		require.NoError(t, err)

		// Hidden is pending and Burned is trashed
		assert.Equal(t, int64(4), page.Total)
		assert.Equal(t, int64(2), page.TotalPages)
		require.Len(t, page.Items, 2)
		// equal likes: higher id first
		assert.Equal(t, "Canopy", page.Items[0]["title"])
		assert.Equal(t, "Forest", page.Items[1]["title"])

		next, err := f.svc.List(ctx, registry.Photo, resource.Filters{
			Category: "Nature",
			Sort:     resource.SortLikes,
			Limit:    2,
			Page:     2,
		})
		require.NoError(t, err)
		require.Len(t, next.Items, 2)
		assert.Equal(t, "Mountain", next.Items[0]["title"])
		assert.Equal(t, "River", next.Items[1]["title"])
	})

	t.Run("Success - All category disables the filter", func(t *testing.T) {
		page, err := f.svc.List(ctx, registry.Photo, resource.Filters{Category: resource.CategoryAll})
		require.NoError(t, err)
		assert.Equal(t, int64(5), page.Total)
		assert.Equal(t, 12, page.Limit)
	})

	t.Run("Success - status all includes pending", func(t *testing.T) {
		page, err := f.svc.List(ctx, registry.Photo, resource.Filters{Status: resource.StatusAll})
		require.NoError(t, err)
		assert.Equal(t, int64(6), page.Total)
	})

	t.Run("Success - tag substring on photos", func(t *testing.T) {
		page, err := f.svc.List(ctx, registry.Photo, resource.Filters{Tag: "SNOW"})
		require.NoError(t, err)
		require.Equal(t, int64(1), page.Total)
		assert.Equal(t, "Mountain", page.Items[0]["title"])
	})

	t.Run("Success - article tag filters the category", func(t *testing.T) {
		page, err := f.svc.List(ctx, registry.Article, resource.Filters{Tag: "Tech"})
		require.NoError(t, err)
		require.Equal(t, int64(1), page.Total)
		assert.Equal(t, "Go tips", page.Items[0]["title"])
	})

	t.Run("Success - tags filter applies to articles too", func(t *testing.T) {
		page, err := f.svc.List(ctx, registry.Article, resource.Filters{Tags: "GoLang"})
		require.NoError(t, err)
		require.Equal(t, int64(1), page.Total)
		assert.Equal(t, "Go tips", page.Items[0]["title"])
	})

	t.Run("Success - event lifecycle", func(t *testing.T) {
		now := time.Date(2025, 5, 10, 12, 0, 0, 0, time.Local)
		cases := map[string][]string{
			resource.LifecycleUpcoming: {"Launch"},
			resource.LifecyclePast:     {"Reunion"},
			resource.LifecycleOngoing:  {"Today"},
		}
		for lifecycle, want := range cases {
			page, err := f.svc.List(ctx, registry.Event, resource.Filters{Lifecycle: lifecycle, Now: now})
			require.NoError(t, err, lifecycle)
			titles := make([]string, 0, len(page.Items))
			for _, it := range page.Items {
				titles = append(titles, it["title"].(string))
			}
			assert.Equal(t, want, titles, lifecycle)
		}

		all, err := f.svc.List(ctx, registry.Event, resource.Filters{Lifecycle: "someday", Now: now})
		require.NoError(t, err)
		assert.Equal(t, int64(4), all.Total)
	})

	t.Run("Success - search is case insensitive", func(t *testing.T) {
		page, err := f.svc.List(ctx, registry.Photo, resource.Filters{Search: "sKyL"})
		require.NoError(t, err)
		require.Equal(t, int64(1), page.Total)
		assert.Equal(t, "Skyline", page.Items[0]["title"])
	})

	t.Run("Success - title sort", func(t *testing.T) {
		page, err := f.svc.List(ctx, registry.Photo, resource.Filters{Sort: resource.SortTitle})
		require.NoError(t, err)
		require.Len(t, page.Items, 5)
		assert.Equal(t, "Canopy", page.Items[0]["title"])
		assert.Equal(t, "Skyline", page.Items[4]["title"])
	})

	t.Run("Success - page beyond the end is empty", func(t *testing.T) {
		page, err := f.svc.List(ctx, registry.Photo, resource.Filters{Page: 5})
		require.NoError(t, err)
		assert.Equal(t, int64(5), page.Total)
		assert.Empty(t, page.Items)
	})

	t.Run("Success - moderation queue spans types", func(t *testing.T) {
		page, err := f.svc.ListPending(ctx, 1, 20)
		require.NoError(t, err)
		require.Equal(t, int64(1), page.Total)
		assert.Equal(t, "Hidden", page.Items[0]["title"])
	})
}

func TestServiceSetStatus(t *testing.T) {
	f := newFixture(t, workflow.PolicyReview, false)

	out, err := f.svc.Create(ctx, registry.Photo, map[string]interface{}{"title": "Shot", "url": "/uploads/s.jpg"}, member)
	require.NoError(t, err)
	id := idOf(t, out)

	t.Run("Success - reject stores the reason", func(t *testing.T) {
		out, err := f.svc.SetStatus(ctx, registry.Photo, id, models.StatusRejected, "blurry", moderator)
		require.NoError(t, err)
		assert.Equal(t, models.StatusRejected, out["status"])
		assert.Equal(t, "blurry", out["rejection_reason"])
	})

	t.Run("Success - approve clears the reason", func(t *testing.T) {
		out, err := f.svc.SetStatus(ctx, registry.Photo, id, models.StatusApproved, "", moderator)
		require.NoError(t, err)
		assert.Equal(t, models.StatusApproved, out["status"])
		assert.Equal(t, "", out["rejection_reason"])
	})

	t.Run("Success - transitions outside the state machine are applied and flagged", func(t *testing.T) {
		out, err := f.svc.SetStatus(ctx, registry.Photo, id, models.StatusPending, "", moderator)
		require.NoError(t, err)
		assert.Equal(t, models.StatusPending, out["status"])

		var logs []models.AuditLog
		require.NoError(t, f.db.Where("resource_id = ?", id).Order("id ASC").Find(&logs).Error)
		require.Len(t, logs, 3)
		assert.True(t, logs[0].Legal)
		assert.True(t, logs[1].Legal)
		assert.False(t, logs[2].Legal)
		assert.Equal(t, models.StatusApproved, logs[2].FromStatus)
	})

	t.Run("Error - invalid status", func(t *testing.T) {
		_, err := f.svc.SetStatus(ctx, registry.Photo, id, models.ModerationStatus("archived"), "", moderator)
		assert.ErrorIs(t, err, apperr.ErrValidation)
	})
}
