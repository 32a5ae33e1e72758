package workflow_test

import (
	"context"
	"testing"

	"github.com/Kyz7/portfolio/internal/auth"
	"github.com/Kyz7/portfolio/internal/models"
	"github.com/Kyz7/portfolio/internal/registry"
	"github.com/Kyz7/portfolio/internal/testutils"
	"github.com/Kyz7/portfolio/internal/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGate(t *testing.T) {
	admin := &auth.Principal{ID: 1, Role: models.RoleAdmin}
	member := &auth.Principal{ID: 2, Role: models.RoleUser}

	t.Run("Success - Auto approve", func(t *testing.T) {
		g := workflow.NewGate(workflow.PolicyAutoApprove)
		assert.Equal(t, models.StatusApproved, g.InitialStatus(admin))
		assert.Equal(t, models.StatusApproved, g.InitialStatus(member))
		assert.Equal(t, models.StatusApproved, g.InitialStatus(nil))
	})

	t.Run("Success - Review", func(t *testing.T) {
		g := workflow.NewGate(workflow.PolicyReview)
		assert.Equal(t, models.StatusApproved, g.InitialStatus(admin))
		assert.Equal(t, models.StatusPending, g.InitialStatus(member))
		assert.Equal(t, models.StatusPending, g.InitialStatus(nil))
	})

	t.Run("Success - Parse policy", func(t *testing.T) {
		p, err := workflow.ParsePolicy("")
		require.NoError(t, err)
		assert.Equal(t, workflow.PolicyAutoApprove, p)

		p, err = workflow.ParsePolicy(" Review ")
		require.NoError(t, err)
		assert.Equal(t, workflow.PolicyReview, p)

		_, err = workflow.ParsePolicy("manual")
		assert.Error(t, err)
	})

	t.Run("Success - Transitions", func(t *testing.T) {
		assert.True(t, workflow.CanTransition(models.StatusPending, models.StatusApproved))
		assert.True(t, workflow.CanTransition(models.StatusPending, models.StatusRejected))
		assert.True(t, workflow.CanTransition(models.StatusApproved, models.StatusRejected))
		assert.True(t, workflow.CanTransition(models.StatusRejected, models.StatusApproved))
		assert.False(t, workflow.CanTransition(models.StatusApproved, models.StatusPending))
		assert.False(t, workflow.CanTransition(models.StatusApproved, models.StatusApproved))
	})
}

func TestAuditService(t *testing.T) {
	ctx := context.Background()
	db := testutils.TestDB(t)
	svc := workflow.NewService(db, testutils.Logger())

	admin := testutils.CreateTestUser(t, db, "admin", models.RoleAdmin)
	testutils.CreateResource(t, db, models.Resource{Type: registry.Photo, Title: "a"})
	testutils.CreateResource(t, db, models.Resource{Type: registry.Photo, Title: "b", Status: models.StatusPending})
	gone := testutils.CreateResource(t, db, models.Resource{Type: registry.Photo, Title: "c", Status: models.StatusRejected})
	require.NoError(t, db.Delete(gone).Error)

	t.Run("Success - Record flags legality", func(t *testing.T) {
		require.NoError(t, svc.Record(ctx, models.AuditLog{
			AdminID:      &admin.ID,
			ResourceType: registry.Photo,
			ResourceID:   1,
			FromStatus:   models.StatusPending,
			Action:       models.StatusApproved,
		}))
		require.NoError(t, svc.Record(ctx, models.AuditLog{
			AdminID:      &admin.ID,
			ResourceType: registry.Photo,
			ResourceID:   1,
			FromStatus:   models.StatusApproved,
			Action:       models.StatusPending,
		}))

		logs, total, err := svc.List(ctx, 1, 20)
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		require.Len(t, logs, 2)
		assert.False(t, logs[0].Legal)
		assert.True(t, logs[1].Legal)
		require.NotNil(t, logs[0].Admin)
		assert.Equal(t, "admin", logs[0].Admin.Username)

		history, err := svc.History(ctx, 1)
		require.NoError(t, err)
		assert.Len(t, history, 2)
	})

	t.Run("Success - Statistics skip trashed rows", func(t *testing.T) {
		stats, err := svc.Statistics(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), stats["approved"])
		assert.Equal(t, int64(1), stats["pending"])
		assert.Equal(t, int64(0), stats["rejected"])
		assert.Equal(t, int64(2), stats["total"])
	})
}
