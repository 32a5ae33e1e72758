package event_test

import (
	"fmt"
	"testing"

	"github.com/Kyz7/portfolio/internal/models"
	"github.com/Kyz7/portfolio/internal/registry"
	"github.com/Kyz7/portfolio/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventRegistration(t *testing.T) {
	app := testutils.SetupTestApp(t)
	alice := testutils.CreateTestUser(t, app.DB, "alice", models.RoleUser)
	bob := testutils.CreateTestUser(t, app.DB, "bob", models.RoleUser)
	aliceToken := testutils.GetAuthToken(t, alice.ID, alice.Role)
	bobToken := testutils.GetAuthToken(t, bob.ID, bob.Role)

	ev := testutils.CreateResource(t, app.DB, models.Resource{Type: registry.Event, Title: "Meetup"})
	article := testutils.CreateResource(t, app.DB, models.Resource{Type: registry.Article, Title: "Not an event"})
	path := fmt.Sprintf("/api/events/%d/register", ev.ID)

	register := func(t *testing.T, token string) map[string]interface{} {
		resp, err := testutils.MakeRequest(app.App, "POST", path, nil, token)
		require.NoError(t, err)
		require.Equal(t, 200, resp.Code)
		var result testutils.StandardResponse
		testutils.ParseResponse(t, resp, &result)
		return result.Data.(map[string]interface{})
	}

	t.Run("Success - Toggle registration", func(t *testing.T) {
		data := register(t, aliceToken)
		assert.Equal(t, true, data["registered"])
		assert.Equal(t, float64(1), data["total"])

		data = register(t, bobToken)
		assert.Equal(t, float64(2), data["total"])

		data = register(t, aliceToken)
		assert.Equal(t, false, data["registered"])
		assert.Equal(t, float64(1), data["total"])
	})

	t.Run("Success - Status", func(t *testing.T) {
		resp, err := testutils.MakeRequest(app.App, "GET", path, nil, bobToken)
		require.NoError(t, err)
		var result testutils.StandardResponse
		testutils.ParseResponse(t, resp, &result)
		data := result.Data.(map[string]interface{})
		assert.Equal(t, true, data["registered"])
		assert.Equal(t, float64(1), data["total"])
	})

	t.Run("Error - Not an event", func(t *testing.T) {
		resp, err := testutils.MakeRequest(app.App, "POST", fmt.Sprintf("/api/events/%d/register", article.ID), nil, aliceToken)
		require.NoError(t, err)
		assert.Equal(t, 404, resp.Code)
	})

	t.Run("Error - Anonymous", func(t *testing.T) {
		resp, err := testutils.MakeRequest(app.App, "POST", path, nil, "")
		require.NoError(t, err)
		assert.Equal(t, 401, resp.Code)
	})
}
