package setting_test

import (
	"testing"

	"github.com/Kyz7/portfolio/internal/models"
	"github.com/Kyz7/portfolio/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingHandlers(t *testing.T) {
	app := testutils.SetupTestApp(t)
	admin := testutils.CreateTestUser(t, app.DB, "admin", models.RoleAdmin)
	u := testutils.CreateTestUser(t, app.DB, "user", models.RoleUser)
	adminToken := testutils.GetAuthToken(t, admin.ID, admin.Role)
	userToken := testutils.GetAuthToken(t, u.ID, u.Role)

	list := func(t *testing.T) map[string]interface{} {
		resp, err := testutils.MakeRequest(app.App, "GET", "/api/settings", nil, "")
		require.NoError(t, err)
		require.Equal(t, 200, resp.Code)

		var result testutils.StandardResponse
		testutils.ParseResponse(t, resp, &result)
		if result.Data == nil {
			return map[string]interface{}{}
		}
		return result.Data.(map[string]interface{})
	}

	t.Run("Success - Empty settings are public", func(t *testing.T) {
		assert.Empty(t, list(t))
	})

	t.Run("Error - Set requires admin", func(t *testing.T) {
		resp, err := testutils.MakeRequest(app.App, "POST", "/api/settings", map[string]interface{}{"key": "title", "value": "Mine"}, userToken)
		require.NoError(t, err)
		assert.Equal(t, 403, resp.Code)

		resp, err = testutils.MakeRequest(app.App, "POST", "/api/settings", map[string]interface{}{"key": "title", "value": "Mine"}, "")
		require.NoError(t, err)
		assert.Equal(t, 401, resp.Code)
	})

	t.Run("Success - Set is visible on the next read", func(t *testing.T) {
		resp, err := testutils.MakeRequest(app.App, "POST", "/api/settings", map[string]interface{}{"key": "title", "value": "Portfolio"}, adminToken)
		require.NoError(t, err)
		assert.Equal(t, 200, resp.Code)
		assert.Equal(t, "Portfolio", list(t)["title"])

		resp, err = testutils.MakeRequest(app.App, "POST", "/api/settings", map[string]interface{}{"key": "title", "value": "Renamed"}, adminToken)
		require.NoError(t, err)
		assert.Equal(t, 200, resp.Code)
		assert.Equal(t, "Renamed", list(t)["title"])

		var count int64
		app.DB.Model(&models.Setting{}).Count(&count)
		assert.Equal(t, int64(1), count)
	})

	t.Run("Success - Non string values are stored as JSON text", func(t *testing.T) {
		resp, err := testutils.MakeRequest(app.App, "POST", "/api/settings", map[string]interface{}{"key": "page_size", "value": 12}, adminToken)
		require.NoError(t, err)
		assert.Equal(t, 200, resp.Code)

		resp, err = testutils.MakeRequest(app.App, "POST", "/api/settings", map[string]interface{}{"key": "maintenance", "value": false}, adminToken)
		require.NoError(t, err)
		assert.Equal(t, 200, resp.Code)

		got := list(t)
		assert.Equal(t, "12", got["page_size"])
		assert.Equal(t, "false", got["maintenance"])
	})

	t.Run("Error - Blank key", func(t *testing.T) {
		resp, err := testutils.MakeRequest(app.App, "POST", "/api/settings", map[string]interface{}{"key": "   ", "value": "x"}, adminToken)
		require.NoError(t, err)
		assert.Equal(t, 422, resp.Code)

		resp, err = testutils.MakeRequest(app.App, "POST", "/api/settings", map[string]interface{}{"value": "x"}, adminToken)
		require.NoError(t, err)
		assert.Equal(t, 422, resp.Code)
		testutils.AssertError(t, resp, "VALIDATION_ERROR")
	})
}
