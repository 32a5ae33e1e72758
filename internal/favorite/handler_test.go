package favorite_test

import (
	"fmt"
	"testing"

	"github.com/Kyz7/portfolio/internal/models"
	"github.com/Kyz7/portfolio/internal/registry"
	"github.com/Kyz7/portfolio/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFavoriteHandlers(t *testing.T) {
	app := testutils.SetupTestApp(t)
	u := testutils.CreateTestUser(t, app.DB, "fan", models.RoleUser)
	token := testutils.GetAuthToken(t, u.ID, u.Role)

	song := testutils.CreateResource(t, app.DB, models.Resource{Type: registry.Music, Title: "Song", FileURL: "/uploads/s.mp3"})
	photo := testutils.CreateResource(t, app.DB, models.Resource{Type: registry.Photo, Title: "Pic", FileURL: "/uploads/p.jpg"})

	toggle := func(t *testing.T, typ string, id uint) bool {
		resp, err := testutils.MakeRequest(app.App, "POST", "/api/favorites", map[string]interface{}{
			"resource_type": typ,
			"resource_id":   id,
		}, token)
		require.NoError(t, err)
		require.Equal(t, 200, resp.Code)

		var result testutils.StandardResponse
		testutils.ParseResponse(t, resp, &result)
		return result.Data.(map[string]interface{})["favorited"].(bool)
	}

	t.Run("Error - Anonymous toggle", func(t *testing.T) {
		resp, err := testutils.MakeRequest(app.App, "POST", "/api/favorites", map[string]interface{}{
			"resource_type": "music",
			"resource_id":   song.ID,
		}, "")
		require.NoError(t, err)
		assert.Equal(t, 401, resp.Code)
	})

	t.Run("Success - Toggle adds and removes", func(t *testing.T) {
		assert.True(t, toggle(t, "music", song.ID))
		assert.False(t, toggle(t, "music", song.ID))
		assert.True(t, toggle(t, "music", song.ID))
		assert.True(t, toggle(t, "photos", photo.ID))
	})

	t.Run("Error - Toggle with mismatched type", func(t *testing.T) {
		resp, err := testutils.MakeRequest(app.App, "POST", "/api/favorites", map[string]interface{}{
			"resource_type": "video",
			"resource_id":   song.ID,
		}, token)
		require.NoError(t, err)
		assert.Equal(t, 404, resp.Code)
	})

	t.Run("Error - Toggle with unsupported type", func(t *testing.T) {
		resp, err := testutils.MakeRequest(app.App, "POST", "/api/favorites", map[string]interface{}{
			"resource_type": "game",
			"resource_id":   song.ID,
		}, token)
		require.NoError(t, err)
		assert.Equal(t, 422, resp.Code)
	})

	t.Run("Success - List with details and type filter", func(t *testing.T) {
		resp, err := testutils.MakeRequest(app.App, "GET", "/api/favorites", nil, token)
		require.NoError(t, err)
		var result testutils.StandardResponse
		testutils.ParseResponse(t, resp, &result)
		items := result.Data.([]interface{})
		require.Len(t, items, 2)
		first := items[0].(map[string]interface{})
		assert.Equal(t, "Pic", first["title"])
		assert.Equal(t, "/uploads/p.jpg", first["url"])

		resp, err = testutils.MakeRequest(app.App, "GET", "/api/favorites?type=music", nil, token)
		require.NoError(t, err)
		testutils.ParseResponse(t, resp, &result)
		assert.Len(t, result.Data.([]interface{}), 1)
	})

	t.Run("Success - Check", func(t *testing.T) {
		resp, err := testutils.MakeRequest(app.App, "GET", fmt.Sprintf("/api/favorites/%d", song.ID), nil, token)
		require.NoError(t, err)
		var result testutils.StandardResponse
		testutils.ParseResponse(t, resp, &result)
		assert.Equal(t, true, result.Data.(map[string]interface{})["favorited"])
	})

	t.Run("Success - Listing marks favorites for the caller", func(t *testing.T) {
		resp, err := testutils.MakeRequest(app.App, "GET", "/api/music", nil, token)
		require.NoError(t, err)
		var result testutils.StandardResponse
		testutils.ParseResponse(t, resp, &result)
		items := result.Data.([]interface{})
		require.Len(t, items, 1)
		assert.Equal(t, true, items[0].(map[string]interface{})["favorited"])
	})

	t.Run("Success - Trashed resources drop out of the list", func(t *testing.T) {
		require.NoError(t, app.DB.Delete(photo).Error)

		resp, err := testutils.MakeRequest(app.App, "GET", "/api/favorites", nil, token)
		require.NoError(t, err)
		var result testutils.StandardResponse
		testutils.ParseResponse(t, resp, &result)
		assert.Len(t, result.Data.([]interface{}), 1)
	})
}
