package leaderboard

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cobraclutchingit/rep-dash-sub001/internal/auth"
	"github.com/cobraclutchingit/rep-dash-sub001/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(svc *Service, identity auth.Identity) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		auth.SetIdentity(c, identity)
		c.Next()
	})

	r.GET("/api/leaderboards/:id/entries", ListEntriesHandler(svc))
	r.POST("/api/leaderboards/:id/entries", CreateEntryHandler(svc))
	r.POST("/api/leaderboards/:id/entries/import", BulkImportHandler(svc))
	r.PUT("/api/leaderboards/:id/entries/:entryId", UpdateEntryHandler(svc))
	r.DELETE("/api/leaderboards/:id/entries/:entryId", DeleteEntryHandler(svc))
	return r
}

func repIdentity() auth.Identity {
	position := models.PositionSalesRep
	return auth.Identity{UserID: 1, Role: models.RoleUser, Position: &position}
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var envelope map[string]interface{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	}
	return w, envelope
}

func TestBulkImportHandler(t *testing.T) {
	t.Run("it imports and reports the summary", func(t *testing.T) {
		store := newMemStore()
		board := store.addBoard("April Sales")
		u1 := store.addUser("Ana", "ana@example.com")
		r := newTestRouter(newTestService(store), repIdentity())

		body := fmt.Sprintf(`{
			"periodStart": "2025-04-01T00:00:00Z",
			"periodEnd": "2025-04-30T23:59:59Z",
			"entries": [
				{"userId": %d, "score": 100, "dealsClosed": 4},
				{"email": "nobody@x.com", "score": 5}
			]
		}`, u1)
		w, envelope := doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/leaderboards/%d/entries/import", board), body)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, true, envelope["success"])

		data := envelope["data"].(map[string]interface{})
		assert.Equal(t, "Bulk import completed", data["message"])
		results := data["results"].(map[string]interface{})
		assert.Equal(t, float64(1), results["success"])
		assert.Equal(t, float64(1), results["skipped"])
		assert.Equal(t, float64(0), results["failed"])
		errors := results["errors"].([]interface{})
		require.Len(t, errors, 1)
		assert.Contains(t, errors[0].(string), "nobody@x.com")
	})

	t.Run("it rejects a payload failing the schema", func(t *testing.T) {
		store := newMemStore()
		board := store.addBoard("April Sales")
		r := newTestRouter(newTestService(store), repIdentity())

		// entries must be non-empty
		body := `{"periodStart": "2025-04-01T00:00:00Z", "periodEnd": "2025-04-30T00:00:00Z", "entries": []}`
		w, envelope := doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/leaderboards/%d/entries/import", board), body)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, false, envelope["success"])
	})

	t.Run("it rejects an inverted period", func(t *testing.T) {
		store := newMemStore()
		board := store.addBoard("April Sales")
		r := newTestRouter(newTestService(store), repIdentity())

		body := `{"periodStart": "2025-05-01T00:00:00Z", "periodEnd": "2025-04-01T00:00:00Z", "entries": [{"score": 1}]}`
		w, _ := doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/leaderboards/%d/entries/import", board), body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("it 404s an unknown leaderboard", func(t *testing.T) {
		store := newMemStore()
		r := newTestRouter(newTestService(store), repIdentity())

		body := `{"periodStart": "2025-04-01T00:00:00Z", "periodEnd": "2025-04-30T00:00:00Z", "entries": [{"score": 1}]}`
		w, envelope := doJSON(t, r, http.MethodPost, "/api/leaderboards/999/entries/import", body)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, false, envelope["success"])
		assert.Equal(t, "Leaderboard not found", envelope["error"])
	})
}

func TestListEntriesHandler(t *testing.T) {
	t.Run("it returns ranked entries with public profiles", func(t *testing.T) {
		store := newMemStore()
		board := store.addBoard("April Sales")
		u1 := store.addUser("Ana", "ana@example.com")
		u2 := store.addUser("Ben", "ben@example.com")
		svc := newTestService(store)
		r := newTestRouter(svc, repIdentity())

		body := fmt.Sprintf(`{
			"periodStart": "2025-04-01T00:00:00Z",
			"periodEnd": "2025-04-30T23:59:59Z",
			"entries": [{"userId": %d, "score": 100}, {"userId": %d, "score": 50}]
		}`, u1, u2)
		w, _ := doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/leaderboards/%d/entries/import", board), body)
		require.Equal(t, http.StatusOK, w.Code)

		w, envelope := doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/leaderboards/%d/entries", board), "")
		require.Equal(t, http.StatusOK, w.Code)

		rows := envelope["data"].([]interface{})
		require.Len(t, rows, 2)
		first := rows[0].(map[string]interface{})
		assert.Equal(t, float64(1), first["rank"])
		assert.Equal(t, float64(100), first["score"])
		user := first["user"].(map[string]interface{})
		assert.Equal(t, "Ana", user["name"])
		assert.NotContains(t, user, "email")
		assert.NotContains(t, rows[0], "passwordHash")
	})

	t.Run("it filters by name substring, position and limit", func(t *testing.T) {
		store := newMemStore()
		board := store.addBoard("April Sales")
		u1 := store.addUser("Ana", "ana@example.com")
		u2 := store.addUser("Ben", "ben@example.com")
		lead := store.users[u2]
		position := models.PositionTeamLead
		lead.Position = &position
		store.users[u2] = lead
		svc := newTestService(store)
		r := newTestRouter(svc, repIdentity())

		body := fmt.Sprintf(`{
			"periodStart": "2025-04-01T00:00:00Z",
			"periodEnd": "2025-04-30T23:59:59Z",
			"entries": [{"userId": %d, "score": 100}, {"userId": %d, "score": 50}]
		}`, u1, u2)
		w, _ := doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/leaderboards/%d/entries/import", board), body)
		require.Equal(t, http.StatusOK, w.Code)

		w, envelope := doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/leaderboards/%d/entries?search=an", board), "")
		require.Equal(t, http.StatusOK, w.Code)
		rows := envelope["data"].([]interface{})
		require.Len(t, rows, 1)
		assert.Equal(t, "Ana", rows[0].(map[string]interface{})["user"].(map[string]interface{})["name"])

		w, envelope = doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/leaderboards/%d/entries?position=%s", board, models.PositionTeamLead), "")
		require.Equal(t, http.StatusOK, w.Code)
		rows = envelope["data"].([]interface{})
		require.Len(t, rows, 1)
		assert.Equal(t, "Ben", rows[0].(map[string]interface{})["user"].(map[string]interface{})["name"])

		w, envelope = doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/leaderboards/%d/entries?limit=1", board), "")
		require.Equal(t, http.StatusOK, w.Code)
		rows = envelope["data"].([]interface{})
		require.Len(t, rows, 1)
		assert.Equal(t, float64(1), rows[0].(map[string]interface{})["rank"])
	})

	t.Run("it rejects bad filter values", func(t *testing.T) {
		store := newMemStore()
		board := store.addBoard("April Sales")
		r := newTestRouter(newTestService(store), repIdentity())

		w, _ := doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/leaderboards/%d/entries?limit=0", board), "")
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w, _ = doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/leaderboards/%d/entries?position=INTERN", board), "")
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w, _ = doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/leaderboards/%d/entries?from=yesterday", board), "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("it 404s an unknown leaderboard", func(t *testing.T) {
		store := newMemStore()
		r := newTestRouter(newTestService(store), repIdentity())

		w, envelope := doJSON(t, r, http.MethodGet, "/api/leaderboards/42/entries", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, false, envelope["success"])
		assert.Equal(t, "Leaderboard not found", envelope["error"])
	})

	t.Run("a position-scoped board is hidden from a positionless caller", func(t *testing.T) {
		store := newMemStore()
		board := store.addBoard("Managers Only")
		scoped := store.boards[board]
		scoped.VisibleToPositions = []string{models.PositionManager}
		store.boards[board] = scoped

		identity := auth.Identity{UserID: 1, Role: models.RoleUser} // no position
		r := newTestRouter(newTestService(store), identity)

		w, _ := doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/leaderboards/%d/entries", board), "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("a manager bypasses visibility scoping", func(t *testing.T) {
		store := newMemStore()
		board := store.addBoard("Managers Only")
		scoped := store.boards[board]
		scoped.VisibleToPositions = []string{models.PositionExecutive}
		store.boards[board] = scoped

		identity := auth.Identity{UserID: 1, Role: models.RoleAdmin, Manager: true}
		r := newTestRouter(newTestService(store), identity)

		w, _ := doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/leaderboards/%d/entries", board), "")
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestEntryHandlers(t *testing.T) {
	t.Run("strict create conflicts on a covered period", func(t *testing.T) {
		store := newMemStore()
		board := store.addBoard("April Sales")
		u1 := store.addUser("Ana", "ana@example.com")
		r := newTestRouter(newTestService(store), repIdentity())

		body := fmt.Sprintf(`{
			"userId": %d, "score": 10,
			"periodStart": "2025-04-01T00:00:00Z", "periodEnd": "2025-04-30T00:00:00Z"
		}`, u1)
		w, _ := doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/leaderboards/%d/entries", board), body)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		w, envelope := doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/leaderboards/%d/entries", board), body)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, false, envelope["success"])
	})

	t.Run("create rejects a body without a score", func(t *testing.T) {
		store := newMemStore()
		board := store.addBoard("April Sales")
		u1 := store.addUser("Ana", "ana@example.com")
		r := newTestRouter(newTestService(store), repIdentity())

		body := fmt.Sprintf(`{
			"userId": %d,
			"periodStart": "2025-04-01T00:00:00Z", "periodEnd": "2025-04-30T00:00:00Z"
		}`, u1)
		w, envelope := doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/leaderboards/%d/entries", board), body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "score is required", envelope["error"])
	})

	t.Run("create accepts an explicit zero score", func(t *testing.T) {
		store := newMemStore()
		board := store.addBoard("April Sales")
		u1 := store.addUser("Ana", "ana@example.com")
		r := newTestRouter(newTestService(store), repIdentity())

		body := fmt.Sprintf(`{
			"userId": %d, "score": 0,
			"periodStart": "2025-04-01T00:00:00Z", "periodEnd": "2025-04-30T00:00:00Z"
		}`, u1)
		w, envelope := doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/leaderboards/%d/entries", board), body)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		data := envelope["data"].(map[string]interface{})
		assert.Equal(t, float64(0), data["score"])
	})

	t.Run("delete returns 404 for an unknown entry", func(t *testing.T) {
		store := newMemStore()
		board := store.addBoard("April Sales")
		r := newTestRouter(newTestService(store), repIdentity())

		w, _ := doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/leaderboards/%d/entries/777", board), "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
