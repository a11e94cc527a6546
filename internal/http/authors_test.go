package http

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seatgenie/library/internal/entities"
)

func TestAuthorsController_CRUD(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/authors", map[string]any{"name": "Iris Vale", "bio": "Poet"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := dataOf(t, w)
	assert.Equal(t, "Iris Vale", created["name"])
	assert.Equal(t, "Poet", created["bio"])
	id := uint(created["id"].(float64))

	w = s.do(t, http.MethodGet, fmt.Sprintf("/api/authors/%d", id), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Iris Vale", dataOf(t, w)["name"])

	w = s.do(t, http.MethodPut, fmt.Sprintf("/api/authors/%d", id), map[string]any{"name": "Iris V. Vale"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := dataOf(t, w)
	assert.Equal(t, "Iris V. Vale", updated["name"])
	assert.Nil(t, updated["bio"])

	w = s.do(t, http.MethodDelete, fmt.Sprintf("/api/authors/%d", id), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())

	w = s.do(t, http.MethodGet, fmt.Sprintf("/api/authors/%d", id), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Author not found", errorOf(t, w).Error)
}

func TestAuthorsController_List(t *testing.T) {
	s := newTestServer(t)

	for _, name := range []string{"Ada Byrne", "Cole Marsh"} {
		w := s.do(t, http.MethodPost, "/api/authors", map[string]any{"name": name})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	t.Run("defaults to newest first", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/api/authors", nil)
		require.Equal(t, http.StatusOK, w.Code)
		rows, meta := listOf(t, w)
		require.Len(t, rows, 3)
		assert.Equal(t, "Cole Marsh", rows[0].(map[string]any)["name"])
		assert.EqualValues(t, 3, meta["total"])
		assert.EqualValues(t, 25, meta["limit"])
		assert.EqualValues(t, 0, meta["offset"])
		for _, key := range []string{"q", "sortBy", "sortOrder"} {
			value, present := meta[key]
			assert.True(t, present, key)
			assert.Nil(t, value, key)
		}
	})

	t.Run("sorts and paginates", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/api/authors?sortBy=name&sortOrder=asc&limit=1&offset=1", nil)
		require.Equal(t, http.StatusOK, w.Code)
		rows, meta := listOf(t, w)
		require.Len(t, rows, 1)
		assert.Equal(t, "Cole Marsh", rows[0].(map[string]any)["name"])
		assert.EqualValues(t, 3, meta["total"])
		assert.Equal(t, "name", meta["sortBy"])
		assert.Equal(t, "asc", meta["sortOrder"])
		assert.Nil(t, meta["q"])
	})

	t.Run("searches name and bio", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/api/authors?q=stars", nil)
		require.Equal(t, http.StatusOK, w.Code)
		rows, meta := listOf(t, w)
		require.Len(t, rows, 1)
		assert.Equal(t, "stars", meta["q"])
		assert.Equal(t, s.fixture.Author.Name, rows[0].(map[string]any)["name"])
	})

	t.Run("rejects invalid paging and sort", func(t *testing.T) {
		for _, query := range []string{"limit=0", "limit=101", "offset=-1", "sortBy=bio", "sortOrder=up", "limit=abc"} {
			w := s.do(t, http.MethodGet, "/api/authors?"+query, nil)
			assert.Equal(t, http.StatusBadRequest, w.Code, query)
			assert.Equal(t, CodeValidation, errorOf(t, w).Code, query)
		}
	})
}

func TestAuthorsController_Validation(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name  string
		body  any
		field string
		rule  string
	}{
		{"missing name", map[string]any{"bio": "x"}, "name", "required"},
		{"blank name", map[string]any{"name": "   "}, "name", "notblank"},
		{"unknown field", map[string]any{"name": "A", "nickname": "B"}, "nickname", "unknown"},
		{"wrong type", map[string]any{"name": 42}, "name", "type"},
		{"malformed body", "{", "body", "malformed JSON"},
		{"truncated body", `{"name":`, "body", "malformed JSON"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodPost, "/api/authors", tt.body)
			require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			resp := errorOf(t, w)
			assert.Equal(t, "Validation failed", resp.Error)
			assert.Equal(t, CodeValidation, resp.Code)
			details, ok := resp.Details.(map[string]any)
			require.True(t, ok)
			assert.Equal(t, tt.rule, details[tt.field])
		})
	}
}

func TestAuthorsController_InvalidAndMissingIDs(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/api/authors/abc", "/api/authors/0", "/api/authors/-3"} {
		w := s.do(t, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
		resp := errorOf(t, w)
		assert.Equal(t, CodeInvalidID, resp.Code)
		assert.Equal(t, "Invalid author id", resp.Error)
	}

	w := s.do(t, http.MethodPut, "/api/authors/9999", map[string]any{"name": "Ghost"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = s.do(t, http.MethodDelete, "/api/authors/9999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, CodeNotFound, errorOf(t, w).Code)
}

func TestAuthorsController_DeleteKeepsBooks(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodDelete, fmt.Sprintf("/api/authors/%d", s.fixture.Author.ID), nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(t, http.MethodGet, fmt.Sprintf("/api/books/%d", s.fixture.Books[0].ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	book := dataOf(t, w)
	assert.Nil(t, book["author_id"])
	assert.Nil(t, book["author_name"])
}

func TestAuthorsController_RecordsAudit(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/authors", map[string]any{"name": "Iris Vale"})
	require.Equal(t, http.StatusCreated, w.Code)
	s.audit.Wait()

	events, total, err := s.audit.GetEvents(entities.AuditEventCreate, 10, 0)
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	assert.Equal(t, "author_create", events[0].Action)
	assert.Equal(t, "author", events[0].EntityType)
	assert.NotEmpty(t, events[0].RequestID)
	assert.Equal(t, "anonymous", events[0].Actor)
}
