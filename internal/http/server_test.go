package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/seatgenie/library/internal/audit"
	"github.com/seatgenie/library/internal/database"
	auditrepo "github.com/seatgenie/library/internal/database/audit"
	"github.com/seatgenie/library/internal/database/authors"
	"github.com/seatgenie/library/internal/database/books"
	"github.com/seatgenie/library/internal/database/dbtest"
	"github.com/seatgenie/library/internal/database/loans"
	"github.com/seatgenie/library/internal/database/members"
	"github.com/seatgenie/library/internal/database/reports"
)

type testServer struct {
	router  *gin.Engine
	db      *database.Database
	audit   *audit.Service
	fixture *dbtest.Fixture
}

// newTestServer wires the full router over a fresh seeded database.
func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := dbtest.Open(t)
	fixture := dbtest.Seed(t, db.DB)
	auditService := audit.NewService(auditrepo.NewRepository(db.DB))
	t.Cleanup(auditService.Wait)

	router := NewRouter(RouterConfig{
		AuthorStore: authors.NewRepository(db.DB),
		MemberStore: members.NewRepository(db.DB),
		BookStore:   books.NewRepository(db.DB),
		LoanStore:   loans.NewRepository(db.DB),
		ReportStore: reports.NewRepository(db.DB, db.Dialect),
		Recorder:    auditService,
		AuditEvents: auditService,
		Database:    db,
		Version:     "test",
	})

	return &testServer{router: router, db: db, audit: auditService, fixture: fixture}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return serve(t, s.router, method, path, body)
}

func serve(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// decode unmarshals a response body into a generic map.
func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func dataOf(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	data, ok := decode(t, w)["data"].(map[string]any)
	require.True(t, ok, w.Body.String())
	return data
}

func listOf(t *testing.T, w *httptest.ResponseRecorder) ([]any, map[string]any) {
	t.Helper()
	body := decode(t, w)
	rows, ok := body["data"].([]any)
	require.True(t, ok, w.Body.String())
	meta, _ := body["meta"].(map[string]any)
	return rows, meta
}

func errorOf(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var out ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func stringsReader(s string) *bytes.Reader {
	return bytes.NewReader([]byte(s))
}
