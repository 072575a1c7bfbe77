package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"p9e.in/sitelog/internal/testdb"
	"p9e.in/sitelog/middleware"
	"p9e.in/sitelog/models"
	"p9e.in/sitelog/notify"
	"p9e.in/sitelog/repositories"
	"p9e.in/sitelog/storage"
)

type testEnv struct {
	db     *gorm.DB
	store  *repositories.Store
	blobs  *storage.LocalStore
	alerts *AlertService
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testdb.Open(t)
	store := repositories.NewStore(db)
	blobs, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	return &testEnv{
		db:     db,
		store:  store,
		blobs:  blobs,
		alerts: NewAlertService(store, notify.NewFanout(zap.NewNop())),
	}
}

func fixedClock(s string) func() time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return func() time.Time { return t.Add(10 * time.Hour) }
}

func jsonBody(t *testing.T, v interface{}) io.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(b)
}

// call runs h with u signed in and the given route variables.
func call(h http.HandlerFunc, method, target string, body io.Reader, u *models.User, vars map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	if body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	return serveRequest(h, req, u, vars)
}

func serveRequest(h http.HandlerFunc, req *http.Request, u *models.User, vars map[string]string) *httptest.ResponseRecorder {
	if u != nil {
		req = req.WithContext(middleware.WithUser(req.Context(), u))
	}
	if vars != nil {
		req = mux.SetURLVars(req, vars)
	}
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}
