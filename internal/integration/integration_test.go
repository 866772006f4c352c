package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snnyvrz/shelfshare-books/internal/config"
	"github.com/snnyvrz/shelfshare-books/internal/db"
	"github.com/snnyvrz/shelfshare-books/internal/handler"
	"github.com/snnyvrz/shelfshare-books/internal/metrics"
	"github.com/snnyvrz/shelfshare-books/internal/repository"
	"github.com/snnyvrz/shelfshare-books/internal/server"
)

var (
	testDB     *db.Database
	testRouter *gin.Engine
)

// TestMain runs against the database described by the BOOKS_ environment,
// falling back to a private in-memory sqlite database.
func TestMain(m *testing.M) {
	if os.Getenv("BOOKS_DB__DRIVER") == "" {
		os.Setenv("BOOKS_DB__PATH", "file:integration_"+uuid.New().String()+"?mode=memory&cache=shared")
	}

	cfg, err := config.FromEnv()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}
	cfg.App.GinMode = gin.TestMode
	gin.SetMode(gin.TestMode)

	ctx := context.Background()
	database, err := db.Open(ctx, cfg, zerolog.Nop())
	if err != nil {
		panic("failed to connect to test database: " + err.Error())
	}
	if err := database.Migrate(ctx); err != nil {
		panic("failed to migrate: " + err.Error())
	}
	testDB = database

	dialect, err := repository.DialectFor(cfg.DB.Driver)
	if err != nil {
		panic(err)
	}

	reg := prometheus.NewRegistry()
	repoMetrics, err := metrics.NewRepository(reg)
	if err != nil {
		panic(err)
	}

	testRouter, err = server.NewRouter(server.Deps{
		Config:    cfg,
		Logger:    zerolog.Nop(),
		Books:     repository.NewSQLBookRepository(database.SQL, dialect, zerolog.Nop(), repoMetrics),
		DB:        database.SQL,
		Gatherer:  reg,
		StartTime: time.Now(),
		Version:   "integration",
	})
	if err != nil {
		panic(err)
	}

	code := m.Run()
	_ = database.Close()
	os.Exit(code)
}

func resetDB(t *testing.T) {
	t.Helper()
	_, err := testDB.SQL.Exec("DELETE FROM books")
	require.NoError(t, err, "reset failed")
}

func send(t *testing.T, client *http.Client, method, url string, body any) (int, []byte) {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, url, r)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func decodeBook(t *testing.T, data []byte) handler.Book {
	t.Helper()
	var resp handler.BookResponse
	require.NoError(t, json.Unmarshal(data, &resp), string(data))
	return resp.Data
}

func TestBookLifecycle_BackendIntegration(t *testing.T) {
	resetDB(t)

	srv := httptest.NewServer(testRouter)
	defer srv.Close()
	client := srv.Client()

	status, data := send(t, client, http.MethodPost, srv.URL+"/api/books",
		map[string]string{"title": "Dune", "price": "12.50"})
	require.Equal(t, http.StatusCreated, status, string(data))
	created := decodeBook(t, data)
	require.NotZero(t, created.ID)
	bookURL := fmt.Sprintf("%s/api/books/%d", srv.URL, created.ID)

	status, data = send(t, client, http.MethodGet, bookURL, nil)
	require.Equal(t, http.StatusOK, status)
	got := decodeBook(t, data)
	assert.Equal(t, "Dune", got.Title)
	assert.True(t, decimal.RequireFromString("12.50").Equal(got.Price))

	status, data = send(t, client, http.MethodPut, bookURL,
		map[string]string{"title": "Dune", "price": "9.99"})
	require.Equal(t, http.StatusOK, status, string(data))

	status, data = send(t, client, http.MethodGet, bookURL, nil)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, decimal.RequireFromString("9.99").Equal(decodeBook(t, data).Price))

	status, _ = send(t, client, http.MethodDelete, bookURL, nil)
	require.Equal(t, http.StatusNoContent, status)

	status, _ = send(t, client, http.MethodGet, bookURL, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = send(t, client, http.MethodDelete, bookURL, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestListReturnsPersistedSet_BackendIntegration(t *testing.T) {
	resetDB(t)

	srv := httptest.NewServer(testRouter)
	defer srv.Close()
	client := srv.Client()

	want := map[string]string{"Dune": "12.5", "Emma": "7", "Ulysses": "21.99"}
	for title, price := range want {
		status, data := send(t, client, http.MethodPost, srv.URL+"/api/books",
			map[string]string{"title": title, "price": price})
		require.Equal(t, http.StatusCreated, status, string(data))
	}

	status, data := send(t, client, http.MethodGet, srv.URL+"/api/books", nil)
	require.Equal(t, http.StatusOK, status)

	var resp handler.ListBooksResponse
	require.NoError(t, json.Unmarshal(data, &resp))
	require.Len(t, resp.Data, len(want))
	for _, b := range resp.Data {
		price, ok := want[b.Title]
		require.True(t, ok, "unexpected book %q", b.Title)
		assert.True(t, decimal.RequireFromString(price).Equal(b.Price), b.Title)
	}
}

func TestUpdateMissingBookLeavesTableUntouched_BackendIntegration(t *testing.T) {
	resetDB(t)

	srv := httptest.NewServer(testRouter)
	defer srv.Close()
	client := srv.Client()

	status, _ := send(t, client, http.MethodPut, srv.URL+"/api/books/424242",
		map[string]string{"title": "Ghost", "price": "1.00"})
	require.Equal(t, http.StatusNotFound, status)

	status, data := send(t, client, http.MethodGet, srv.URL+"/api/books", nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"data":[]}`, string(data))
}
