package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/snnyvrz/shelfshare-books/internal/model"
	"github.com/snnyvrz/shelfshare-books/internal/repository"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := "file:testdb_" + uuid.New().String() + "?mode=memory&cache=shared"

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Discard})
	require.NoError(t, err, "failed to connect to test database")
	require.NoError(t, db.AutoMigrate(&model.Book{}), "failed to migrate test database")

	sqlDB, err := db.DB()
	require.NoError(t, err, "failed to get sql.DB from gorm")

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	return sqlDB
}

func setupTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	repo := repository.NewSQLBookRepository(setupTestDB(t), repository.SQLite, zerolog.Nop(), nil)
	return setupRouterWithRepo(repo)
}

func setupRouterWithRepo(repo repository.BookRepository) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	NewBookHandler(repo).RegisterRoutes(r.Group("/api"))

	return r
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}

	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), "body=%s", w.Body.String())
	return v
}

type fakeBookRepo struct {
	CreateFn     func(ctx context.Context, b *model.Book) (*model.Book, error)
	FindByIDFn   func(ctx context.Context, id int64) (*model.Book, bool, error)
	FindAllFn    func(ctx context.Context) ([]model.Book, error)
	UpdateFn     func(ctx context.Context, b *model.Book) (*model.Book, bool, error)
	DeleteByIDFn func(ctx context.Context, id int64) (bool, error)
}

func (f *fakeBookRepo) Create(ctx context.Context, b *model.Book) (*model.Book, error) {
	if f.CreateFn != nil {
		return f.CreateFn(ctx, b)
	}
	id := int64(1)
	b.ID = &id
	return b, nil
}

func (f *fakeBookRepo) FindByID(ctx context.Context, id int64) (*model.Book, bool, error) {
	if f.FindByIDFn != nil {
		return f.FindByIDFn(ctx, id)
	}
	return nil, false, nil
}

func (f *fakeBookRepo) FindAll(ctx context.Context) ([]model.Book, error) {
	if f.FindAllFn != nil {
		return f.FindAllFn(ctx)
	}
	return []model.Book{}, nil
}

func (f *fakeBookRepo) Update(ctx context.Context, b *model.Book) (*model.Book, bool, error) {
	if f.UpdateFn != nil {
		return f.UpdateFn(ctx, b)
	}
	return nil, false, nil
}

func (f *fakeBookRepo) DeleteByID(ctx context.Context, id int64) (bool, error) {
	if f.DeleteByIDFn != nil {
		return f.DeleteByIDFn(ctx, id)
	}
	return false, nil
}
