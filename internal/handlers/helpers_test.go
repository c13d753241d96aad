package handlers_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/codrzexl/UniHub/internal/db"
	"github.com/codrzexl/UniHub/internal/middleware"
	"github.com/codrzexl/UniHub/internal/router"
	"github.com/codrzexl/UniHub/internal/search"
	"github.com/codrzexl/UniHub/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var testDBSeq atomic.Int64

func setupTestDB(t *testing.T) {
	t.Helper()

	dsn := fmt.Sprintf("file:api%d?mode=memory&cache=shared", testDBSeq.Add(1))
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	db.Migrate(conn)
	db.DB = conn
}

// newTestRouter stands up the full route table against a fresh database and
// search index.
func newTestRouter(t *testing.T) (*gin.Engine, *search.Index) {
	t.Helper()

	gin.SetMode(gin.TestMode)
	setupTestDB(t)

	// The response cache is process-global; stale entries must not cross tests.
	utils.GetCache().Delete("doubts:list:first")

	idx, err := search.New(filepath.Join(t.TempDir(), "index.bleve"))
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })

	r := gin.New()
	store := cookie.NewStore([]byte("test-secret"))
	r.Use(sessions.Sessions("unihub_session", store))
	r.Use(middleware.LoadUser())
	router.RegisterRoutes(r, idx)
	return r, idx
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// register creates an account through the API and returns its session cookies.
func register(t *testing.T, r *gin.Engine, username, role string) []*http.Cookie {
	t.Helper()

	body := fmt.Sprintf(`{"username":%q,"email":"%s@campus.edu","password":"secret123","role":%q}`,
		username, username, role)
	w := doJSON(t, r, http.MethodPost, "/api/auth/register", body, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return w.Result().Cookies()
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}
