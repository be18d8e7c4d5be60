package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lms-api/internal/models"
	appErrors "github.com/noah-isme/lms-api/pkg/errors"
)

type stubValidator struct {
	claims *models.JWTClaims
	seen   string
}

func (s *stubValidator) ValidateToken(token string) (*models.JWTClaims, error) {
	s.seen = token
	if token != "good" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
	}
	return s.claims, nil
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/users/:id", append(handlers, func(c *gin.Context) {
		c.Status(http.StatusOK)
	})...)
	return r
}

func serve(r *gin.Engine, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestJWT(t *testing.T) {
	validator := &stubValidator{claims: &models.JWTClaims{UserID: "u1", Role: models.RoleStudent}}
	r := newRouter(JWT(validator))

	assert.Equal(t, http.StatusUnauthorized, serve(r, "/users/u1", "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, "/users/u1", "Basic abc").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, "/users/u1", "Bearer bad").Code)
	assert.Equal(t, http.StatusOK, serve(r, "/users/u1", "bearer good").Code)
	assert.Equal(t, "good", validator.seen)
}

func TestOptionalJWT(t *testing.T) {
	validator := &stubValidator{claims: &models.JWTClaims{UserID: "u1"}}
	var seen *models.JWTClaims
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/", OptionalJWT(validator), func(c *gin.Context) {
		seen = Claims(c)
		c.Status(http.StatusOK)
	})

	assert.Equal(t, http.StatusOK, serve(r, "/", "Bearer bad").Code)
	assert.Nil(t, seen)
	assert.Equal(t, http.StatusOK, serve(r, "/", "Bearer good").Code)
	require.NotNil(t, seen)
	assert.Equal(t, "u1", seen.UserID)
}

func TestRBAC(t *testing.T) {
	cases := []struct {
		name   string
		claims *models.JWTClaims
		path   string
		want   int
	}{
		{"admin allowed", &models.JWTClaims{UserID: "a", Role: models.RoleAdmin}, "/users/x", http.StatusOK},
		{"self allowed", &models.JWTClaims{UserID: "x", Role: models.RoleStudent}, "/users/x", http.StatusOK},
		{"other forbidden", &models.JWTClaims{UserID: "y", Role: models.RoleInstructor}, "/users/x", http.StatusForbidden},
		{"anonymous", nil, "/users/x", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			setClaims := func(c *gin.Context) {
				if tc.claims != nil {
					c.Set(ContextUserKey, tc.claims)
				}
			}
			r := newRouter(setClaims, RBAC(string(models.RoleAdmin), RoleSelf))
			assert.Equal(t, tc.want, serve(r, tc.path, "").Code)
		})
	}
}

func TestRequireRoles(t *testing.T) {
	setClaims := func(c *gin.Context) {
		c.Set(ContextUserKey, &models.JWTClaims{UserID: "x", Role: models.RoleInstructor})
	}
	r := newRouter(setClaims, RequireRoles(models.RoleAdmin))
	assert.Equal(t, http.StatusForbidden, serve(r, "/users/x", "").Code)
}

type recordingAudit struct {
	logs []*models.AuditLog
	err  error
}

func (r *recordingAudit) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	r.logs = append(r.logs, log)
	return r.err
}

func TestAuditRecordsSuccessOnly(t *testing.T) {
	audit := &recordingAudit{}
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/export", func(c *gin.Context) {
		c.Set(ContextUserKey, &models.JWTClaims{UserID: "admin"})
	}, Audit(audit, nil, models.AuditActionExport, "courses"), func(c *gin.Context) {
		if c.Query("fail") != "" {
			c.Status(http.StatusBadRequest)
			return
		}
		c.Status(http.StatusOK)
	})

	serve(r, "/export?fail=1", "")
	assert.Empty(t, audit.logs)

	serve(r, "/export?format=csv", "")
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionExport, audit.logs[0].Action)
	require.NotNil(t, audit.logs[0].UserID)
	assert.Equal(t, "admin", *audit.logs[0].UserID)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(audit.logs[0].NewValues, &body))
	assert.Equal(t, "format=csv", body["query"])

	audit.err = errors.New("db down")
	assert.Equal(t, http.StatusOK, serve(r, "/export", "").Code)
}

type recordingObserver struct {
	path   string
	status int
}

func (r *recordingObserver) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	r.path = path
	r.status = status
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	observer := &recordingObserver{}
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Metrics(observer))
	r.GET("/users/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	serve(r, "/users/123", "")
	assert.Equal(t, "/users/:id", observer.path)
	assert.Equal(t, http.StatusOK, observer.status)

	serve(r, "/nowhere", "")
	assert.Equal(t, "unmatched", observer.path)
	assert.Equal(t, http.StatusNotFound, observer.status)
}

func TestResponseMeta(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	assert.Nil(t, ExtractMeta(c))
	SetCacheHit(c, true)
	SetMeta(c, "counts", 3)
	meta := ExtractMeta(c)
	assert.Equal(t, true, meta["cache_hit"])
	assert.Equal(t, 3, meta["counts"])
}
