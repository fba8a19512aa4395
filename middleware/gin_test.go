package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MrEthical07/authcore"
	"github.com/gin-gonic/gin"
)

func newGinRouter(auth Authenticator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	g := r.Group("/api", GinGuard(auth))
	g.GET("/me", func(c *gin.Context) {
		claims, _ := GinClaims(c)
		fromCtx, _ := ClaimsFromContext(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"id": claims.PrincipalID, "same": fromCtx == claims})
	})
	g.POST("/reports/:id/approve", GinRequire(auth, authcore.CapApproveReport), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func TestGinGuardAndRequire(t *testing.T) {
	r := newGinRouter(newFakeAuth())

	cases := []struct {
		name, method, path, header string
		want                       int
	}{
		{"me without token", http.MethodGet, "/api/me", "", http.StatusUnauthorized},
		{"me with token", http.MethodGet, "/api/me", "Bearer mentor-token", http.StatusOK},
		{"approve as mentor", http.MethodPost, "/api/reports/1/approve", "Bearer mentor-token", http.StatusForbidden},
		{"approve as advisor", http.MethodPost, "/api/reports/1/approve", "Bearer advisor-token", http.StatusNoContent},
		{"approve bad token", http.MethodPost, "/api/reports/1/approve", "Bearer junk", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tc.want, rec.Body.String())
			}
		})
	}
}

func TestGinMeExposesClaims(t *testing.T) {
	r := newGinRouter(newFakeAuth())
	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Bearer advisor-token")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Body.String(); got != `{"id":"p1","same":true}` {
		t.Fatalf("unexpected body %s", got)
	}
}
