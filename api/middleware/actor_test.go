package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"example.com/guardian/services/monitor/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func actorTestRouter(captured *models.Actor) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/resolve", RequireActor(), func(c *gin.Context) {
		if actor, ok := ActorFromContext(c); ok {
			*captured = actor
		}
		c.Status(http.StatusOK)
	})
	return r
}

func TestRequireActorAcceptsValidHeaders(t *testing.T) {
	var captured models.Actor
	r := actorTestRouter(&captured)

	req := httptest.NewRequest(http.MethodPost, "/resolve", nil)
	req.Header.Set(HeaderActorRole, "caregiver")
	req.Header.Set(HeaderActorID, "42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, models.RoleCaregiver, captured.Role)
	require.Equal(t, uint(42), captured.ID)
}

func TestRequireActorRejectsBadIdentity(t *testing.T) {
	var captured models.Actor
	r := actorTestRouter(&captured)

	cases := []struct {
		name string
		role string
		id   string
	}{
		{"missing role", "", "42"},
		{"unknown role", "admin", "42"},
		{"missing id", "user", ""},
		{"non-numeric id", "user", "abc"},
		{"zero id", "user", "0"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/resolve", nil)
			if tc.role != "" {
				req.Header.Set(HeaderActorRole, tc.role)
			}
			if tc.id != "" {
				req.Header.Set(HeaderActorID, tc.id)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			require.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}
