package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"schoolfees_go/models"
	"schoolfees_go/storage"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scopeApp(auth *Auth) *fiber.App {
	app := fiber.New()
	app.Get("/scope", auth.JWTMiddleware(), func(c *fiber.Ctx) error {
		id, err := SchoolScope(c)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"school_id": id})
	})
	return app
}

func TestSchoolScope(t *testing.T) {
	users := storage.NewMemoryUserStore(
		models.User{BaseModel: models.BaseModel{ID: 1}, Username: "root", Role: models.RoleSuperAdmin, SchoolID: 1, Status: "active"},
		models.User{BaseModel: models.BaseModel{ID: 2}, Username: "admin", Role: models.RoleAdmin, SchoolID: 4, Status: "active"},
		models.User{BaseModel: models.BaseModel{ID: 3}, Username: "orphan", Role: models.RoleAdmin, Status: "active"},
	)
	auth := NewAuth("k", time.Hour, users)
	app := scopeApp(auth)

	tokenFor := func(id uint) string {
		u, err := users.FindActiveByID(context.Background(), id)
		require.NoError(t, err)
		tok, err := auth.GenerateToken(u)
		require.NoError(t, err)
		return tok
	}

	tests := []struct {
		name   string
		user   uint
		query  string
		status int
	}{
		{"admin pinned to own school", 2, "?schoolId=9", http.StatusOK},
		{"superadmin picks a school", 1, "?schoolId=9", http.StatusOK},
		{"superadmin bad school", 1, "?schoolId=x", http.StatusBadRequest},
		{"no school assigned", 3, "", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/scope"+tt.query, nil)
			req.Header.Set("Authorization", "Bearer "+tokenFor(tt.user))
			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	users := storage.NewMemoryUserStore(
		models.User{BaseModel: models.BaseModel{ID: 1}, Username: "admin", Role: models.RoleAdmin, SchoolID: 1, Status: "active"},
	)
	auth := NewAuth("k", time.Hour, users)
	auth.expiresIn = -time.Minute
	u, _ := users.FindActiveByID(context.Background(), 1)
	tok, err := auth.GenerateToken(u)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/scope", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	resp, err := scopeApp(auth).Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
