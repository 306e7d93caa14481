package middleware

import (
	"context"
	"schoolfees_go/models"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
)

type Claims struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	SchoolID uint   `json:"school_id"`
	jwt.RegisteredClaims
}

// UserFinder resolves the account behind a token.
type UserFinder interface {
	FindActiveByID(ctx context.Context, id uint) (*models.User, error)
}

// Auth issues and checks HS256 tokens.
type Auth struct {
	secret    []byte
	expiresIn time.Duration
	users     UserFinder
}

func NewAuth(secret string, expiresIn time.Duration, users UserFinder) *Auth {
	if expiresIn <= 0 {
		expiresIn = 24 * time.Hour
	}
	return &Auth{secret: []byte(secret), expiresIn: expiresIn, users: users}
}

// GenerateToken creates a new JWT token for a user
func (a *Auth) GenerateToken(user *models.User) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
		SchoolID: user.SchoolID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(a.expiresIn)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// JWTMiddleware validates JWT tokens
func (a *Auth) JWTMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing authorization header",
			})
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid authorization header format",
			})
		}

		token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fiber.NewError(fiber.StatusUnauthorized, "unexpected signing method")
			}
			return a.secret, nil
		})
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid token",
			})
		}

		claims, ok := token.Claims.(*Claims)
		if !ok || !token.Valid {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid token claims",
			})
		}

		// Verify user still exists and is active
		user, err := a.users.FindActiveByID(c.UserContext(), claims.UserID)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "User not found or inactive",
			})
		}

		c.Locals("user", user)
		c.Locals("claims", claims)

		return c.Next()
	}
}

// RequireRole middleware checks if user has required role
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := c.Locals("claims").(*Claims)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing user claims",
			})
		}

		for _, role := range roles {
			if claims.Role == role {
				return c.Next()
			}
		}

		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Insufficient permissions",
		})
	}
}

// RequireFeeManager allows the roles that may change fee records.
func RequireFeeManager() fiber.Handler {
	return RequireRole(models.RoleSuperAdmin, models.RoleAdmin)
}

// RequireFeeReader additionally lets teachers read fee records.
func RequireFeeReader() fiber.Handler {
	return RequireRole(models.RoleSuperAdmin, models.RoleAdmin, models.RoleTeacher)
}

// GetCurrentUser returns the current authenticated user
func GetCurrentUser(c *fiber.Ctx) (*models.User, error) {
	user, ok := c.Locals("user").(*models.User)
	if !ok {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "User not found in context")
	}
	return user, nil
}

// GetCurrentClaims returns the current JWT claims
func GetCurrentClaims(c *fiber.Ctx) (*Claims, error) {
	claims, ok := c.Locals("claims").(*Claims)
	if !ok {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "Claims not found in context")
	}
	return claims, nil
}

// SchoolScope returns the school a request acts on. Users are pinned to the
// school in their token; a superadmin may pick another with ?schoolId.
func SchoolScope(c *fiber.Ctx) (uint, error) {
	claims, err := GetCurrentClaims(c)
	if err != nil {
		return 0, err
	}
	if claims.Role == models.RoleSuperAdmin {
		if raw := c.Query("schoolId"); raw != "" {
			id, err := strconv.ParseUint(raw, 10, 32)
			if err != nil || id == 0 {
				return 0, fiber.NewError(fiber.StatusBadRequest, "Invalid school ID")
			}
			return uint(id), nil
		}
	}
	if claims.SchoolID == 0 {
		return 0, fiber.NewError(fiber.StatusForbidden, "No school assigned to this account")
	}
	return claims.SchoolID, nil
}
