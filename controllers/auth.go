package controllers

import (
	"context"
	"schoolfees_go/middleware"
	"schoolfees_go/models"
	"schoolfees_go/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// UserAccounts finds the accounts allowed to log in.
type UserAccounts interface {
	FindActiveByUsername(ctx context.Context, username string) (*models.User, error)
}

type AuthController struct {
	auth  *middleware.Auth
	users UserAccounts
}

func NewAuthController(auth *middleware.Auth, users UserAccounts) *AuthController {
	return &AuthController{auth: auth, users: users}
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Login authenticates a user and returns a JWT token
func (ac *AuthController) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}

	user, err := ac.users.FindActiveByUsername(c.UserContext(), utils.SanitizeString(req.Username))
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid credentials",
		})
	}

	if err := utils.CheckPassword(req.Password, user.Password); err != nil {
		logrus.WithField("username", user.Username).Warn("Failed login attempt")
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid credentials",
		})
	}

	token, err := ac.auth.GenerateToken(user)
	if err != nil {
		logrus.WithError(err).Error("Failed to sign token")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to generate token",
		})
	}

	logrus.WithFields(logrus.Fields{
		"user_id":   user.ID,
		"role":      user.Role,
		"school_id": user.SchoolID,
	}).Info("User logged in")

	return c.JSON(fiber.Map{
		"message":         "Login successful",
		"token":           token,
		"user":            utils.ToUserShort(*user),
		"can_manage_fees": utils.CanManageFees(user.Role),
	})
}

// GetProfile returns the current user's profile
func (ac *AuthController) GetProfile(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	return c.JSON(fiber.Map{
		"user": fiber.Map{
			"id":              user.ID,
			"username":        user.Username,
			"email":           user.Email,
			"name":            user.Name,
			"role":            user.Role,
			"school_id":       user.SchoolID,
			"school":          user.School,
			"status":          user.Status,
			"can_manage_fees": utils.CanManageFees(user.Role),
		},
	})
}
