package utils

import (
	"fmt"
	"schoolfees_go/models"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

// CheckPassword compares a password with its hash
func CheckPassword(password, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// GenerateReceiptNumber returns RCP-YYYYMMDD-XXXXXXXX for a payment taken at t.
func GenerateReceiptNumber(t time.Time) string {
	id := strings.ReplaceAll(uuid.New().String(), "-", "")
	return fmt.Sprintf("RCP-%s-%s", t.UTC().Format("20060102"), strings.ToUpper(id[:8]))
}

// IsValidRole checks if a role is valid
func IsValidRole(role string) bool {
	switch role {
	case models.RoleSuperAdmin, models.RoleAdmin, models.RoleTeacher, models.RoleStudent:
		return true
	}
	return false
}

// CanManageFees reports whether the role may change ledgers and pricing.
func CanManageFees(role string) bool {
	return role == models.RoleSuperAdmin || role == models.RoleAdmin
}

// SanitizeString removes dangerous characters from string
func SanitizeString(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")
	return strings.TrimSpace(input)
}
