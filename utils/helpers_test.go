package utils

import (
	"regexp"
	"schoolfees_go/models"
	"testing"
	"time"
)

func TestGenerateReceiptNumber(t *testing.T) {
	at := time.Date(2024, 10, 3, 23, 30, 0, 0, time.FixedZone("UTC+1", 3600))
	got := GenerateReceiptNumber(at)
	if !regexp.MustCompile(`^RCP-20241003-[0-9A-F]{8}$`).MatchString(got) {
		t.Fatalf("unexpected receipt number %q", got)
	}
	if other := GenerateReceiptNumber(at); other == got {
		t.Fatalf("expected distinct receipt numbers, got %q twice", got)
	}
}

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if err := CheckPassword("s3cret", hash); err != nil {
		t.Fatalf("CheckPassword rejected the right password: %v", err)
	}
	if err := CheckPassword("wrong", hash); err == nil {
		t.Fatal("CheckPassword accepted a wrong password")
	}
}

func TestRoles(t *testing.T) {
	if !CanManageFees(models.RoleAdmin) || !CanManageFees(models.RoleSuperAdmin) {
		t.Fatal("admins must manage fees")
	}
	if CanManageFees(models.RoleTeacher) {
		t.Fatal("teachers must not manage fees")
	}
	if IsValidRole("owner") {
		t.Fatal("owner is not a role here")
	}
}
