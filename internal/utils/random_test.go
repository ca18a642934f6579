package utils

import (
	"strings"
	"testing"

	"github.com/hubshift/marketplace/backend/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

func TestGenerateUsernameFromName(t *testing.T) {
	username := GenerateUsernameFromName("Riley  Brown")
	if !strings.HasPrefix(username, "riley.brown") {
		t.Fatalf("expected a riley.brown prefix, got %q", username)
	}
	suffix := strings.TrimPrefix(username, "riley.brown")
	if len(suffix) < 1 || len(suffix) > 3 {
		t.Fatalf("expected one to three digits, got %q", suffix)
	}
}

func TestGenerateRandomProfessional(t *testing.T) {
	user, err := GenerateRandomProfessional("clippers", "pros.demo.hubshift.test")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if user.Role != domain.RoleProfessional || !user.IsActive {
		t.Fatalf("expected an active professional, got %+v", user)
	}
	if !strings.HasSuffix(user.Email, "@pros.demo.hubshift.test") {
		t.Fatalf("unexpected email %q", user.Email)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("clippers")); err != nil {
		t.Fatalf("expected the hash to match the password: %v", err)
	}
}
