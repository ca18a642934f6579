package utils

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/hubshift/marketplace/backend/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

var firstNames = []string{
	"Alex", "Sam", "Jordan", "Riley", "Taylor", "Casey", "Morgan", "Jamie", "Quinn", "Avery",
	"Mia", "Noah", "Leo", "Zara", "Ivy", "Kai", "Ruby", "Theo", "Nina", "Omar",
}

var lastNames = []string{
	"Nguyen", "Smith", "Brown", "Wilson", "Taylor", "Costa", "Park", "Singh", "Kelly", "Martin",
	"Lee", "Walker", "Hall", "Young", "King", "Wright", "Lopez", "Hill", "Green", "Baker",
}

var digits = "0123456789"

func GenerateRandomName() string {
	return firstNames[rand.Intn(len(firstNames))] + " " + lastNames[rand.Intn(len(lastNames))]
}

// GenerateUsernameFromName lowercases the name, joins it with a dot and adds
// a short numeric suffix so repeated names stay unique.
func GenerateUsernameFromName(name string) string {
	username := strings.ToLower(strings.Join(strings.Fields(name), "."))

	digitsLength := rand.Intn(3) + 1
	for i := 0; i < digitsLength; i++ {
		username += string(digits[rand.Intn(len(digits))])
	}

	return username
}

// GenerateRandomProfessional builds an active professional with a bcrypt hash of password.
func GenerateRandomProfessional(password string, emailDomainName string) (*domain.User, error) {
	fullName := GenerateRandomName()
	username := GenerateUsernameFromName(fullName)
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:     username,
		PasswordHash: string(passwordHash),
		FullName:     fullName,
		Email:        fmt.Sprintf("%s@%s", username, emailDomainName),
		Role:         domain.RoleProfessional,
		IsActive:     true,
	}

	return user, nil
}
