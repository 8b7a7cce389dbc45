package app

import (
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/Cossomoj/RAG-agent-sub000/internal/pkg/jwtutil"
)

// AdminService authenticates the single operator account that may clear the
// answer cache and trigger reindexing.
type AdminService struct {
	username     string
	passwordHash string
	jwtSecret    string
	jwtExpire    time.Duration
}

func NewAdminService(username, passwordHash, jwtSecret string, jwtExpire time.Duration) *AdminService {
	if jwtExpire <= 0 {
		jwtExpire = 2 * time.Hour
	}
	return &AdminService{
		username:     username,
		passwordHash: passwordHash,
		jwtSecret:    jwtSecret,
		jwtExpire:    jwtExpire,
	}
}

func (s *AdminService) Login(username, password string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return "", ErrInvalidInput
	}
	if username != s.username || s.passwordHash == "" {
		return "", ErrInvalidCredential
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.passwordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredential
	}
	return jwtutil.GenerateToken(s.jwtSecret, username, s.jwtExpire)
}
