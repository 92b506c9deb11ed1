package actors

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/agronova-labs/agronova/internal/access"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned on login with a wrong id or password.
// The two cases are deliberately indistinguishable to the caller.
var ErrInvalidCredentials = errors.New("invalid actor id or password")

const minPasswordLen = 8

// Service contains registration and login logic for actors.
type Service struct {
	reg    Registry
	logger *zap.Logger
}

// NewService creates an actor Service.
func NewService(reg Registry, logger *zap.Logger) *Service {
	return &Service{reg: reg, logger: logger}
}

// Register creates a new actor with a bcrypt-hashed password.
func (s *Service) Register(ctx context.Context, id, displayName, password string, role access.Role) (*Actor, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("actor id is required")
	}
	if len(password) < minPasswordLen {
		return nil, fmt.Errorf("password must be at least %d characters", minPasswordLen)
	}
	if _, err := access.ParseRole(string(role)); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	a := &Actor{
		ID:           id,
		Role:         role,
		DisplayName:  displayName,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.reg.Create(ctx, a); err != nil {
		return nil, err
	}

	s.logger.Info("actor registered",
		zap.String("actor_id", a.ID),
		zap.String("role", string(a.Role)),
	)
	return a, nil
}

// Login checks the actor's password and returns the actor on success.
func (s *Service) Login(ctx context.Context, id, password string) (*Actor, error) {
	a, err := s.reg.Get(ctx, strings.TrimSpace(id))
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return a, nil
}

// Get returns the registered actor with the given id.
func (s *Service) Get(ctx context.Context, id string) (*Actor, error) {
	return s.reg.Get(ctx, id)
}
