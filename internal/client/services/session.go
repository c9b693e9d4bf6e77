// Package services holds the client's application services: the session
// (who is shopping), order synchronization, cross-scope deletion and the
// cart.
package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/ordersync/internal/auth"
	"github.com/dmitrijs2005/ordersync/internal/client/client"
	"github.com/dmitrijs2005/ordersync/internal/client/identity"
	"github.com/dmitrijs2005/ordersync/internal/logging"
	"github.com/dmitrijs2005/ordersync/internal/models"
)

// IdentitySource hands out the identity the next operation acts as.
type IdentitySource interface {
	Current() models.Identity
}

// Wiper drops every piece of local state.
type Wiper interface {
	Clear(ctx context.Context) error
}

// SessionService owns the current identity.
//
// Contract:
//   - Current: the identity, never without a device id once started.
//   - SignIn: overlay a user; with a token the claims decide email and role.
//   - SignOut: drop the overlay, keep the device id.
//   - Wipe: clear all local data; a fresh device id is provisioned.
type SessionService interface {
	IdentitySource
	SignIn(ctx context.Context, email, name, token string) (models.Identity, error)
	SignOut(ctx context.Context) (models.Identity, error)
	Wipe(ctx context.Context) (models.Identity, error)
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

type sessionService struct {
	provider *identity.Provider
	client   client.Client
	wiper    Wiper
	log      logging.Logger

	mu      sync.RWMutex
	current models.Identity
}

// NewSessionService loads (provisioning if needed) the identity and passes
// its credentials to the store client.
func NewSessionService(ctx context.Context, provider *identity.Provider, c client.Client, wiper Wiper, log logging.Logger) (SessionService, error) {
	s := &sessionService{provider: provider, client: c, wiper: wiper, log: log.With("module", "session")}
	id, err := provider.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load identity: %w", err)
	}
	s.set(id)
	return s, nil
}

func (s *sessionService) set(id models.Identity) {
	s.mu.Lock()
	s.current = id
	s.mu.Unlock()

	token := ""
	if id.User != nil {
		token = id.User.Token
	}
	s.client.SetCredentials(id.DeviceID, token)
}

func (s *sessionService) Current() models.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

func (s *sessionService) SignIn(ctx context.Context, email, name, token string) (models.Identity, error) {
	user := models.AuthenticatedUser{ID: models.NormalizeEmail(email), DisplayName: name, Email: email, Role: models.RoleCustomer}
	if token != "" {
		claims, err := auth.PeekClaims(token)
		if err != nil {
			return models.Identity{}, fmt.Errorf("sign in: %w", err)
		}
		user = claims.User(token)
		if user.DisplayName == "" {
			user.DisplayName = name
		}
	}
	if models.NormalizeEmail(user.Email) == "" {
		return models.Identity{}, fmt.Errorf("sign in: email is required")
	}

	id, err := s.provider.SignIn(ctx, user)
	if err != nil {
		return models.Identity{}, fmt.Errorf("sign in: %w", err)
	}
	s.set(id)
	s.log.Info(ctx, "signed in", "email", id.Email(), "role", id.User.Role)
	return id, nil
}

func (s *sessionService) SignOut(ctx context.Context) (models.Identity, error) {
	id, err := s.provider.SignOut(ctx)
	if err != nil {
		return models.Identity{}, fmt.Errorf("sign out: %w", err)
	}
	s.set(id)
	return id, nil
}

// Wipe is the explicit "clear all data" action.
func (s *sessionService) Wipe(ctx context.Context) (models.Identity, error) {
	if err := s.wiper.Clear(ctx); err != nil {
		return models.Identity{}, fmt.Errorf("wipe local data: %w", err)
	}
	id, err := s.provider.Load(ctx)
	if err != nil {
		return models.Identity{}, fmt.Errorf("reload identity: %w", err)
	}
	s.set(id)
	s.log.Warn(ctx, "local data wiped", "device", id.DeviceID)
	return id, nil
}

func (s *sessionService) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}

func (s *sessionService) Close(ctx context.Context) error {
	return s.client.Close()
}
