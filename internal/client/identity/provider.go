// Package identity issues the anonymous device identifier and keeps the
// optional signed-in user overlay.
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/ordersync/internal/models"
)

const (
	deviceSlot = "device_id"
	userSlot   = "auth_user"
)

var ErrCorruptUser = errors.New("stored user is unreadable")

// Store is the slice of the slot store the provider needs.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

type Provider struct {
	store Store
	now   func() time.Time
	newID func() string
}

func NewProvider(store Store) *Provider {
	return &Provider{store: store, now: time.Now, newID: uuid.NewString}
}

// GetOrCreateDeviceID returns the persisted device id, provisioning and
// persisting a new one first if none exists. It never rotates an existing id.
func (p *Provider) GetOrCreateDeviceID(ctx context.Context) (string, error) {
	id, ok, err := p.PeekDeviceID(ctx)
	if err != nil {
		return "", err
	}
	if ok {
		return id, nil
	}

	id = fmt.Sprintf("dev-%d-%s", p.now().UnixMilli(), p.newID())
	if err := p.store.Set(ctx, deviceSlot, []byte(id)); err != nil {
		return "", fmt.Errorf("persist device id: %w", err)
	}
	return id, nil
}

// PeekDeviceID reads the device id without provisioning one.
func (p *Provider) PeekDeviceID(ctx context.Context) (string, bool, error) {
	raw, err := p.store.Get(ctx, deviceSlot)
	if err != nil {
		return "", false, fmt.Errorf("read device id: %w", err)
	}
	if len(raw) == 0 {
		return "", false, nil
	}
	return string(raw), true, nil
}

// Load builds the current identity, provisioning the device id if needed.
// An unreadable user overlay is dropped and the identity is anonymous.
func (p *Provider) Load(ctx context.Context) (models.Identity, error) {
	deviceID, err := p.GetOrCreateDeviceID(ctx)
	if err != nil {
		return models.Identity{}, err
	}

	user, err := p.user(ctx)
	if errors.Is(err, ErrCorruptUser) {
		_ = p.store.Delete(ctx, userSlot)
		return models.Identity{DeviceID: deviceID}, nil
	}
	if err != nil {
		return models.Identity{}, err
	}
	return models.Identity{DeviceID: deviceID, User: user}, nil
}

func (p *Provider) user(ctx context.Context) (*models.AuthenticatedUser, error) {
	raw, err := p.store.Get(ctx, userSlot)
	if err != nil {
		return nil, fmt.Errorf("read user: %w", err)
	}
	if len(raw) == 0 {
		return nil, nil
	}
	var u models.AuthenticatedUser
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptUser, err)
	}
	return &u, nil
}

// SignIn persists the user overlay. The device id is left untouched.
func (p *Provider) SignIn(ctx context.Context, user models.AuthenticatedUser) (models.Identity, error) {
	user.Email = models.NormalizeEmail(user.Email)
	raw, err := json.Marshal(user)
	if err != nil {
		return models.Identity{}, fmt.Errorf("encode user: %w", err)
	}
	if err := p.store.Set(ctx, userSlot, raw); err != nil {
		return models.Identity{}, fmt.Errorf("persist user: %w", err)
	}
	return p.Load(ctx)
}

func (p *Provider) SignOut(ctx context.Context) (models.Identity, error) {
	if err := p.store.Delete(ctx, userSlot); err != nil {
		return models.Identity{}, fmt.Errorf("remove user: %w", err)
	}
	return p.Load(ctx)
}

// Clear forgets the device id and the user overlay. The next
// GetOrCreateDeviceID provisions a new id.
func (p *Provider) Clear(ctx context.Context) error {
	var errs []error
	if err := p.store.Delete(ctx, userSlot); err != nil {
		errs = append(errs, err)
	}
	if err := p.store.Delete(ctx, deviceSlot); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("clear identity: %w", err)
	}
	return nil
}
