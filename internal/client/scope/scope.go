// Package scope defines the keys local caches are namespaced by.
//
// A Key is one of Device(id), Email(addr), Guest or All. String and Parse
// are the only encoding of a key to and from storage; no other code builds
// scope strings by hand.
package scope

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/ordersync/internal/models"
)

var ErrInvalidKey = errors.New("invalid scope key")

type Kind int

const (
	KindGuest Kind = iota
	KindDevice
	KindEmail
	KindAll
)

func (k Kind) String() string {
	switch k {
	case KindDevice:
		return "device"
	case KindEmail:
		return "email"
	case KindAll:
		return "all"
	default:
		return "guest"
	}
}

// Key is comparable and safe to use as a map key.
type Key struct {
	kind  Kind
	value string
}

func Device(id string) Key { return Key{kind: KindDevice, value: id} }

func Email(addr string) Key { return Key{kind: KindEmail, value: models.NormalizeEmail(addr)} }

var (
	Guest = Key{kind: KindGuest}
	All   = Key{kind: KindAll}
)

func (k Key) Kind() Kind { return k.kind }

// Value is the device id or email, empty for Guest and All.
func (k Key) Value() string { return k.value }

func (k Key) String() string {
	switch k.kind {
	case KindDevice, KindEmail:
		return k.kind.String() + ":" + k.value
	default:
		return k.kind.String()
	}
}

func Parse(s string) (Key, error) {
	switch s {
	case "guest":
		return Guest, nil
	case "all":
		return All, nil
	}

	kind, value, ok := strings.Cut(s, ":")
	if !ok || value == "" {
		return Key{}, fmt.Errorf("%w: %q", ErrInvalidKey, s)
	}
	switch kind {
	case "device":
		return Device(value), nil
	case "email":
		return Email(value), nil
	}
	return Key{}, fmt.Errorf("%w: %q", ErrInvalidKey, s)
}

// Resolve picks the scope the identity reads and writes its own history
// under.
func Resolve(id models.Identity) Key {
	if id.DeviceID != "" {
		return Device(id.DeviceID)
	}
	return Guest
}

// Candidates lists every scope the identity's history may have been cached
// under by earlier sessions, resolved scope first.
func Candidates(id models.Identity) []Key {
	keys := []Key{Resolve(id)}
	if email := id.Email(); email != "" {
		keys = append(keys, Email(email))
	}
	if keys[0] != Guest {
		keys = append(keys, Guest)
	}
	return keys
}

// Matches reports whether order belongs to the scope. Records without an
// owner device fall back to the contact email.
func (k Key) Matches(o models.Order) bool {
	email := models.NormalizeEmail(o.Contact.Email)
	switch k.kind {
	case KindAll:
		return true
	case KindDevice:
		return o.OwnerDeviceID == k.value
	case KindEmail:
		return o.OwnerDeviceID == "" && email == k.value
	default:
		return o.OwnerDeviceID == "" && email == ""
	}
}

// Filter returns the orders that match k, preserving order.
func (k Key) Filter(orders []models.Order) []models.Order {
	out := make([]models.Order, 0, len(orders))
	for _, o := range orders {
		if k.Matches(o) {
			out = append(out, o)
		}
	}
	return out
}

// Targets lists the scopes a deleted order can be cached under: the global
// scope, its owner device, its contact email and guest.
func Targets(o models.Order) []Key {
	keys := []Key{All}
	if o.OwnerDeviceID != "" {
		keys = append(keys, Device(o.OwnerDeviceID))
	}
	if o.Contact.Email != "" {
		keys = append(keys, Email(o.Contact.Email))
	}
	return append(keys, Guest)
}
