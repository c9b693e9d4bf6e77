package cli

import (
	"context"
	"fmt"
)

func (a *App) Whoami(ctx context.Context) error {
	id := a.session.Current()
	fmt.Fprintf(a.out, "device: %s\n", id.DeviceID)
	if id.User == nil {
		fmt.Fprintln(a.out, "signed in: no (guest)")
		return nil
	}
	fmt.Fprintf(a.out, "signed in: %s <%s> as %s\n", id.User.DisplayName, id.User.Email, id.User.Role)
	return nil
}

// SignIn asks for an email, an optional display name and an optional bearer
// token. With a token, its claims decide email and role.
func (a *App) SignIn(ctx context.Context) error {
	email, err := GetSimpleText(a.reader, "Email (leave empty when signing in with a token)", a.out)
	if err != nil {
		return err
	}
	name, err := GetSimpleText(a.reader, "Display name", a.out)
	if err != nil {
		return err
	}
	token, err := GetSecret(a.reader, "Bearer token (optional)", a.out)
	if err != nil {
		return err
	}

	id, err := a.session.SignIn(ctx, email, name, token)
	if err != nil {
		return err
	}

	if _, err := a.cart.AdoptGuestCart(ctx); err != nil {
		a.log.Warn(ctx, "guest cart kept", "error", err)
	}
	fmt.Fprintf(a.out, "Signed in as %s (%s)\n", id.Email(), id.User.Role)
	return nil
}

func (a *App) SignOut(ctx context.Context) error {
	a.detector.Deactivate()
	if _, err := a.session.SignOut(ctx); err != nil {
		return err
	}
	a.orders.Reset()
	fmt.Fprintln(a.out, "Signed out")
	return nil
}

// Wipe clears every cached order, cart and identity on this device.
func (a *App) Wipe(ctx context.Context) error {
	answer, err := GetSimpleText(a.reader, "Clear all local data? (yes/no)", a.out)
	if err != nil {
		return err
	}
	if answer != "yes" {
		fmt.Fprintln(a.out, "Cancelled")
		return nil
	}

	a.detector.Deactivate()
	id, err := a.session.Wipe(ctx)
	if err != nil {
		return err
	}
	a.orders.Reset()
	fmt.Fprintf(a.out, "Local data cleared, new device %s\n", id.DeviceID)
	return nil
}
