package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to.
// The real App satisfies it; tests provide a lightweight stub.
type execIface interface {
	isSignedIn() bool
	isAdmin() bool

	Whoami(ctx context.Context) error
	SignIn(ctx context.Context) error
	SignOut(ctx context.Context) error
	Wipe(ctx context.Context) error

	ShowCart(ctx context.Context) error
	AddToCart(ctx context.Context, args []string) error
	RemoveFromCart(ctx context.Context, args []string) error
	Checkout(ctx context.Context) error

	ListOrders(ctx context.Context, all bool) error
	SetStatus(ctx context.Context, args []string) error
	DeleteOrder(ctx context.Context, args []string) error
	Watch(ctx context.Context) error
	Unwatch(ctx context.Context) error
}

const (
	guestHelp = "Available commands: whoami, signin, cart, add, remove, checkout, orders, wipe, exit"
	userHelp  = "Available commands: whoami, signout, cart, add, remove, checkout, orders, wipe, exit"
	adminHelp = "Available commands: whoami, signout, orders, all, status <id> <status>, delete <id>, watch, unwatch, wipe, exit"
)

// runREPL reads one command per line from in and dispatches it to a.
// The loop exits on EOF or when the user types "exit" or "quit".
//
// Handler errors are printed and never end the loop.
func runREPL(ctx context.Context, a execIface, statusFn func() string, in *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("orders %s> ", statusFn()))

		line, err := in.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var cmdErr error
		switch cmd {
		case "help":
			switch {
			case a.isAdmin():
				printlnFn(adminHelp)
			case a.isSignedIn():
				printlnFn(userHelp)
			default:
				printlnFn(guestHelp)
			}

		case "whoami":
			cmdErr = a.Whoami(ctx)
		case "signin", "login":
			cmdErr = a.SignIn(ctx)
		case "signout", "logout":
			cmdErr = a.SignOut(ctx)
		case "wipe":
			cmdErr = a.Wipe(ctx)

		case "cart":
			cmdErr = a.ShowCart(ctx)
		case "add":
			cmdErr = a.AddToCart(ctx, args)
		case "remove", "rm":
			cmdErr = a.RemoveFromCart(ctx, args)
		case "checkout":
			cmdErr = a.Checkout(ctx)

		case "orders", "l":
			cmdErr = a.ListOrders(ctx, false)
		case "all":
			cmdErr = a.ListOrders(ctx, true)
		case "status":
			if len(args) != 2 {
				printlnFn("Usage: status <order-id> <status>")
				continue
			}
			cmdErr = a.SetStatus(ctx, args)
		case "delete":
			if len(args) != 1 {
				printlnFn("Usage: delete <order-id>")
				continue
			}
			cmdErr = a.DeleteOrder(ctx, args)
		case "watch":
			cmdErr = a.Watch(ctx)
		case "unwatch":
			cmdErr = a.Unwatch(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if cmdErr != nil {
			printlnFn("Error:", cmdErr)
		}
	}
}
