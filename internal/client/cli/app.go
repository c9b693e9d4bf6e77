package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dmitrijs2005/ordersync/internal/client/client"
	"github.com/dmitrijs2005/ordersync/internal/client/config"
	"github.com/dmitrijs2005/ordersync/internal/client/identity"
	"github.com/dmitrijs2005/ordersync/internal/client/netstatus"
	"github.com/dmitrijs2005/ordersync/internal/client/services"
	"github.com/dmitrijs2005/ordersync/internal/client/watcher"
	"github.com/dmitrijs2005/ordersync/internal/logging"
)

// changeDetector is the part of watcher.Detector the App drives.
type changeDetector interface {
	Activate(ctx context.Context)
	Deactivate()
	State() watcher.State
}

type App struct {
	config   *config.Config
	log      logging.Logger
	store    *client.LocalStore
	monitor  *netstatus.Monitor
	session  services.SessionService
	orders   services.OrderService
	cart     services.CartService
	detector changeDetector
	reader   *bufio.Reader
	out      io.Writer
}

// NewApp opens the local store and wires the services on top of it.
func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	store, err := client.OpenLocalStore(ctx, c.DatabasePath)
	if err != nil {
		return nil, err
	}

	api, err := client.NewHTTPClient(c.ServerURL, c.RequestTimeout)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	provider := identity.NewProvider(store.Slots)
	session, err := services.NewSessionService(ctx, provider, api, store, log)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	monitor := netstatus.NewMonitor(api, c.OnlineCheckInterval, log)
	orders := services.NewOrderService(api, session, store.Slots, monitor, log)

	a := &App{
		config:  c,
		log:     log,
		store:   store,
		monitor: monitor,
		session: session,
		orders:  orders,
		cart:    services.NewCartService(store.Slots, session, orders, log),
		reader:  bufio.NewReader(os.Stdin),
		out:     os.Stdout,
	}
	a.detector = watcher.NewDetector(orders, watcher.NotifierFunc(a.notify), c.PollInterval, log)
	return a, nil
}

// Run starts the connectivity monitor and blocks in the REPL until the user
// exits or ctx is cancelled.
func (a *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer a.Close(ctx)

	go a.monitor.Run(ctx, a.config.OnlineCheckInterval)

	printlnFn("Welcome to ordersync (type 'help' for commands)")
	runREPL(ctx, a, a.status, a.reader)
}

func (a *App) Close(ctx context.Context) {
	a.detector.Deactivate()
	if err := a.session.Close(ctx); err != nil {
		a.log.Warn(ctx, "close remote client", "error", err)
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn(ctx, "close local store", "error", err)
		}
	}
}

func (a *App) isSignedIn() bool {
	return a.session.Current().User != nil
}

func (a *App) isAdmin() bool {
	return a.session.Current().IsAdmin()
}

// status renders the prompt decoration, e.g. "(ann@example.com admin online)".
func (a *App) status() string {
	var parts []string
	id := a.session.Current()
	if id.User != nil {
		parts = append(parts, id.User.Email)
		if id.IsAdmin() {
			parts = append(parts, string(id.User.Role))
		}
	}
	if a.monitor != nil {
		parts = append(parts, string(a.monitor.Mode()))
	}
	if a.detector != nil && a.detector.State() != watcher.Inactive {
		parts = append(parts, "watching")
	}
	if len(parts) == 0 {
		return ""
	}
	return fmt.Sprintf("(%s)", strings.Join(parts, " "))
}
