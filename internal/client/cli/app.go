// Package cli is the interactive command-line frontend: a small REPL over
// the API client.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/photovault/photovault/internal/client/api"
	"github.com/photovault/photovault/internal/client/config"
)

type App struct {
	config  *config.Config
	client  *api.Client
	profile *api.Profile
	reader  *bufio.Reader
}

func NewApp(c *config.Config) *App {
	client := api.NewClient(c.ServerBaseURL, api.NewFileTokenStore(c.TokenFile), c.RequestTimeout)

	app := &App{config: c, client: client, reader: bufio.NewReader(os.Stdin)}
	client.OnSessionExpired = func() {
		app.profile = nil
		fmt.Println("Session expired, please log in again.")
	}
	return app
}

func (a *App) isLoggedIn() bool {
	return a.profile != nil
}

// restoreSession tries to pick up a persisted session from a previous run.
func (a *App) restoreSession(ctx context.Context) {
	profile, err := a.client.Profile(ctx)
	if err != nil {
		return
	}
	a.profile = profile
}

func (a *App) Run(ctx context.Context) {
	a.restoreSession(ctx)
	a.Root(ctx)
}
