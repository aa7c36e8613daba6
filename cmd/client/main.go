package main

import (
	"context"

	"github.com/photovault/photovault/internal/client/cli"
	"github.com/photovault/photovault/internal/client/config"
)

func main() {
	ctx := context.Background()
	cfg := config.LoadConfig()
	app := cli.NewApp(cfg)
	app.Run(ctx)
}
