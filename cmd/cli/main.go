package main

import (
	"context"
	"log"

	"github.com/dmitrijs2005/notesync/internal/cli"
	"github.com/dmitrijs2005/notesync/internal/config"
)

func main() {
	ctx := context.Background()
	cfg := config.LoadConfig()
	app := cli.NewApp(cfg)

	if err := app.Run(ctx); err != nil {
		log.Fatalf("%v", err)
	}
}
