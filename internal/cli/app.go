// Package cli is a thin REPL over the notesync library, mainly useful
// for poking at a local database and a running record service.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/notesync/internal/config"
	"github.com/dmitrijs2005/notesync/internal/logging"
	"github.com/dmitrijs2005/notesync/internal/registry"

	_ "modernc.org/sqlite"
)

type App struct {
	config   *config.Config
	registry *registry.Registry
	session  *registry.Session
	reader   *bufio.Reader
}

func NewApp(c *config.Config) *App {
	log := logging.NewDefault()
	return &App{
		config:   c,
		registry: registry.New(c, log),
		reader:   bufio.NewReader(os.Stdin),
	}
}

func (a *App) Run(ctx context.Context) error {
	defer a.registry.CloseAll()

	user, err := GetSimpleText(a.reader, "User ID", os.Stdout)
	if err != nil {
		return err
	}
	if user == "" {
		return fmt.Errorf("a user id is required")
	}

	session, err := a.registry.Open(ctx, user)
	if err != nil {
		return err
	}
	a.session = session

	fmt.Println("Welcome to notesync CLI (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, scanner)
	return nil
}
