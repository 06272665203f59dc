package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn and printFn are test seams for user-facing output.
var (
	printlnFn = fmt.Println
	printFn   = fmt.Print
)

// execIface defines the minimal command surface the REPL needs. The real
// App type satisfies it; tests provide a lightweight stub.
type execIface interface {
	Add(ctx context.Context) error
	List(ctx context.Context) error
	Show(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	Sync(ctx context.Context) error
	Status(ctx context.Context) error
}

// runREPL reads commands line by line and dispatches to a. Errors from
// handlers are printed and the loop continues; it exits on EOF or when
// the user types "exit" or "quit".
func runREPL(ctx context.Context, a execIface, scanner *bufio.Scanner) {
	for {
		printFn("ns> ")
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}

		var err error
		switch cmd := parts[0]; cmd {
		case "help":
			printlnFn("Available commands: add, list, show <id>, del <id>, sync, status, exit")
		case "add":
			err = a.Add(ctx)
		case "list", "l":
			err = a.List(ctx)
		case "show":
			if len(parts) < 2 {
				printlnFn("usage: show <id>")
				continue
			}
			err = a.Show(ctx, parts[1])
		case "del":
			if len(parts) < 2 {
				printlnFn("usage: del <id>")
				continue
			}
			err = a.Delete(ctx, parts[1])
		case "sync":
			err = a.Sync(ctx)
		case "status":
			err = a.Status(ctx)
		case "exit", "quit":
			return
		default:
			printlnFn("Unknown command: " + cmd)
		}

		if err != nil {
			printlnFn("Error: " + err.Error())
		}
	}
}
