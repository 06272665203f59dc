package cli

import (
	"bufio"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubExec struct {
	calls   []string
	syncErr error
}

func (s *stubExec) Add(ctx context.Context) error  { s.calls = append(s.calls, "add"); return nil }
func (s *stubExec) List(ctx context.Context) error { s.calls = append(s.calls, "list"); return nil }
func (s *stubExec) Show(ctx context.Context, id string) error {
	s.calls = append(s.calls, "show "+id)
	return nil
}
func (s *stubExec) Delete(ctx context.Context, id string) error {
	s.calls = append(s.calls, "del "+id)
	return nil
}
func (s *stubExec) Sync(ctx context.Context) error {
	s.calls = append(s.calls, "sync")
	return s.syncErr
}
func (s *stubExec) Status(ctx context.Context) error { s.calls = append(s.calls, "status"); return nil }

func runScript(t *testing.T, a execIface, script string) []string {
	t.Helper()

	var out []string
	origLn, orig := printlnFn, printFn
	printlnFn = func(args ...any) (int, error) {
		for _, arg := range args {
			if s, ok := arg.(string); ok {
				out = append(out, s)
			}
		}
		return 0, nil
	}
	printFn = func(args ...any) (int, error) { return 0, nil }
	t.Cleanup(func() { printlnFn, printFn = origLn, orig })

	runREPL(context.Background(), a, bufio.NewScanner(strings.NewReader(script)))
	return out
}

func TestRunREPL_DispatchesCommands(t *testing.T) {
	stub := &stubExec{}
	runScript(t, stub, "add\nlist\nshow id1\ndel id2\nsync\nstatus\nexit\n")
	assert.Equal(t, []string{"add", "list", "show id1", "del id2", "sync", "status"}, stub.calls)
}

func TestRunREPL_UnknownCommand(t *testing.T) {
	out := runScript(t, &stubExec{}, "frobnicate\nexit\n")
	assert.Contains(t, out, "Unknown command: frobnicate")
}

func TestRunREPL_MissingArgument(t *testing.T) {
	stub := &stubExec{}
	out := runScript(t, stub, "show\nexit\n")
	assert.Contains(t, out, "usage: show <id>")
	assert.Empty(t, stub.calls)
}

func TestRunREPL_HandlerErrorIsPrinted(t *testing.T) {
	stub := &stubExec{syncErr: errors.New("offline")}
	out := runScript(t, stub, "sync\nexit\n")
	assert.Contains(t, out, "Error: offline")
}

func TestRunREPL_ExitsOnEOF(t *testing.T) {
	stub := &stubExec{}
	runScript(t, stub, "list\n")
	assert.Equal(t, []string{"list"}, stub.calls)
}

func TestRunREPL_PromptStaysOnInputLine(t *testing.T) {
	var prompts []string
	origLn, orig := printlnFn, printFn
	printlnFn = func(args ...any) (int, error) { return 0, nil }
	printFn = func(args ...any) (int, error) {
		for _, arg := range args {
			if s, ok := arg.(string); ok {
				prompts = append(prompts, s)
			}
		}
		return 0, nil
	}
	t.Cleanup(func() { printlnFn, printFn = origLn, orig })

	runREPL(context.Background(), &stubExec{}, bufio.NewScanner(strings.NewReader("exit\n")))

	assert.Equal(t, []string{"ns> "}, prompts)
}

func TestGetSimpleText(t *testing.T) {
	var sb strings.Builder
	got, err := GetSimpleText(bufio.NewReader(strings.NewReader("hello world\n")), "Title", &sb)
	assert.NoError(t, err)
	assert.Equal(t, "hello world", got)
	assert.Contains(t, sb.String(), "Title")
}

func TestGetSimpleText_PartialLineOnEOF(t *testing.T) {
	var sb strings.Builder
	got, err := GetSimpleText(bufio.NewReader(strings.NewReader("partial")), "Title", &sb)
	assert.NoError(t, err)
	assert.Equal(t, "partial", got)
}
