package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/macrolens/scanner/internal/domain"
)

// lineReader is the input side of an interactive session
type lineReader interface {
	Readline() (string, error)
	Close() error
}

// plainReader reads piped input line by line
type plainReader struct {
	scanner *bufio.Scanner
}

func (r *plainReader) Readline() (string, error) {
	if r.scanner.Scan() {
		return r.scanner.Text(), nil
	}
	if err := r.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

func (r *plainReader) Close() error {
	return nil
}

// lockedWriter serializes output from the input loop and the workers
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

// NewScanCommand creates the interactive scan command.
func NewScanCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Interactive scanning session",
		Long: `Start an interactive session. Each line read is treated as a barcode, the
way a USB barcode scanner types it. Lookups run on a background worker so
input is never blocked by a slow network.

Session commands:
  sync    refresh the cache from the remote catalog
  stats   show scan statistics
  help    show this help
  exit    leave the session (Ctrl-D also works)`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(func(app *App) error {
				reader, err := newLineReader(cmd)
				if err != nil {
					return WrapExitError(ExitCommandError, "failed to open input", err)
				}
				defer reader.Close()
				return runScan(cmd.Context(), opts, app, reader, cmd.OutOrStdout())
			})
		},
	}
}

// newLineReader uses readline on a terminal and a plain scanner otherwise
func newLineReader(cmd *cobra.Command) (lineReader, error) {
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); !ok || f != os.Stdin || !readline.IsTerminal(int(f.Fd())) {
		return &plainReader{scanner: bufio.NewScanner(in)}, nil
	}

	historyFile := ""
	if home, err := os.UserHomeDir(); err == nil {
		historyFile = filepath.Join(home, ".macrolens_history")
	}
	rl, err := readline.NewEx(&readline.Config{
		Prompt:            "\033[1;36mscan>\033[0m ",
		HistoryFile:       historyFile,
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize readline: %v", err)
	}
	return rl, nil
}

func runScan(ctx context.Context, opts *RootOptions, app *App, reader lineReader, w io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	out := &lockedWriter{w: w}
	jobs := make(chan string, 16)
	var workers sync.WaitGroup

	workers.Add(1)
	go func() {
		defer workers.Done()
		for barcode := range jobs {
			if ctx.Err() != nil {
				continue
			}
			result := app.Resolver.Resolve(ctx, barcode)
			if result.Canceled {
				continue
			}
			printScanResult(out, opts, result)
		}
	}()

	fmt.Fprintln(out, "Ready to scan. Type 'help' for commands, 'exit' to quit.")

	var loopErr error
loop:
	for {
		line, err := reader.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				// drop whatever is still queued or in flight
				cancel()
			} else if !errors.Is(err, io.EOF) {
				loopErr = err
			}
			break
		}

		input := strings.TrimSpace(line)
		switch strings.ToLower(input) {
		case "":
			continue
		case "exit", "quit":
			break loop
		case "help":
			fmt.Fprintln(out, "Scan or type a barcode. Commands: sync, stats, help, exit.")
		case "stats":
			stats, err := app.Profile.Stats(ctx)
			if err != nil {
				fmt.Fprintf(out, "Error: %v\n", err)
				continue
			}
			RenderStats(out, *stats)
		case "sync":
			workers.Add(1)
			go func() {
				defer workers.Done()
				report := app.Syncer.SyncAll(ctx)
				if ctx.Err() == nil {
					RenderSyncReport(out, report)
				}
			}()
		default:
			jobs <- input
		}
	}

	close(jobs)
	workers.Wait()
	return loopErr
}

func printScanResult(w io.Writer, opts *RootOptions, result domain.ResolutionResult) {
	if opts.json() {
		_ = writeJSON(w, result)
		return
	}
	// one write per result so concurrent output does not interleave
	var b strings.Builder
	RenderResult(&b, result)
	b.WriteString("\n")
	io.WriteString(w, b.String())
}
