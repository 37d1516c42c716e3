package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jwulff/touchread/internal/app"
	"github.com/jwulff/touchread/internal/config"
	"github.com/jwulff/touchread/internal/control"
	"github.com/jwulff/touchread/internal/db"
	"github.com/jwulff/touchread/internal/logs"
	"github.com/jwulff/touchread/internal/mcptools"
	"github.com/jwulff/touchread/internal/progress"
	"github.com/jwulff/touchread/internal/source"

	tea "github.com/charmbracelet/bubbletea"
)

var version = "dev"

const usage = `usage:
  touchread [read] [-file path | -clipboard | -sample n] [text...]
  touchread serve                 run a headless reader on a Unix socket
  touchread ctl <command> [args]  drive a running reader
  touchread history [-n count]    list recently read texts
  touchread mcp                   serve pacing tools over MCP stdio
  touchread version`

func main() {
	// root context cancelled on SIGINT / SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	args := os.Args[1:]
	name := "read"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		switch args[0] {
		case "read", "serve", "ctl", "history", "mcp", "version", "help":
			name, args = args[0], args[1:]
		}
	}

	var err error
	switch name {
	case "read":
		err = runRead(ctx, args)
	case "serve":
		err = runServe(ctx, args)
	case "ctl":
		err = runCtl(ctx, args)
	case "history":
		err = runHistory(ctx, args)
	case "mcp":
		err = runMCP(args)
	case "version":
		fmt.Println("touchread", version)
	case "help":
		fmt.Println(usage)
	}
	if err != nil && !errors.Is(err, flag.ErrHelp) {
		log.Fatalf("touchread %s: %v", name, err)
	}
}

func newFlagSet(name string) (*flag.FlagSet, *string) {
	fs := flag.NewFlagSet("touchread "+name, flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), usage)
		fs.PrintDefaults()
	}
	cfgPath := fs.String("config", config.DefaultPath(), "path to config file")
	return fs, cfgPath
}

// environment is what every reader command shares.
type environment struct {
	cfg    *config.Config
	log    *slog.Logger
	closer io.Closer
	store  *db.Store
}

func setup(cfgPath string, stderr bool, openDB bool) (*environment, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	logger, closer, err := logs.New(logs.Options{File: cfg.LogFile, Level: cfg.LogLevel, Stderr: stderr})
	if err != nil {
		return nil, err
	}
	env := &environment{cfg: cfg, log: logger, closer: closer}
	if openDB {
		store, err := db.Open(cfg.DBPath)
		if err != nil {
			closer.Close()
			return nil, err
		}
		env.store = store
	}
	logger.Debug("configured", "config", cfg.Path(), "db", cfg.DBPath)
	return env, nil
}

func (e *environment) Close() {
	if e.store != nil {
		e.store.Close()
	}
	e.closer.Close()
}

func runRead(ctx context.Context, args []string) error {
	fs, cfgPath := newFlagSet("read")
	file := fs.String("file", "", "read text from a file (- for stdin)")
	clip := fs.Bool("clipboard", false, "read text from the clipboard")
	sample := fs.Int("sample", 0, "read built-in sample 1-3")
	if err := fs.Parse(args); err != nil {
		return err
	}

	text, err := pickText(*file, *clip, *sample, fs.Args())
	if err != nil {
		return err
	}

	env, err := setup(*cfgPath, false, true)
	if err != nil {
		return err
	}
	defer env.Close()

	queue := progress.NewQueue(64, env.log)
	defer queue.Close()

	m := app.New(app.Options{
		Store:        env.store,
		Queue:        queue,
		Text:         text,
		Defaults:     env.cfg.Defaults,
		RewindPeriod: env.cfg.RewindPeriod(),
		Logger:       env.log,
	})
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("run reader: %w", err)
	}
	return nil
}

// pickText resolves the text source flags. An empty result means "resume".
func pickText(file string, clip bool, sample int, args []string) (string, error) {
	var text string
	var err error
	switch {
	case file == "-":
		text, err = source.Reader(os.Stdin)
	case file != "":
		text, err = source.File(file)
	case clip:
		text, err = source.Clipboard()
	case sample > 0:
		text, err = source.Sample(sample - 1)
	case len(args) > 0:
		text = strings.Join(args, " ")
	default:
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return source.Submit(text)
}

func runServe(ctx context.Context, args []string) error {
	fs, cfgPath := newFlagSet("serve")
	socket := fs.String("socket", "", "socket path (overrides config)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	env, err := setup(*cfgPath, true, true)
	if err != nil {
		return err
	}
	defer env.Close()

	path := env.cfg.SocketPath
	if *socket != "" {
		path = *socket
	}

	st := env.cfg.Defaults
	saved, err := env.store.LoadSettings(ctx)
	if err != nil {
		env.log.Warn("load settings", "error", err)
	} else if saved != nil {
		st = *saved
	}

	srv := control.NewServer(control.Options{
		Logger:        env.log.With("component", "control"),
		Bridge:        progress.NewBridge(env.store, nil),
		Settings:      st,
		SettingsSaver: env.store,
		RewindPeriod:  env.cfg.RewindPeriod(),
	})
	return control.ListenAndServe(ctx, path, srv)
}

func runHistory(ctx context.Context, args []string) error {
	fs, cfgPath := newFlagSet("history")
	n := fs.Int("n", 10, "number of entries")
	if err := fs.Parse(args); err != nil {
		return err
	}

	env, err := setup(*cfgPath, false, true)
	if err != nil {
		return err
	}
	defer env.Close()

	readings, err := env.store.RecentReadings(ctx, *n)
	if err != nil {
		return err
	}
	if len(readings) == 0 {
		fmt.Println("nothing read yet")
		return nil
	}
	for _, r := range readings {
		fmt.Printf("%s  %5.1f%%  %5d words  %s\n",
			r.LastReadAt.Format("2006-01-02 15:04"), r.Progress, r.WordCount, r.Preview)
	}
	return nil
}

func runMCP(args []string) error {
	fs, cfgPath := newFlagSet("mcp")
	if err := fs.Parse(args); err != nil {
		return err
	}

	// stdout carries the protocol, so logs only go to the file.
	env, err := setup(*cfgPath, false, false)
	if err != nil {
		return err
	}
	defer env.Close()

	return mcptools.Serve(version, env.log.With("component", "mcp"))
}
