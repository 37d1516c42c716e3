package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jwulff/touchread/internal/config"
	"github.com/jwulff/touchread/internal/control"
	"github.com/jwulff/touchread/internal/source"
)

// simpleCommands take no arguments.
var simpleCommands = map[string]string{
	"status":       control.CmdStatus,
	"hold":         control.CmdHoldStart,
	"release":      control.CmdHoldEnd,
	"hold_start":   control.CmdHoldStart,
	"hold_end":     control.CmdHoldEnd,
	"toggle":       control.CmdToggle,
	"back":         control.CmdStepBack,
	"forward":      control.CmdStepForward,
	"step_back":    control.CmdStepBack,
	"step_forward": control.CmdStepForward,
	"restart":      control.CmdRestart,
	"clear":        control.CmdClear,
	"rewind_start": control.CmdRewindStart,
	"rewind_stop":  control.CmdRewindStop,
}

func runCtl(ctx context.Context, args []string) error {
	fs, cfgPath := newFlagSet("ctl")
	socket := fs.String("socket", "", "socket path (overrides config)")
	wpm := fs.Int("wpm", 0, "settings: words per minute")
	punct := fs.String("punctuation", "", "settings: on or off")
	if err := fs.Parse(args); err != nil {
		return err
	}
	rest := fs.Args()
	if len(rest) == 0 {
		return errors.New("missing command")
	}

	cmd, err := buildCommand(rest[0], rest[1:], *wpm, *punct)
	if err != nil {
		return err
	}

	path := *socket
	if path == "" {
		cfg, err := config.Load(*cfgPath)
		if err != nil {
			return err
		}
		path = cfg.SocketPath
	}

	client, err := control.Connect(path)
	if err != nil {
		return err
	}
	defer client.Close()

	resp, err := client.SendCommand(cmd)
	if err != nil {
		return err
	}
	if !resp.OK {
		return errors.New(resp.Error)
	}
	if err := printJSON(resp.Snapshot); err != nil {
		return err
	}
	if cmd.Cmd != control.CmdSubscribe {
		return nil
	}

	go func() {
		<-ctx.Done()
		client.Close()
	}()
	for {
		ev, err := client.ReadEvent()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, control.ErrClosed) {
				return nil
			}
			return err
		}
		if err := printJSON(ev.Snapshot); err != nil {
			return err
		}
	}
}

func buildCommand(name string, args []string, wpm int, punct string) (control.Command, error) {
	if c, ok := simpleCommands[name]; ok {
		return control.Command{Cmd: c}, nil
	}

	switch name {
	case "subscribe", "watch":
		return control.Command{Cmd: control.CmdSubscribe}, nil

	case "load":
		var text string
		var err error
		if len(args) == 1 && args[0] == "-" {
			text, err = source.Reader(os.Stdin)
		} else {
			text = strings.Join(args, " ")
		}
		if err != nil {
			return control.Command{}, err
		}
		if text, err = source.Submit(text); err != nil {
			return control.Command{}, err
		}
		return control.Command{Cmd: control.CmdLoad, Text: text}, nil

	case "settings":
		cmd := control.Command{Cmd: control.CmdSettings}
		if wpm > 0 {
			cmd.WPM = control.IntPtr(wpm)
		}
		switch strings.ToLower(punct) {
		case "":
		case "on", "true", "yes":
			cmd.Punctuation = control.BoolPtr(true)
		case "off", "false", "no":
			cmd.Punctuation = control.BoolPtr(false)
		default:
			return control.Command{}, fmt.Errorf("punctuation must be on or off, got %q", punct)
		}
		return cmd, nil
	}
	return control.Command{}, fmt.Errorf("%w: %q", control.ErrUnknownCommand, name)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	return enc.Encode(v)
}
