package control

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/jwulff/touchread/internal/playback"
	"github.com/jwulff/touchread/internal/progress"
	"github.com/jwulff/touchread/internal/settings"
	"github.com/jwulff/touchread/internal/source"
)

// ErrUnknownCommand is reported for commands the server does not know.
var ErrUnknownCommand = errors.New("unknown command")

const (
	subscriberBuffer = 64
	saveQueue        = 32
)

// SettingsSaver persists reader preferences.
type SettingsSaver interface {
	SaveSettings(ctx context.Context, st settings.Settings) error
}

// Options configures a Server. Every field is optional.
type Options struct {
	Logger        *slog.Logger
	Bridge        *progress.Bridge
	Settings      settings.Settings
	SettingsSaver SettingsSaver
	RewindPeriod  time.Duration
}

// Server runs one playback.Machine on a single event loop. Connections and
// timers only ever post closures to that loop.
type Server struct {
	log      *slog.Logger
	bridge   *progress.Bridge
	saver    SettingsSaver
	settings settings.Settings

	machine *playback.Machine
	calls   chan func()
	queue   *progress.Queue
	done    chan struct{}

	// subs is only touched on the loop goroutine.
	subs map[chan Event]struct{}
}

// NewServer creates a Server. Call Serve or ListenAndServe to run it.
func NewServer(opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	st := opts.Settings
	if st.WPM == 0 {
		st = settings.Default()
	}
	st = st.Normalize()

	s := &Server{
		log:      log,
		bridge:   opts.Bridge,
		saver:    opts.SettingsSaver,
		settings: st,
		calls:    make(chan func()),
		done:     make(chan struct{}),
		subs:     make(map[chan Event]struct{}),
	}
	machineOpts := []playback.Option{
		playback.WithSettings(st.WPM, st.PunctuationSensitive),
		playback.WithObserver(s.observe),
		playback.WithLogger(log.With("component", "playback")),
	}
	if opts.RewindPeriod > 0 {
		machineOpts = append(machineOpts, playback.WithRewindPeriod(opts.RewindPeriod))
	}
	s.machine = playback.New(playback.SchedulerFunc(s.schedule), machineOpts...)
	return s
}

// ListenAndServe listens on the Unix socket path and serves until ctx ends.
func ListenAndServe(ctx context.Context, path string, s *Server) error {
	if err := removeStaleSocket(path); err != nil {
		return err
	}
	ln, err := net.Listen("unix", path)
	if err != nil {
		return fmt.Errorf("listen %s: %w", path, err)
	}
	defer os.Remove(path)
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx ends. ln is closed on return.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.queue = progress.NewQueue(saveQueue, s.log)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.loop(ctx)
	}()

	s.post(s.resume)

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	var conns sync.WaitGroup
	var mu sync.Mutex
	open := make(map[net.Conn]struct{})
	defer func() {
		cancel()
		mu.Lock()
		for c := range open {
			c.Close()
		}
		mu.Unlock()
		conns.Wait()
		wg.Wait()
		s.queue.Close()
	}()

	s.log.Info("serving", "addr", ln.Addr().String())
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}
		mu.Lock()
		open[conn] = struct{}{}
		mu.Unlock()
		conns.Add(1)
		go func() {
			defer conns.Done()
			s.handleConn(ctx, conn)
			mu.Lock()
			delete(open, conn)
			mu.Unlock()
		}()
	}
}

func (s *Server) loop(ctx context.Context) {
	defer close(s.done)
	for {
		select {
		case f := <-s.calls:
			f()
		case <-ctx.Done():
			return
		}
	}
}

// post runs f on the loop. It reports false once the loop has stopped.
func (s *Server) post(f func()) bool {
	select {
	case s.calls <- f:
		return true
	case <-s.done:
		return false
	}
}

// call runs f on the loop and waits for its result.
func (s *Server) call(f func() Response) Response {
	ch := make(chan Response, 1)
	if !s.post(func() { ch <- f() }) {
		return Response{Error: "server stopped"}
	}
	return <-ch
}

func (s *Server) schedule(t playback.Timer) {
	time.AfterFunc(t.Delay, func() {
		s.post(func() { s.machine.Fire(t) })
	})
}

func (s *Server) enqueue(job progress.Job) {
	s.queue.Enqueue(job)
}

// resume restores the persisted reading, if any.
func (s *Server) resume() {
	if s.bridge == nil {
		return
	}
	content, index, ok, err := s.bridge.Resume(context.Background())
	if err != nil {
		s.log.Warn("resume", "error", err)
		return
	}
	if !ok {
		return
	}
	s.machine.Restore(content, index)
	s.log.Info("resumed", "index", index, "words", len(s.machine.Words()))
}

// observe runs on the loop after every machine change.
func (s *Server) observe(snap playback.Snapshot) {
	if s.bridge != nil {
		if st, ok := s.bridge.Mark(snap.Index, snap.Length); ok {
			s.enqueue(func(ctx context.Context) error { return s.bridge.Save(ctx, st) })
		}
	}

	ev := Event{Event: EventSnapshot, Snapshot: wireSnapshot(snap, progress.ToProgress(snap.Index, snap.Length))}
	for ch := range s.subs {
		select {
		case ch <- ev:
		default:
			s.log.Warn("subscriber too slow, dropping snapshot")
		}
	}
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 64*1024), source.MaxTextSize+64*1024)

	for scanner.Scan() {
		var cmd Command
		if err := json.Unmarshal(scanner.Bytes(), &cmd); err != nil {
			if !writeLine(conn, Response{Error: fmt.Sprintf("bad command: %v", err)}) {
				return
			}
			continue
		}

		if cmd.Cmd == CmdSubscribe {
			s.stream(ctx, conn)
			return
		}

		resp := s.call(func() Response { return s.execute(cmd) })
		if !writeLine(conn, resp) {
			return
		}
	}
	if err := scanner.Err(); err != nil {
		s.log.Debug("read command", "error", err)
	}
}

// stream turns conn into an event connection until either side closes.
func (s *Server) stream(ctx context.Context, conn net.Conn) {
	ch := make(chan Event, subscriberBuffer)
	resp := s.call(func() Response {
		s.subs[ch] = struct{}{}
		return s.status()
	})
	defer s.post(func() { delete(s.subs, ch) })

	if !resp.OK || !writeLine(conn, resp) {
		return
	}

	// Reads only detect the client hanging up.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		buf := make([]byte, 512)
		for {
			if _, err := conn.Read(buf); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case ev := <-ch:
			if !writeLine(conn, ev) {
				return
			}
		case <-gone:
			return
		case <-ctx.Done():
			return
		}
	}
}

// execute runs on the loop.
func (s *Server) execute(cmd Command) Response {
	m := s.machine
	switch cmd.Cmd {
	case CmdStatus:
	case CmdLoad:
		text := strings.TrimSpace(cmd.Text)
		if text == "" {
			s.forget()
		} else if s.bridge != nil {
			s.bridge.Begin(text)
		}
		m.Load(text)
	case CmdHoldStart:
		m.Play()
	case CmdHoldEnd:
		m.Pause()
	case CmdToggle:
		m.Toggle()
	case CmdStepBack:
		m.StepBackward()
	case CmdStepForward:
		m.StepForward()
	case CmdRestart:
		m.Restart()
	case CmdClear:
		s.forget()
		m.Clear()
	case CmdRewindStart:
		m.RewindStart()
	case CmdRewindStop:
		m.RewindStop()
	case CmdSettings:
		if cmd.WPM != nil {
			s.settings.WPM = *cmd.WPM
		}
		if cmd.Punctuation != nil {
			s.settings.PunctuationSensitive = *cmd.Punctuation
		}
		s.settings = s.settings.Normalize()
		m.SetSettings(s.settings.WPM, s.settings.PunctuationSensitive)
		if s.saver != nil {
			st := s.settings
			s.enqueue(func(ctx context.Context) error { return s.saver.SaveSettings(ctx, st) })
		}
	default:
		return Response{Error: fmt.Sprintf("%v: %q", ErrUnknownCommand, cmd.Cmd)}
	}
	return s.status()
}

// forget drops the tracked reading. The store is cleared behind any pending
// saves so none of them bring it back.
func (s *Server) forget() {
	if s.bridge == nil {
		return
	}
	s.bridge.Reset()
	s.enqueue(s.bridge.Clear)
}

func (s *Server) status() Response {
	snap := s.machine.Snapshot()
	return Response{OK: true, Snapshot: wireSnapshot(snap, progress.ToProgress(snap.Index, snap.Length))}
}

func writeLine(conn net.Conn, v any) bool {
	data, err := json.Marshal(v)
	if err != nil {
		return false
	}
	_, err = conn.Write(append(data, '\n'))
	return err == nil
}

// removeStaleSocket deletes path if it is a socket nobody is listening on.
func removeStaleSocket(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("stat socket: %w", err)
	}
	if info.Mode()&os.ModeSocket == 0 {
		return fmt.Errorf("%s exists and is not a socket", path)
	}
	if conn, err := net.Dial("unix", path); err == nil {
		conn.Close()
		return fmt.Errorf("another reader is listening on %s", path)
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("remove stale socket: %w", err)
	}
	return nil
}
