package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"flowtasks/internal/client"
	"flowtasks/internal/config"
	"flowtasks/internal/logging"
	"flowtasks/internal/notice"
	"flowtasks/internal/session"
	"flowtasks/internal/tasksync"
)

type options struct {
	configPath string
	baseURL    string
	sessionDir string
	output     string
	verbose    bool
}

// app is the wiring shared by every command.
type app struct {
	opts options
	out  io.Writer
	in   io.Reader

	cfg     *config.Config
	log     *slog.Logger
	api     *client.Client
	session *session.Store
	tasks   *tasksync.Engine
	notices *notice.Board

	// storage overrides the file store; tests use a MemoryStore
	storage session.Storage
}

func (a *app) setup() error {
	switch a.opts.output {
	case "table", "json", "yaml":
	default:
		return fmt.Errorf("unknown output format %q", a.opts.output)
	}

	if a.cfg == nil {
		cfg, err := config.Load(a.opts.configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		a.cfg = cfg
	}
	cc := a.cfg.Client
	if a.opts.baseURL != "" {
		cc.BaseURL = a.opts.baseURL
	}
	if a.opts.sessionDir != "" {
		cc.SessionDir = a.opts.sessionDir
	}

	logCfg := a.cfg.Log
	if !a.opts.verbose {
		logCfg.Level = "warn"
	}
	a.log = logging.New(logCfg, os.Stderr).With("component", "cli")

	a.api = client.New(cc.BaseURL,
		client.WithTimeout(time.Duration(cc.Timeout)*time.Second),
		client.WithLogger(a.log),
	)

	if a.storage == nil {
		dir := cc.SessionDir
		if dir == "" {
			d, err := session.DefaultDir()
			if err != nil {
				return err
			}
			dir = d
		}
		fs, err := session.NewFileStore(dir, cc.EncryptionKey)
		if err != nil {
			return fmt.Errorf("open session store: %w", err)
		}
		a.storage = fs
	}

	a.session = session.NewStore(a.api, a.storage, a.log)
	a.session.Attach(a.api)
	a.tasks = tasksync.New(a.api, tasksync.WithLogger(a.log))
	a.notices = notice.NewBoard(time.Duration(cc.NoticeSeconds) * time.Second)
	return nil
}

func (a *app) close() {
	if a.notices != nil {
		a.notices.Close()
	}
}

var errNotLoggedIn = errors.New("not logged in; run 'flowtasks login' first")

// requireSession rehydrates the saved session and fails if there is none.
func (a *app) requireSession(ctx context.Context) (*session.Session, error) {
	if !a.session.Initialize(ctx) {
		return nil, &exitError{code: 2, err: errNotLoggedIn}
	}
	return a.session.Current(), nil
}

// loadTasks rehydrates the session and fills the engine.
func (a *app) loadTasks(ctx context.Context) error {
	if _, err := a.requireSession(ctx); err != nil {
		return err
	}
	if res := a.tasks.Reload(ctx); !res.Success {
		return a.failed(res.Kind, res.Message)
	}
	return nil
}

// failed turns a failed Result into a command error. An auth failure means
// the session was dropped underneath us.
func (a *app) failed(kind client.Kind, msg string) error {
	if kind == client.KindAuth {
		return &exitError{code: 2, err: fmt.Errorf("%s (session expired, please log in again)", msg)}
	}
	return errors.New(msg)
}
