package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/softseven/studio-admin/internal/apiclient"
	"github.com/softseven/studio-admin/internal/config"
	"github.com/softseven/studio-admin/internal/hooks"
	"github.com/softseven/studio-admin/internal/metrics"
	"github.com/softseven/studio-admin/internal/notify"
	"github.com/softseven/studio-admin/internal/query"
	"github.com/softseven/studio-admin/internal/resource"
	"github.com/softseven/studio-admin/internal/session"
	"github.com/softseven/studio-admin/internal/tokenstore"
)

var errUsage = errors.New("usage")

type options struct {
	yes         bool
	metricsFile string
}

// app wires the client stack for one command.
type app struct {
	opts   options
	log    *zap.Logger
	out    io.Writer
	errOut io.Writer
	in     *bufio.Reader

	store      tokenstore.Store
	closeStore func()
	client     *apiclient.Client
	api        *resource.API
	cache      *query.Cache
	hooks      *hooks.Hooks
	sess       *session.Session
	reg        *prometheus.Registry
}

func newApp(ctx context.Context, cfg *config.Config, opts options, stdin io.Reader, stdout, stderr io.Writer) (*app, error) {
	log, err := cfg.Logger()
	if err != nil {
		return nil, err
	}
	a := &app{opts: opts, log: log, out: stdout, errOut: stderr, in: bufio.NewReader(stdin)}

	var rec metrics.Recorder = metrics.Nop{}
	if opts.metricsFile != "" {
		a.reg = prometheus.NewRegistry()
		rec = metrics.NewCollector(a.reg)
	}

	a.store, a.closeStore, err = cfg.OpenTokenStore(ctx)
	if err != nil {
		return nil, err
	}
	a.client, err = apiclient.New(cfg.Client(), tokenstore.Source{Store: a.store},
		apiclient.WithLogger(log), apiclient.WithMetrics(rec))
	if err != nil {
		a.closeStore()
		return nil, err
	}
	a.api = resource.New(a.client)
	a.cache = query.New(query.WithStaleTime(cfg.StaleTime), query.WithLogger(log), query.WithMetrics(rec))
	a.hooks = hooks.New(a.api, a.cache, notify.Multi{notify.NewWriter(stderr), notify.Log{L: log}})
	a.sess = session.New(a.api.Auth, a.store,
		session.WithCache(a.cache),
		session.WithLogger(log),
		session.WithNavigator(session.NavigatorFunc(func(route string) {
			log.Debug("navigate", zap.String("route", route))
		})),
	)
	return a, nil
}

func (a *app) close() {
	a.cache.Close()
	a.closeStore()
	if a.reg != nil {
		if err := prometheus.WriteToTextfile(a.opts.metricsFile, a.reg); err != nil {
			a.log.Warn("write metrics", zap.Error(err))
		}
	}
	_ = a.log.Sync()
}

// Confirm asks on stderr and reads the answer from stdin; -yes skips the question.
func (a *app) Confirm(prompt string) bool {
	if a.opts.yes {
		return true
	}
	fmt.Fprintf(a.errOut, "%s [y/N]: ", prompt)
	line, _ := a.in.ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

func (a *app) printJSON(v any) {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func (a *app) dispatch(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "login":
		return a.cmdLogin(ctx, args)
	case "logout":
		return a.cmdLogout(ctx)
	case "whoami":
		return a.cmdWhoami(ctx)
	case "dashboard":
		return a.cmdDashboard(ctx)
	case "projects":
		return a.cmdProjects(ctx, args)
	case "messages":
		return a.cmdMessages(ctx, args)
	case "settings":
		return a.cmdSettings(ctx, args)
	case "users":
		return a.cmdUsers(ctx, args)
	case "roles":
		return a.cmdRoles(ctx, args)
	case "profile":
		return a.cmdProfile(ctx, args)
	}
	return fmt.Errorf("unknown command %q: %w", cmd, errUsage)
}
