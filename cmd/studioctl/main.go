// Command studioctl administers the studio website from the terminal.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/softseven/studio-admin/internal/apiclient"
	"github.com/softseven/studio-admin/internal/config"
	"github.com/softseven/studio-admin/internal/errs"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

const usageText = `studioctl
Usage:
  studioctl [-api URL] [-insecure] [-yes] [-env FILE] [-metrics FILE] [-v] <cmd> [args]

Commands:
  version
  login      -email <email> [-password <password>]   (saves token)
  logout
  whoami
  dashboard
  projects   list [-search q] | show -id N | create -title T -category C -thumbnail FILE [...]
             edit -id N [-title T] [-thumbnail FILE] [...] | delete -id N
             reorder -order ID,ID,... | media -id N | upload -id N -file FILE [-title T]
  messages   list [-filter all|unread|starred] [-search q] | open -id N | star -id N
             reply -id N | delete -id N
  settings   show | save [-name S] [-tagline S] [-email S] [...]
  users      list
  roles      list
  profile    show
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run executes one command and returns the process exit code.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("studioctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { fmt.Fprint(stderr, usageText) }
	apiURL := fs.String("api", "", "API base URL (overrides STUDIO_API_URL)")
	insecure := fs.Bool("insecure", false, "skip TLS verification (dev)")
	yes := fs.Bool("yes", false, "answer yes to confirmations")
	envFile := fs.String("env", "", ".env file (default ./.env)")
	metricsFile := fs.String("metrics", "", "write Prometheus metrics to FILE on exit")
	verbose := fs.Bool("v", false, "debug logging")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return 2
	}
	cmd := fs.Arg(0)
	if cmd == "version" {
		fmt.Fprintf(stdout, "studioctl %s (%s)\n", version, buildDate)
		return 0
	}

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	if *apiURL != "" {
		cfg.APIURL = *apiURL
	}
	if *insecure {
		cfg.Insecure = true
	}
	if *verbose {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	a, err := newApp(ctx, cfg, options{yes: *yes, metricsFile: *metricsFile}, stdin, stdout, stderr)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	defer a.close()

	if err := a.dispatch(ctx, cmd, fs.Args()[1:]); err != nil {
		switch {
		case errors.Is(err, errUsage):
			fs.Usage()
			return 2
		case errors.Is(err, errs.ErrCanceled):
			fmt.Fprintln(stderr, "canceled")
		default:
			fmt.Fprintln(stderr, "error:", apiclient.Message(err))
		}
		return 1
	}
	return 0
}
