// Command marketctl talks to the marketplace HTTP API.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/client"
	identity "github.com/Abdurahmanit/GroupProject/marketplace-service/internal/identity/domain"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/session"

	flag "github.com/spf13/pflag"
	"go.uber.org/zap"
)

const usageText = `usage: marketctl [global flags] <command> [args]

commands:
  signup --email E --password P [--name N]
  signin --email E --password P
  federated <id-token>
  signout
  me
  meta
  list [approved|mine|pending]
  get <id>
  create --title T --price P --category C [--description D] --image FILE...
  update <id> [--title T] [--description D] [--price P] [--category C]
  delete <id>
  sold <id>
  approve <id>
  reject <id>

global flags:
`

type app struct {
	api     *client.Client
	session *session.Session
	log     *logger.Logger
	json    bool
}

func envOr(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

func main() {
	global := flag.NewFlagSet("marketctl", flag.ContinueOnError)
	global.SetInterspersed(false)
	baseURL := global.String("url", envOr("MARKETCTL_URL"), "API base URL (default http://localhost:8080)")
	token := global.String("token", envOr("MARKETCTL_TOKEN", "MARKET_TOKEN"), "session token")
	timeout := global.Duration("timeout", 60*time.Second, "request timeout")
	asJSON := global.Bool("json", false, "print JSON instead of tables")
	verbose := global.BoolP("verbose", "v", false, "debug logging")
	global.Usage = func() {
		fmt.Fprint(os.Stderr, usageText)
		global.PrintDefaults()
	}
	if err := global.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}
	if global.NArg() == 0 {
		global.Usage()
		os.Exit(2)
	}
	if *baseURL == "" {
		*baseURL = "http://localhost:8080"
	}

	level := "warn"
	if *verbose {
		level = "debug"
	}
	log := logger.NewLogger(logger.LoggerConfig{Level: level, Format: "console"})
	defer func() { _ = log.Sync() }()

	api, err := client.New(*baseURL)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	sess := session.New(api, api, log)
	defer sess.Close()
	unsubscribe := sess.Subscribe(func(id *identity.Identity) {
		if id == nil {
			log.Debug("Signed out")
			return
		}
		log.Debug("Signed in", zap.String("identity_id", id.ID), zap.String("email", id.Email), zap.Bool("is_admin", id.IsAdmin))
	})
	defer unsubscribe()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	a := &app{api: api, session: sess, log: log, json: *asJSON}
	if *token != "" {
		if _, err := sess.Restore(ctx, *token); err != nil {
			log.Warn("Saved token rejected, continuing signed out", zap.Error(err))
		}
	}

	if err := a.run(ctx, global.Arg(0), global.Args()[1:]); err != nil {
		var apiErr *client.APIError
		if errors.As(err, &apiErr) && len(apiErr.Fields) > 0 {
			fmt.Fprintf(os.Stderr, "error: %s\n", apiErr.Message)
			for f, msg := range apiErr.Fields {
				fmt.Fprintf(os.Stderr, "  %s: %s\n", f, msg)
			}
		} else {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		cancel()
		os.Exit(1)
	}
}
