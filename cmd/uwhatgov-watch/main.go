// Command uwhatgov-watch follows the rewrite of a debate as it streams in
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"uwhatgov/internal/client"
	"uwhatgov/internal/platform/config"
	"uwhatgov/internal/platform/logger"

	"github.com/spf13/cobra"
)

// watchFlags hold the session settings, defaults come from WATCH_ env vars
type watchFlags struct {
	baseURL      string
	sessionID    string
	maxAttempts  int
	baseDelay    time.Duration
	idleTimeout  time.Duration
	displayDelay time.Duration
	resume       bool
	persist      bool
}

func defaultFlags(c config.Conf) watchFlags {
	wc := c.Prefix("WATCH_")
	return watchFlags{
		baseURL:      wc.MayString("BASE_URL", "http://localhost:4000"),
		sessionID:    wc.MayString("SESSION_ID", ""),
		maxAttempts:  wc.MayInt("MAX_ATTEMPTS", 5),
		baseDelay:    wc.MayDuration("BASE_DELAY", time.Second),
		idleTimeout:  wc.MayDuration("IDLE_TIMEOUT", 90*time.Second),
		displayDelay: wc.MayDuration("DISPLAY_DELAY", 600*time.Millisecond),
		resume:       wc.MayBool("RESUME", true),
		persist:      wc.MayBool("PERSIST", true),
	}
}

func (f watchFlags) session(debateID string) client.SessionOptions {
	return client.SessionOptions{
		Consumer: client.Options{
			BaseURL:     f.baseURL,
			DebateID:    debateID,
			MaxAttempts: f.maxAttempts,
			BaseDelay:   f.baseDelay,
			IdleTimeout: f.idleTimeout,
			Resume:      f.resume,
			SessionID:   f.sessionID,
		},
		DisplayDelay: f.displayDelay,
		Persist:      f.persist,
	}
}

func newRootCmd() *cobra.Command {
	if err := config.LoadDotenv(); err != nil {
		logger.Get().Warn().Err(err).Msg("ignoring unreadable .env")
	}
	f := defaultFlags(config.New())

	root := &cobra.Command{
		Use:   "uwhatgov-watch",
		Short: "Watch a debate being rewritten",
		Long: `Connects to the rewrite stream of one debate, reconnecting with exponential
backoff when the connection drops, and shows each contribution at a readable pace.
The finished rewrite is saved back to the server unless --persist=false.`,
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&f.baseURL, "base-url", f.baseURL, "API base url (WATCH_BASE_URL)")
	pf.StringVar(&f.sessionID, "session", f.sessionID, "session id sent as X-Session-ID, random when empty")
	pf.IntVar(&f.maxAttempts, "max-attempts", f.maxAttempts, "reconnect attempts before giving up")
	pf.DurationVar(&f.baseDelay, "base-delay", f.baseDelay, "first reconnect delay, doubled per attempt")
	pf.DurationVar(&f.idleTimeout, "idle-timeout", f.idleTimeout, "drop a silent connection after this long")
	pf.DurationVar(&f.displayDelay, "display-delay", f.displayDelay, "pause between contributions")
	pf.BoolVar(&f.resume, "resume", f.resume, "reconnect from the last shown segment instead of restarting")
	pf.BoolVar(&f.persist, "persist", f.persist, "save the finished rewrite")

	root.AddCommand(
		&cobra.Command{
			Use:   "watch <debate-id>",
			Short: "Print contributions line by line",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ui := newLineUI(cmd.OutOrStdout())
				return client.NewSession(f.session(args[0]), ui).Run(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "tui <debate-id>",
			Short: "Full screen view with a composing indicator",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runTUI(cmd.Context(), f.session(args[0]))
			},
		},
	)
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
