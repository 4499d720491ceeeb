// Command equitylens is a terminal client for the equity research
// assistant API: authenticate, run research queries through the
// suggestion flow, and ask questions against uploaded PDF documents.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/equitylens/equitylens/internal/api"
	"github.com/equitylens/equitylens/internal/research"
	"github.com/equitylens/equitylens/pkg/config"
	"github.com/equitylens/equitylens/pkg/logging"
	"github.com/equitylens/equitylens/pkg/session"
)

// Version is set via ldflags.
var Version = "dev"

// app carries the wired client components shared by all commands.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	store    *session.Store
	research *research.Client
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	var configPath string
	var verbose bool

	root := &cobra.Command{
		Use:     "equitylens",
		Short:   "Equity research assistant client",
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(configPath, verbose)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.equitylens/config.yaml)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "mirror logs to the console")

	root.AddCommand(
		newLoginCmd(a),
		newRegisterCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newChatCmd(a),
		newPDFCmd(a),
	)
	return root
}

// init loads configuration and wires the gateway, session store and
// research client. The token source closes over the store so every
// request picks up the current token.
func (a *app) init(configPath string, verbose bool) error {
	if configPath == "" {
		path, err := config.DefaultPath()
		if err != nil {
			return err
		}
		configPath = path
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if verbose {
		cfg.Verbose = true
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	a.logger = logging.New(cfg.LogPath(), cfg.Verbose)

	gateway, err := api.NewClient(cfg.APIURL, func() string {
		if a.store == nil {
			return ""
		}
		return a.store.Token()
	}, api.WithLogger(a.logger.Named("api")))
	if err != nil {
		return err
	}

	a.store, err = session.NewStore(cfg.StateDir, gateway,
		session.WithLogger(a.logger.Named("session")))
	if err != nil {
		return err
	}

	a.research = research.NewClient(gateway)
	return nil
}

// requireAuth verifies the stored token and refuses when the session
// does not resolve to an authenticated user.
func (a *app) requireAuth(cmd *cobra.Command) error {
	a.store.Verify(cmd.Context())
	if !a.store.IsAuthenticated() {
		return fmt.Errorf("not logged in; run `equitylens login` first")
	}
	return nil
}
