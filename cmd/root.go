package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/trivial-punch-clock/internal/config"
	"github.com/Tiliavir/trivial-punch-clock/internal/model"
	"github.com/Tiliavir/trivial-punch-clock/internal/storage"
)

var (
	configPath string
	verbose    bool

	// now is replaced in tests.
	now = time.Now
)

var rootCmd = &cobra.Command{
	Use:   "tpc",
	Short: "Trivial Punch Clock – punch in and out of charge codes",
	Long: `tpc is a single-binary, file-based command-line punch clock.
Charge codes and punch times are stored as human-readable JSON files in ~/.tpc/.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
	},
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		var ee *exitError
		if errors.As(err, &ee) {
			os.Exit(ee.code)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.tpc/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug details to stderr")

	rootCmd.AddCommand(helloCmd)
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(punchCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(entryCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(setCmd)
}

// exitError carries the process exit code: 1 for usage problems, 2 for
// storage failures.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func userError(err error) error {
	return &exitError{code: 1, err: err}
}

func userErrorf(format string, args ...any) error {
	return userError(fmt.Errorf(format, args...))
}

func storageError(err error) error {
	return &exitError{code: 2, err: err}
}

// openStore loads the config and opens the store it points to.
func openStore() (*storage.Store, config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, cfg, storageError(err)
	}
	slog.Debug("using stores", "registry", cfg.RegistryPath, "ledger", cfg.LedgerPath)
	return storage.Open(cfg.RegistryPath, cfg.LedgerPath, storage.WithLogger(slog.Default())), cfg, nil
}

// lookup resolves a user supplied id. An invalid id never reaches the store
// files; ok is false when the id is not registered.
func lookup(store *storage.Store, raw string) (code *model.ChargeCode, ok bool, err error) {
	code, ok, err = store.Lookup(raw)
	if errors.Is(err, storage.ErrInvalidID) {
		return nil, false, userError(err)
	}
	if err != nil {
		return nil, false, storageError(err)
	}
	return code, ok, nil
}

// mustLookup is lookup for commands where a missing code ends the command
// with exit code 1.
func mustLookup(store *storage.Store, raw string) (*model.ChargeCode, error) {
	code, ok, err := lookup(store, raw)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, userErrorf("Cannot find the charge code with id: %s", raw)
	}
	return code, nil
}

// activeLabel renders the tri-state punch state.
func activeLabel(code *model.ChargeCode) string {
	active, known := code.IsActive()
	switch {
	case !known:
		return "None"
	case active:
		return "Active"
	default:
		return "Inactive"
	}
}
