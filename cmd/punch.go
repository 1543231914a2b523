package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/trivial-punch-clock/internal/model"
)

var punchCmd = &cobra.Command{
	Use:   "punch [id]",
	Short: "Punch in or out of a charge code",
	Long: `Punch the given charge code, or the default code from the config when no
id is given. An inactive code is clocked in, an active one clocked out.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPunch,
}

func runPunch(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	store, cfg, err := openStore()
	if err != nil {
		return err
	}

	var raw string
	switch {
	case len(args) == 1:
		raw = args[0]
	case cfg.HasDefault:
		raw = model.Key(cfg.DefaultCode)
	default:
		fmt.Fprintln(out, "Looks like you haven't set a default charge code.")
		fmt.Fprintln(out, "Provide the id to punch, or set a default with: tpc set default <id>")
		fmt.Fprintln(out, "No code to punch, so exiting...")
		return nil
	}

	code, ok, err := lookup(store, raw)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintf(out, "Cannot find the charge code with id: %s\n", raw)
		return nil
	}

	before := activeLabel(code)
	at := now()
	if err := code.PunchAt(at); err != nil {
		return userError(err)
	}
	if _, err := store.WriteRegistry(code); err != nil {
		return storageError(err)
	}
	if err := store.WriteLedger(code); err != nil {
		return storageError(err)
	}

	fmt.Fprintf(out, "Punching charge code %d, %s at %s.\n", code.ID, code.Name, at.Format("15:04:05"))
	fmt.Fprintf(out, "From %s to %s\n", before, activeLabel(code))
	if code.State() == model.Closed {
		last := code.Intervals[len(code.Intervals)-1]
		fmt.Fprintf(out, "Elapsed: %s\n", formatElapsed(int64(last.Duration().Seconds())))
	}
	return nil
}

func formatElapsed(seconds int64) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm %ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
