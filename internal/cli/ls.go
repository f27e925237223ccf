package cli

import (
	"context"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/npygen/internal/config"
	"github.com/calvinalkan/npygen/internal/fixture"
	"github.com/calvinalkan/npygen/internal/fs"
)

const (
	statusRecorded = "recorded"
	statusPending  = "pending"
)

// LsCmd returns the ls command.
func LsCmd(cfg *config.Config) *Command {
	flags := flag.NewFlagSet("ls", flag.ContinueOnError)
	flags.Bool("pending", false, "Show only pairs not yet in the ledger")

	return &Command{
		Flags: flags,
		Name:  "ls",
		Group: GroupInspect,
		Short: "List configured fixtures",
		Long:  "List every configured shape and dtype pair with its key and whether the ledger records it.",
		Exec: func(_ context.Context, io *IO, _ []string) error {
			pendingOnly, _ := flags.GetBool("pending")

			return execLs(io, cfg, pendingOnly)
		},
	}
}

func execLs(io *IO, cfg *config.Config, pendingOnly bool) error {
	ledger, err := fixture.LoadLedger(fs.NewReal(), cfg.LedgerAbs)
	if err != nil {
		return err
	}

	for _, p := range cfg.Pairs() {
		key := fixture.Key(cfg.DataDir, p)

		status := statusPending
		if ledger.Has(key) {
			status = statusRecorded
		}

		if pendingOnly && status != statusPending {
			continue
		}

		io.Printf("%-8s  %s\n", status, key)
	}

	return nil
}
