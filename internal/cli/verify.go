package cli

import (
	"context"
	"fmt"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/npygen/internal/config"
	"github.com/calvinalkan/npygen/internal/fixture"
	"github.com/calvinalkan/npygen/internal/fs"
)

// VerifyCmd returns the verify command.
func VerifyCmd(cfg *config.Config) *Command {
	return &Command{
		Flags: flag.NewFlagSet("verify", flag.ContinueOnError),
		Name:  "verify",
		Group: GroupFixtures,
		Short: "Check fixtures against the ledger",
		Long: `Decode the fixture of every ledger key and compare its trailing values
with the recorded sample. Exits 1 if any fixture is missing or differs.`,
		Exec: func(_ context.Context, io *IO, _ []string) error {
			return execVerify(io, cfg)
		},
	}
}

func execVerify(io *IO, cfg *config.Config) error {
	fsys := fs.NewReal()

	ledger, err := fixture.LoadLedger(fsys, cfg.LedgerAbs)
	if err != nil {
		return err
	}

	if len(ledger) == 0 {
		io.Warn("ledger "+cfg.LedgerAbs+" has no fixtures", "run generate first")

		return nil
	}

	failed := 0

	for _, c := range fixture.Verify(fsys, cfg.EffectiveCwd, ledger) {
		if c.Err != nil {
			failed++

			io.Printf("FAIL %s: %v\n", c.Key, c.Err)

			continue
		}

		io.Println("ok", c.Key)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d fixtures failed verification", failed, len(ledger))
	}

	return nil
}
