package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/calvinalkan/npygen/internal/config"
	"github.com/calvinalkan/npygen/internal/fixture"
	"github.com/calvinalkan/npygen/internal/fs"
)

// GenerateCmd returns the generate command. input is what cfg was loaded
// from; a --seed flag reloads it with the seed set.
func GenerateCmd(input config.Input, cfg *config.Config, log *zap.Logger) *Command {
	flags := flag.NewFlagSet("generate", flag.ContinueOnError)
	flags.Uint64("seed", 0, "Seed `N` for fixture content (0 picks one from the clock)")
	flags.Duration("wait", 0, "Wait up to `duration` for a running generate to release the ledger")

	return &Command{
		Flags: flags,
		Name:  "generate",
		Group: GroupFixtures,
		Short: "Create fixtures missing from the ledger",
		Long: `Create a fixture for every configured shape and dtype that is not yet
recorded in the ledger, then rewrite the ledger with the new tail samples.
Recorded fixtures are never rewritten.`,
		Exec: func(ctx context.Context, io *IO, _ []string) error {
			run := cfg

			if flags.Changed("seed") {
				seed, _ := flags.GetUint64("seed")
				input.Seed = &seed

				reloaded, err := config.Load(input)
				if err != nil {
					return err
				}

				run = &reloaded
			}

			wait, _ := flags.GetDuration("wait")

			return execGenerate(ctx, io, run, wait, log)
		},
	}
}

var errGenerateRunning = errors.New("another generate run holds the ledger lock")

func execGenerate(ctx context.Context, io *IO, cfg *config.Config, wait time.Duration, log *zap.Logger) (err error) {
	fsys := fs.NewReal()
	locker := fs.NewLocker(fsys)

	var lock *fs.Lock
	if wait > 0 {
		lock, err = locker.LockWithTimeout(cfg.LockPath(), wait)
	} else {
		lock, err = locker.TryLock(cfg.LockPath())
	}

	if err != nil {
		if errors.Is(err, fs.ErrWouldBlock) {
			return fmt.Errorf("%w: %s", errGenerateRunning, cfg.LockPath())
		}

		return fmt.Errorf("locking ledger: %w", err)
	}

	defer func() {
		err = errors.Join(err, lock.Close())
	}()

	ledger, err := fixture.LoadLedger(fsys, cfg.LedgerAbs)
	if err != nil {
		return err
	}

	gen := fixture.NewGenerator(fsys, fixture.Options{
		Root:    cfg.EffectiveCwd,
		DataDir: cfg.DataDir,
		Seed:    cfg.Seed,
		Logger:  log,
	})

	updated, report, err := gen.Generate(ctx, ledger, cfg.Pairs())
	if err != nil {
		return err
	}

	err = updated.Save(fsys, cfg.LedgerAbs)
	if err != nil {
		return err
	}

	log.Debug("ledger saved", zap.String("path", cfg.LedgerAbs), zap.Int("entries", len(updated)))

	for _, key := range report.Missing {
		io.Warn("fixture file missing for recorded key "+key,
			"remove the key from the ledger and run generate again to recreate it")
	}

	for _, key := range report.Generated {
		io.Println("+", key)
	}

	io.Printf("generated %d, skipped %d (seed %d)\n", len(report.Generated), len(report.Skipped), report.Seed)

	return nil
}
