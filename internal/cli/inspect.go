package cli

import (
	"context"
	"path/filepath"
	"strconv"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/npygen/internal/config"
	"github.com/calvinalkan/npygen/internal/fixture"
	"github.com/calvinalkan/npygen/internal/fs"
)

// InspectCmd returns the inspect command.
func InspectCmd(cfg *config.Config) *Command {
	return &Command{
		Flags: flag.NewFlagSet("inspect", flag.ContinueOnError),
		Name:  "inspect",
		Args:  []string{"file.npy"},
		Group: GroupInspect,
		Short: "Show an npy file's header and tail",
		Long: `Decode an npy file and print its dtype, shape, element count and the
tail sample the ledger would record for it.`,
		Exec: func(_ context.Context, io *IO, args []string) error {
			return execInspect(io, cfg, args[0])
		},
	}
}

func execInspect(io *IO, cfg *config.Config, path string) error {
	if !filepath.IsAbs(path) {
		path = filepath.Join(cfg.EffectiveCwd, path)
	}

	a, err := fixture.ReadFixture(fs.NewReal(), path)
	if err != nil {
		return err
	}

	io.Printf("dtype:    %s (%s)\n", a.DType, a.DType.Descr())
	io.Printf("shape:    %s\n", fixture.Shape(a.Shape))
	io.Printf("elements: %d\n", a.Len())
	io.Printf("tail:     %s\n", formatTail(fixture.Tail(a)))

	return nil
}

func formatTail(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}

	return "[" + strings.Join(parts, ", ") + "]"
}
