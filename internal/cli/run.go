// Package cli implements the npygen command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/calvinalkan/npygen/internal/config"
)

// Run is the main entry point. Returns exit code.
//
// args includes the program name. A signal received on sigCh cancels the
// running command; sigCh may be nil.
func Run(_ io.Reader, out io.Writer, errOut io.Writer, args []string, env map[string]string, sigCh <-chan os.Signal) int {
	globals := newGlobalFlags()

	if len(args) > 0 {
		args = args[1:]
	}

	err := globals.set.Parse(args)
	if err != nil {
		fprintln(errOut, "error:", err)
		fprintln(errOut)
		printUsage(errOut, globals, nil)

		return 1
	}

	rest := globals.set.Args()

	if globals.help || len(rest) == 0 {
		printUsage(out, globals, nil)

		return 0
	}

	err = globals.validate()
	if err != nil {
		fprintln(errOut, "error:", err)
		fprintln(errOut)
		printUsage(errOut, globals, nil)

		return 1
	}

	input := globals.input(env)

	cfg, err := config.Load(input)
	if err != nil {
		fprintln(errOut, "error:", err)
		fprintln(errOut)
		printUsage(errOut, globals, nil)

		return 1
	}

	log := newLogger(errOut, globals.verbose)
	defer func() { _ = log.Sync() }()

	commands := allCommands(input, &cfg, log)

	name := rest[0]

	cmd, ok := findCommand(commands, name)
	if !ok {
		fprintln(errOut, "error: unknown command:", name)
		fprintln(errOut)
		printUsage(errOut, globals, commands)

		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if sigCh != nil {
		go func() {
			select {
			case sig := <-sigCh:
				log.Warn("interrupted", zap.Stringer("signal", sig))
				cancel()
			case <-ctx.Done():
			}
		}()
	}

	o := NewIO(out, errOut)

	code := cmd.Run(ctx, o, rest[1:])
	if code != 0 {
		return code
	}

	return o.Finish()
}

type globalFlags struct {
	set        *flag.FlagSet
	workDir    string
	configPath string
	dataDir    string
	ledger     string
	seed       uint64
	verbose    bool
	help       bool
}

func newGlobalFlags() *globalFlags {
	g := &globalFlags{set: flag.NewFlagSet("npygen", flag.ContinueOnError)}

	g.set.SetInterspersed(false)
	g.set.SetOutput(&strings.Builder{})
	g.set.StringVarP(&g.workDir, "cwd", "C", "", "Run as if started in `dir`")
	g.set.StringVarP(&g.configPath, "config", "c", "", "Use the given config `file`")
	g.set.StringVar(&g.dataDir, "data-dir", "", "Override the fixture key prefix (`dir`)")
	g.set.StringVar(&g.ledger, "ledger", "", "Override the ledger `file`")
	g.set.Uint64Var(&g.seed, "seed", 0, "Override the generator seed (`N`)")
	g.set.BoolVarP(&g.verbose, "verbose", "v", false, "Log every fixture to stderr")
	g.set.BoolVarP(&g.help, "help", "h", false, "Show help")

	return g
}

// validate rejects overrides that were given but empty.
func (g *globalFlags) validate() error {
	if g.set.Changed("data-dir") && g.dataDir == "" {
		return config.ErrDataDirEmpty
	}

	if g.set.Changed("ledger") && g.ledger == "" {
		return config.ErrLedgerEmpty
	}

	return nil
}

// input turns the global flags into config overrides. Only flags that were
// given override anything.
func (g *globalFlags) input(env map[string]string) config.Input {
	in := config.Input{
		WorkDirOverride: g.workDir,
		ConfigPath:      g.configPath,
		DataDir:         g.dataDir,
		Ledger:          g.ledger,
		Env:             env,
	}

	if g.set.Changed("seed") {
		seed := g.seed
		in.Seed = &seed
	}

	return in
}

func allCommands(input config.Input, cfg *config.Config, log *zap.Logger) []*Command {
	return []*Command{
		GenerateCmd(input, cfg, log),
		VerifyCmd(cfg),
		LsCmd(cfg),
		InspectCmd(cfg),
		PrintConfigCmd(cfg),
	}
}

func findCommand(commands []*Command, name string) (*Command, bool) {
	for _, c := range commands {
		if c.Name == name {
			return c, true
		}
	}

	return nil, false
}

func fprintln(w io.Writer, a ...any) {
	_, _ = fmt.Fprintln(w, a...)
}

// printUsage prints global help. commands may be nil when config could
// not be loaded; the listing then uses placeholder commands.
func printUsage(w io.Writer, globals *globalFlags, commands []*Command) {
	if commands == nil {
		commands = allCommands(config.Input{}, &config.Config{}, zap.NewNop())
	}

	fprintln(w, "npygen - generate npy test fixtures and their tail ledger")
	fprintln(w)
	fprintln(w, "Usage: npygen [global flags] <command> [args]")
	fprintln(w)
	fprintln(w, "Global flags:")
	_, _ = fmt.Fprint(w, globals.set.FlagUsages())
	fprintln(w)
	printCommands(w, commands)
}
