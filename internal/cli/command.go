package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	flag "github.com/spf13/pflag"
)

// Group is the help section a command is listed under.
type Group int

// Command groups, in help order.
const (
	GroupFixtures Group = iota // commands that write or check fixtures
	GroupInspect               // read-only views of config, ledger and files
)

var groupTitles = map[Group]string{
	GroupFixtures: "Fixture commands:",
	GroupInspect:  "Inspection commands:",
}

var errArgCount = errors.New("wrong number of arguments")

// Command is one npygen subcommand.
type Command struct {
	// Flags defines command-specific flags.
	Flags *flag.FlagSet

	// Name is the word typed after "npygen".
	Name string

	// Args names the positional arguments, e.g. "file.npy". Run rejects
	// any other number of arguments.
	Args []string

	// Short is a one-line description for the global help listing.
	Short string

	// Long is the full description shown in command help.
	// If empty, Short is used instead.
	Long string

	Group Group

	// Exec runs the command after flags and arguments are checked.
	Exec func(ctx context.Context, o *IO, args []string) error
}

// Usage renders "name <arg>... [--flag ...]" from the command's arguments
// and flags.
func (c *Command) Usage() string {
	parts := []string{c.Name}

	for _, a := range c.Args {
		parts = append(parts, "<"+a+">")
	}

	c.Flags.VisitAll(func(f *flag.Flag) {
		if f.Value.Type() == "bool" {
			parts = append(parts, "[--"+f.Name+"]")

			return
		}

		name, _ := flag.UnquoteUsage(f)
		if name == "" {
			name = "value"
		}

		parts = append(parts, "[--"+f.Name+" "+name+"]")
	})

	return strings.Join(parts, " ")
}

// HelpLine returns the short help line for the main usage display.
func (c *Command) HelpLine() string {
	return fmt.Sprintf("  %-40s %s", c.Usage(), c.Short)
}

// PrintHelp prints the full help output for "npygen <cmd> --help".
func (c *Command) PrintHelp(o *IO) {
	o.Println("Usage: npygen", c.Usage())
	o.Println()

	desc := c.Long
	if desc == "" {
		desc = c.Short
	}

	o.Println(desc)

	if c.Flags.HasFlags() {
		o.Println()
		o.Println("Flags:")
		o.Printf("%s", c.Flags.FlagUsages())
	}
}

// Run parses flags, checks the argument count and executes the command.
// Returns exit code.
func (c *Command) Run(ctx context.Context, o *IO, args []string) int {
	c.Flags.SetOutput(&strings.Builder{}) // discard pflag output

	err := c.Flags.Parse(args)
	if err == nil && c.Flags.NArg() != len(c.Args) {
		err = fmt.Errorf("%w: %s takes %d, got %d", errArgCount, c.Name, len(c.Args), c.Flags.NArg())
	}

	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			c.PrintHelp(o)

			return 0
		}

		o.ErrPrintln("error:", err)
		o.ErrPrintln()
		c.PrintHelp(o.Stderr())

		return 1
	}

	err = c.Exec(ctx, o, c.Flags.Args())
	if err != nil {
		o.ErrPrintln("error:", err)

		return 1
	}

	return 0
}

// printCommands lists commands under their group titles.
func printCommands(w io.Writer, commands []*Command) {
	for i, g := range []Group{GroupFixtures, GroupInspect} {
		if i > 0 {
			fprintln(w)
		}

		fprintln(w, groupTitles[g])

		for _, c := range commands {
			if c.Group == g {
				fprintln(w, c.HelpLine())
			}
		}
	}
}
