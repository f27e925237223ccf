package cli_test

import (
	"testing"

	"github.com/calvinalkan/npygen/internal/cli"
)

func Test_Inspect_Prints_Header_And_Tail_When_Invoked(t *testing.T) {
	t.Parallel()

	c := newSmallCLI(t)
	c.MustRun("generate")

	stdout := c.MustRun("inspect", "data/2x3-complex64.npy")

	cli.AssertContains(t, stdout, "dtype:    complex64 (<c8)")
	cli.AssertContains(t, stdout, "shape:    2x3")
	cli.AssertContains(t, stdout, "elements: 6")
	cli.AssertContains(t, stdout, "tail:     [")
}

func Test_Inspect_Requires_File_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stderr := c.MustFail("inspect")

	cli.AssertContains(t, stderr, "wrong number of arguments: inspect takes 1, got 0")
	cli.AssertContains(t, stderr, "Usage: npygen inspect <file.npy>")
}

func Test_Inspect_Rejects_Extra_Files_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stderr := c.MustFail("inspect", "a.npy", "b.npy")

	cli.AssertContains(t, stderr, "inspect takes 1, got 2")
}

func Test_Inspect_Missing_File_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stderr := c.MustFail("inspect", "nope.npy")

	cli.AssertContains(t, stderr, "fixture file missing")
}

func Test_Inspect_Rejects_Non_Npy_File_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.WriteFile("notes.txt", "definitely not numpy")

	stderr := c.MustFail("inspect", "notes.txt")

	cli.AssertContains(t, stderr, "not an npy file")
}
