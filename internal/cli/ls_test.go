package cli_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/calvinalkan/npygen/internal/cli"
)

func Test_Ls_Shows_Pending_Before_Generate_When_Invoked(t *testing.T) {
	t.Parallel()

	c := newSmallCLI(t)
	stdout := c.MustRun("ls")

	want := `pending   ./data/10-int8
pending   ./data/10-float16
pending   ./data/10-complex64
pending   ./data/2x3-int8
pending   ./data/2x3-float16
pending   ./data/2x3-complex64`
	assert.Equal(t, want, stdout)
}

func Test_Ls_Shows_Recorded_And_Pending_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.WriteConfig(`{"shapes": [[3]], "dtypes": ["float64"]}`)
	c.MustRun("generate")

	c.WriteConfig(`{"shapes": [[3]], "dtypes": ["float64", "int16"]}`)

	stdout := c.MustRun("ls")
	cli.AssertContains(t, stdout, "recorded  ./data/3-float64")
	cli.AssertContains(t, stdout, "pending   ./data/3-int16")

	stdout = c.MustRun("ls", "--pending")
	assert.Equal(t, "pending   ./data/3-int16", stdout)
}

func Test_Ls_Default_Config_Lists_All_Pairs_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stdout := c.MustRun("ls")

	cli.AssertContains(t, stdout, "./data/10-int8\n")
	cli.AssertContains(t, stdout, "./data/65x65-float32\n")
	cli.AssertContains(t, stdout, "./data/100x100x100-complex128\n")
	cli.AssertContains(t, stdout, "./data/4x4x4x4x4-complex64\n")
}
