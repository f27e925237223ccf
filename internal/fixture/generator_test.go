package fixture_test

import (
	"context"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/npygen/internal/fixture"
	"github.com/calvinalkan/npygen/internal/fs"
	"github.com/calvinalkan/npygen/internal/npy"
)

var smallShapes = []fixture.Shape{{10}, {3}, {2, 3}, {2, 2, 2, 2, 2}}

func newGenerator(t *testing.T, fsys fs.FS, root string, seed uint64) *fixture.Generator {
	t.Helper()

	return fixture.NewGenerator(fsys, fixture.Options{Root: root, Seed: seed})
}

func readFixture(t *testing.T, root, key string) *npy.Array {
	t.Helper()

	a, err := fixture.ReadFixture(fs.NewReal(), fixture.Path(root, key))
	require.NoError(t, err)

	return a
}

func TestGenerate_Int8Vector(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	pairs := []fixture.Pair{{Shape: fixture.Shape{10}, DType: npy.Int8}}

	ledger, report, err := newGenerator(t, fs.NewReal(), root, 1).Generate(t.Context(), fixture.Ledger{}, pairs)
	require.NoError(t, err)

	assert.Equal(t, []string{"./data/10-int8"}, report.Generated)
	require.Len(t, ledger["./data/10-int8"], 5)

	for _, v := range ledger["./data/10-int8"] {
		assert.Equal(t, float64(int8(v)), v, "int8 sample %v", v)
	}

	a := readFixture(t, root, "./data/10-int8")
	assert.Equal(t, npy.Int8, a.DType)
	assert.Equal(t, []int{10}, a.Shape)
	assert.Equal(t, 10, a.Len())
	assert.FileExists(t, filepath.Join(root, "data", "10-int8.npy"))
}

func TestGenerate_Complex64RecordsTenComponents(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	pairs := []fixture.Pair{{Shape: fixture.Shape{4, 4, 4, 4, 4}, DType: npy.Complex64}}

	ledger, _, err := newGenerator(t, fs.NewReal(), root, 1).Generate(t.Context(), fixture.Ledger{}, pairs)
	require.NoError(t, err)

	key := "./data/4x4x4x4x4-complex64"
	require.Len(t, ledger[key], 10)

	a := readFixture(t, root, key)
	assert.Equal(t, 1024, a.Len())
	assert.Equal(t, fixture.Tail(a), ledger[key])
}

func TestGenerate_OneEntryAndFilePerPair(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	pairs := fixture.Pairs(smallShapes, npy.DTypes())

	ledger, report, err := newGenerator(t, fs.NewReal(), root, 5).Generate(t.Context(), fixture.Ledger{}, pairs)
	require.NoError(t, err)

	assert.Len(t, ledger, len(pairs))
	assert.Len(t, report.Generated, len(pairs))
	assert.Empty(t, report.Skipped)

	for _, p := range pairs {
		key := fixture.Key(fixture.DefaultDataDir, p)
		require.True(t, ledger.Has(key), key)

		a := readFixture(t, root, key)
		assert.Equal(t, p.DType, a.DType, key)
		assert.Equal(t, []int(p.Shape), a.Shape, key)
		assert.Equal(t, fixture.Tail(a), ledger[key], key)

		if p.DType == npy.Int16 || p.DType == npy.Int64 {
			for _, v := range ledger[key] {
				assert.True(t, v >= 0 && v < 255, "%s sample %v outside [0, 255)", key, v)
			}
		}
	}
}

func TestGenerate_SecondRunIsNoop(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	faulty := fs.NewFaulty(fs.NewReal())
	pairs := fixture.Pairs(smallShapes, []npy.DType{npy.Int8, npy.Float16, npy.Complex128})

	first, _, err := newGenerator(t, faulty, root, 9).Generate(t.Context(), fixture.Ledger{}, pairs)
	require.NoError(t, err)

	before := snapshotFiles(t, root)

	faulty.Reset()

	second, report, err := newGenerator(t, faulty, root, 10).Generate(t.Context(), first, pairs)
	require.NoError(t, err)

	assert.Empty(t, report.Generated)
	assert.Len(t, report.Skipped, len(pairs))
	assert.Empty(t, report.Missing)
	assert.Empty(t, faulty.Writes(), "second run must not write fixtures")

	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("ledger changed on second run (-first +second):\n%s", diff)
	}

	if diff := cmp.Diff(before, snapshotFiles(t, root)); diff != "" {
		t.Fatalf("fixture files changed on second run (-before +after):\n%s", diff)
	}
}

func TestGenerate_KeepsPreexistingEntry(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	key := "./data/65x65-float32"
	path := fixture.Path(root, key)

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("written by an earlier run"), 0o644))

	old := time.Now().Add(-time.Hour).Truncate(time.Second)
	require.NoError(t, os.Chtimes(path, old, old))

	recorded := fixture.Ledger{key: {1, 2, 3, 4, 5}}
	pairs := []fixture.Pair{
		{Shape: fixture.Shape{65, 65}, DType: npy.Float32},
		{Shape: fixture.Shape{65, 65}, DType: npy.Float64},
	}

	ledger, report, err := newGenerator(t, fs.NewReal(), root, 3).Generate(t.Context(), recorded, pairs)
	require.NoError(t, err)

	assert.Equal(t, []string{key}, report.Skipped)
	assert.Equal(t, []string{"./data/65x65-float64"}, report.Generated)
	assert.Equal(t, []float64{1, 2, 3, 4, 5}, ledger[key])

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "written by an earlier run", string(content))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.True(t, info.ModTime().Equal(old), "mtime changed: %v", info.ModTime())
}

func TestGenerate_DoesNotMutateInputLedger(t *testing.T) {
	t.Parallel()

	in := fixture.Ledger{"./data/3-int8": {1, 2, 3}}
	pairs := []fixture.Pair{{Shape: fixture.Shape{3}, DType: npy.Int64}}

	out, _, err := newGenerator(t, fs.NewReal(), t.TempDir(), 1).Generate(t.Context(), in, pairs)
	require.NoError(t, err)

	assert.Len(t, in, 1)
	assert.Len(t, out, 2)
}

func TestGenerate_ReportsMissingFilesWithoutRegenerating(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	recorded := fixture.Ledger{"./data/10-int16": {1, 2, 3, 4, 5}}
	pairs := []fixture.Pair{{Shape: fixture.Shape{10}, DType: npy.Int16}}

	ledger, report, err := newGenerator(t, fs.NewReal(), root, 1).Generate(t.Context(), recorded, pairs)
	require.NoError(t, err)

	assert.Equal(t, []string{"./data/10-int16"}, report.Missing)
	assert.Equal(t, recorded, ledger)
	assert.NoFileExists(t, fixture.Path(root, "./data/10-int16"))
}

func TestGenerate_WriteFailureAborts(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	faulty := fs.NewFaulty(fs.NewReal())
	faulty.Fail(fs.OpWriteFileAtomic, "10-float32", syscall.EIO)

	pairs := fixture.Pairs([]fixture.Shape{{10}}, []npy.DType{npy.Int8, npy.Float32, npy.Float64})

	ledger, report, err := newGenerator(t, faulty, root, 1).Generate(t.Context(), fixture.Ledger{}, pairs)
	require.Error(t, err)
	assert.True(t, fs.IsInjected(err), "err=%v", err)
	assert.Contains(t, err.Error(), "./data/10-float32")

	assert.Equal(t, []string{"./data/10-int8"}, ledger.Keys())
	assert.Equal(t, []string{"./data/10-int8"}, report.Generated)
	assert.NoFileExists(t, fixture.Path(root, "./data/10-float32"))
	assert.NoFileExists(t, fixture.Path(root, "./data/10-float64"))
}

func TestGenerate_DirectoryFailureAborts(t *testing.T) {
	t.Parallel()

	faulty := fs.NewFaulty(fs.NewReal())
	faulty.Fail(fs.OpMkdirAll, "data", syscall.EACCES)

	pairs := []fixture.Pair{{Shape: fixture.Shape{10}, DType: npy.Int8}}

	ledger, _, err := newGenerator(t, faulty, t.TempDir(), 1).Generate(t.Context(), fixture.Ledger{}, pairs)
	require.ErrorIs(t, err, syscall.EACCES)
	assert.Empty(t, ledger)
}

func TestGenerate_StopsWhenContextCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	pairs := []fixture.Pair{{Shape: fixture.Shape{10}, DType: npy.Int8}}

	ledger, report, err := newGenerator(t, fs.NewReal(), t.TempDir(), 1).Generate(ctx, fixture.Ledger{}, pairs)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, ledger)
	assert.Empty(t, report.Generated)
}

func TestGenerate_SameSeedSameFiles(t *testing.T) {
	t.Parallel()

	pairs := fixture.Pairs(smallShapes, npy.DTypes())
	rootA, rootB := t.TempDir(), t.TempDir()

	ledgerA, reportA, err := newGenerator(t, fs.NewReal(), rootA, 1234).Generate(t.Context(), fixture.Ledger{}, pairs)
	require.NoError(t, err)

	ledgerB, _, err := newGenerator(t, fs.NewReal(), rootB, 1234).Generate(t.Context(), fixture.Ledger{}, pairs)
	require.NoError(t, err)

	assert.Equal(t, uint64(1234), reportA.Seed)
	assert.Equal(t, ledgerA, ledgerB)

	if diff := cmp.Diff(fileContents(t, rootA), fileContents(t, rootB)); diff != "" {
		t.Fatalf("fixtures differ for the same seed:\n%s", diff)
	}
}

func TestGenerate_ZeroSeedPicksOne(t *testing.T) {
	t.Parallel()

	_, report, err := newGenerator(t, fs.NewReal(), t.TempDir(), 0).Generate(t.Context(), fixture.Ledger{}, nil)
	require.NoError(t, err)
	assert.NotZero(t, report.Seed)
}

func TestGenerate_CustomDataDir(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	gen := fixture.NewGenerator(fs.NewReal(), fixture.Options{Root: root, DataDir: "fixtures/npy", Seed: 1})
	pairs := []fixture.Pair{{Shape: fixture.Shape{3}, DType: npy.Float64}}

	ledger, _, err := gen.Generate(t.Context(), fixture.Ledger{}, pairs)
	require.NoError(t, err)

	assert.Equal(t, []string{"fixtures/npy/3-float64"}, ledger.Keys())
	assert.FileExists(t, filepath.Join(root, "fixtures", "npy", "3-float64.npy"))
}

type fileState struct {
	Content string
	ModTime time.Time
}

// snapshotFiles maps every file under root to its content and mtime.
func snapshotFiles(t *testing.T, root string) map[string]fileState {
	t.Helper()

	out := map[string]fileState{}

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		rel, _ := filepath.Rel(root, path)
		out[rel] = fileState{Content: string(data), ModTime: info.ModTime()}

		return nil
	})
	require.NoError(t, err)

	return out
}

func fileContents(t *testing.T, root string) map[string]string {
	t.Helper()

	out := map[string]string{}
	for rel, st := range snapshotFiles(t, root) {
		out[rel] = st.Content
	}

	return out
}
