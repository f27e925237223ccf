package fixture

import (
	"context"
	"fmt"
	"math/rand/v2"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/calvinalkan/npygen/internal/fs"
	"github.com/calvinalkan/npygen/internal/npy"
)

const (
	// DefaultDataDir is the key prefix used when Options.DataDir is empty.
	DefaultDataDir = "./data"

	fixturePerm = 0o644

	// pcgStream is the fixed second PCG seed word; only the first word comes
	// from the user-visible seed.
	pcgStream = 0x6e7079676e
)

// Options configures a [Generator].
type Options struct {
	// Root is the directory fixture keys are resolved against.
	// Empty means the process working directory.
	Root string

	// DataDir prefixes every key. Defaults to [DefaultDataDir].
	DataDir string

	// Seed seeds the random source. Zero picks a seed from the clock; the
	// seed actually used is reported in [Report.Seed].
	Seed uint64

	// Logger receives per-fixture debug entries. Nil disables logging.
	Logger *zap.Logger
}

// Generator synthesizes fixtures and records them in a [Ledger].
type Generator struct {
	fs      fs.FS
	root    string
	dataDir string
	seed    uint64
	rng     *rand.Rand
	log     *zap.Logger
}

// NewGenerator creates a generator writing through fsys.
func NewGenerator(fsys fs.FS, opts Options) *Generator {
	if fsys == nil {
		panic("fsys is nil")
	}

	dataDir := opts.DataDir
	if dataDir == "" {
		dataDir = DefaultDataDir
	}

	seed := opts.Seed
	for seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return &Generator{
		fs:      fsys,
		root:    opts.Root,
		dataDir: dataDir,
		seed:    seed,
		rng:     rand.New(rand.NewPCG(seed, pcgStream)),
		log:     log,
	}
}

// Report summarizes one [Generator.Generate] call. Keys appear in pair
// order.
type Report struct {
	Seed      uint64
	Generated []string
	Skipped   []string

	// Missing lists skipped keys whose fixture file no longer exists. They
	// are not regenerated: the ledger entry stays authoritative.
	Missing []string
}

// Generate creates every pair not yet recorded in ledger and returns the
// extended ledger. The input ledger is not modified.
//
// For each new pair the content is synthesized, its tail recorded, and the
// array written atomically to "<key>.npy" after creating the parent
// directory. The first failure aborts the run; the returned ledger then
// holds only the pairs whose files were written. ctx is checked between
// pairs.
func (g *Generator) Generate(ctx context.Context, ledger Ledger, pairs []Pair) (Ledger, Report, error) {
	out := ledger.Clone()
	report := Report{Seed: g.seed}

	for _, p := range pairs {
		if err := ctx.Err(); err != nil {
			return out, report, err
		}

		key := Key(g.dataDir, p)
		path := Path(g.root, key)

		if out.Has(key) {
			report.Skipped = append(report.Skipped, key)

			exists, err := g.fs.Exists(path)
			if err != nil {
				return out, report, fmt.Errorf("%s: checking fixture: %w", key, err)
			}

			if !exists {
				report.Missing = append(report.Missing, key)
			}

			g.log.Debug("fixture skipped", zap.String("key", key), zap.Bool("file_exists", exists))

			continue
		}

		tail, err := g.generateOne(p, path)
		if err != nil {
			return out, report, fmt.Errorf("%s: %w", key, err)
		}

		out[key] = tail
		report.Generated = append(report.Generated, key)

		g.log.Debug("fixture generated",
			zap.String("key", key),
			zap.Stringer("dtype", p.DType),
			zap.Stringer("shape", p.Shape),
			zap.Int("elements", p.Shape.Size()),
		)
	}

	return out, report, nil
}

func (g *Generator) generateOne(p Pair, path string) ([]float64, error) {
	if err := p.Shape.Validate(); err != nil {
		return nil, err
	}

	a, err := Synthesize(g.rng, p)
	if err != nil {
		return nil, err
	}

	tail := Tail(a)

	data, err := npy.Marshal(a)
	if err != nil {
		return nil, err
	}

	err = g.fs.MkdirAll(filepath.Dir(path), dirPerm)
	if err != nil {
		return nil, fmt.Errorf("creating fixture directory: %w", err)
	}

	err = g.fs.WriteFileAtomic(path, data, fixturePerm)
	if err != nil {
		return nil, fmt.Errorf("writing fixture: %w", err)
	}

	return tail, nil
}

// Path resolves the fixture file of key against root. Absolute keys are
// returned as is.
func Path(root, key string) string {
	name := filepath.FromSlash(FileName(key))
	if filepath.IsAbs(name) || root == "" {
		return name
	}

	return filepath.Join(root, name)
}
