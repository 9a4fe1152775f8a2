// blockmatmul multiplies two matrices stored as text files, one entry per line
// ("<row> <column>\t<value>"), dividing the product in blocks computed independently.
//
// Example:
//
//	blockmatmul -a=data/A -b=data/B -rows=1000 -inner=500 -row_block=100 -col_block=50 -out=C.txt
//
// Inputs can be files or directories of parts, and several can be given separated by commas.
// Use -v=1 or -v=2 for more logging.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/gomlx/blockmatmul/pkg/blockmatmul"
	"github.com/gomlx/blockmatmul/pkg/mapreduce"
	"github.com/gomlx/blockmatmul/pkg/matrixio"
	"github.com/gomlx/blockmatmul/pkg/support/fsutil"
	"github.com/gomlx/blockmatmul/pkg/support/xslices"
	"github.com/gomlx/exceptions"
	"github.com/google/uuid"
	"github.com/janpfeifer/must"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

var (
	flagA = xslices.Flag("a", nil, "Comma-separated files or directories with the entries of A.", fsutil.ExpandHome)
	flagB = xslices.Flag("b", nil, "Comma-separated files or directories with the entries of B.", fsutil.ExpandHome)

	flagOut = flag.String("out", "", "File where to write the product. If empty, it is written to the standard output.")

	flagRows  = flag.Int("rows", 0, "Number of rows of A and of the product (I).")
	flagInner = flag.Int("inner", 0, "Number of columns of A, and of rows of B (K).")
	flagCols  = flag.Int("cols", 0, "Number of columns of B and of the product (J). Defaults to -inner.")

	flagRowBlock = flag.Int("row_block", 0, "Number of rows of each output block (IB).")
	flagColBlock = flag.Int("col_block", 0, "Number of columns of each output block (KB).")

	flagParallelism = flag.Int("parallelism", runtime.NumCPU(),
		"Maximum number of map tasks or blocks computed at the same time. 0 runs everything sequentially.")
	flagPartitions = flag.Int("partitions", runtime.NumCPU(), "Number of shuffle partitions.")

	flagZeroFill = flag.Bool("zero_fill", false, "Take absent entries as 0, instead of failing.")
	flagVerify   = flag.Bool("verify", false,
		"Verify the product against a dense in-memory multiplication. Only for matrices that fit in memory.")
	flagProgress = flag.Bool("progress", true, "Display a progress bar of the blocks computed.")
)

// verifyTolerance accepts a difference of one unit in the last output decimal place, caused
// by a sum crossing a rounding boundary.
const verifyTolerance = 0.01 + 1e-9

// options of one run, taken from the flags.
type options struct {
	aPaths, bPaths []string
	outPath        string
	cfg            blockmatmul.Config
	parallelism    int
	partitions     int
	verify         bool
	progress       bool
}

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	if flag.NArg() > 0 {
		klog.Errorf("Unexpected arguments %q. See 'blockmatmul -help'.", flag.Args())
		os.Exit(1)
	}
	opts, err := optionsFromFlags()
	if err != nil {
		klog.Errorf("%v. See 'blockmatmul -help'.", err)
		os.Exit(1)
	}

	// With the product going to the standard output, everything else goes to the standard error.
	console := os.Stdout
	if opts.outPath == "" {
		console = os.Stderr
	}
	_, _ = fmt.Fprintf(console, "Start: %s\n", time.Now().Format(time.RFC3339))
	rep, err := run(context.Background(), opts)
	_, _ = fmt.Fprintf(console, "End:   %s\n", time.Now().Format(time.RFC3339))
	if err != nil {
		klog.Errorf("Failed: %+v", err)
		os.Exit(1)
	}
	_, _ = fmt.Fprintln(console, renderSummary(rep))
}

// optionsFromFlags validates the flags and converts them to options.
func optionsFromFlags() (opts options, err error) {
	if len(*flagA) == 0 || len(*flagB) == 0 {
		return opts, errors.New("both -a and -b must be given")
	}
	cfg, err := blockmatmul.NewConfig(*flagRows, *flagInner, *flagRowBlock, *flagColBlock)
	if err != nil {
		return opts, err
	}
	if *flagCols > 0 {
		if cfg, err = cfg.WithCols(*flagCols); err != nil {
			return opts, err
		}
	}
	if *flagZeroFill {
		cfg = cfg.WithMissingPolicy(blockmatmul.ZeroFill)
	}
	outPath, err := fsutil.ExpandHome(*flagOut)
	if err != nil {
		return opts, err
	}
	return options{
		aPaths:      *flagA,
		bPaths:      *flagB,
		outPath:     outPath,
		cfg:         cfg,
		parallelism: *flagParallelism,
		partitions:  *flagPartitions,
		verify:      *flagVerify,
		progress:    *flagProgress,
	}, nil
}

// report of a finished run.
type report struct {
	jobID       string
	cfg         blockmatmul.Config
	aFiles      int
	bFiles      int
	stats       *mapreduce.Stats
	parallelism int
	partitions  int
	numOutputs  int
	outPath     string
	outBytes    int64
	verified    bool
	elapsed     time.Duration
}

// run multiplies the matrices and writes the product. Any failure is returned as an error.
func run(ctx context.Context, opts options) (rep *report, err error) {
	err = exceptions.TryCatch[error](func() { rep = mustRun(ctx, opts) })
	if err != nil {
		rep = nil
	}
	return
}

// mustRun implements run, panicking with an error on failure.
func mustRun(ctx context.Context, opts options) *report {
	start := time.Now()
	rep := &report{jobID: uuid.NewString(), cfg: opts.cfg, outPath: opts.outPath}
	klog.Infof("Job %s: %s", rep.jobID, opts.cfg)
	klog.Infof("Job %s: M=%d row blocks, N=%d column blocks", rep.jobID, opts.cfg.M(), opts.cfg.N())

	a := must.M1(matrixio.OpenInput(opts.aPaths...))
	b := must.M1(matrixio.OpenInput(opts.bPaths...))
	rep.aFiles, rep.bFiles = a.NumSplits(), b.NumSplits()
	klog.V(1).Infof("Job %s: A from %q, B from %q", rep.jobID, a.Files(), b.Files())

	engine := mapreduce.New().WithParallelism(opts.parallelism).WithPartitions(opts.partitions)
	rep.parallelism, rep.partitions = engine.Parallelism(), engine.Partitions()
	var bar *blocksProgress
	if opts.progress {
		bar = newBlocksProgress(os.Stderr, opts.cfg.NumBlocks())
		engine.WithProgress(bar.update)
	}
	output, stats, err := blockmatmul.Multiply(ctx, engine, opts.cfg, a, b)
	if bar != nil {
		bar.finish()
	}
	must.M(err)
	rep.stats = stats
	rep.numOutputs = len(output)

	if opts.outPath == "" {
		must.M(matrixio.WriteEntries(os.Stdout, output))
	} else {
		must.M(matrixio.WriteFile(opts.outPath, output))
		rep.outBytes = must.M1(os.Stat(opts.outPath)).Size()
	}

	if opts.verify {
		aEntries := must.M1(a.Entries(ctx))
		bEntries := must.M1(b.Entries(ctx))
		must.M(blockmatmul.VerifyProduct(opts.cfg, aEntries, bEntries, output, verifyTolerance))
		rep.verified = true
		klog.Infof("Job %s: product verified against dense multiplication", rep.jobID)
	}
	rep.elapsed = time.Since(start)
	klog.V(1).Infof("Job %s: %s", rep.jobID, stats)
	return rep
}
