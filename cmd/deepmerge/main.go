// deepmerge merges N deep images front-to-back into a flattened PPM
// or a deep deepexr file.
//
// Usage:
//
//	deepmerge [options] <input.dex> [<input.dex> ...]
//	deepmerge --demo WxH [options]
//
// Options:
//
//	-o, --out <file>       Flattened PPM output path (default stdout).
//	    --deep-out <file>   Write the merged deep image instead of flattening.
//	    --no-merge          Disable coincident-sample merging (preserve duplicates).
//	    --epsilon <float>   Coincidence tolerance (default 1e-3).
//	    --threads <n>       Merger goroutine count (default: auto).
//	    --window <n>        Sliding window size (default 48).
//	    --demo WxH          Use a synthetic two-source demo instead of file inputs.
//	-q, --quiet             Suppress progress and verbose logging.
//	-h, --help              Show this help message.
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"

	"github.com/mrjoshuak/deepmerge"
	"github.com/mrjoshuak/deepmerge/deepexr"
	"github.com/mrjoshuak/deepmerge/sample"
	"github.com/mrjoshuak/deepmerge/sink"
	"github.com/mrjoshuak/deepmerge/source"
)

type args struct {
	inputs     []string
	out        string
	deepOut    string
	noMerge    bool
	epsilon    float64
	threads    int
	window     int
	demo       string
	quiet      bool
}

func main() {
	a, err := parseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "deepmerge: %v\n", err)
		printUsage()
		os.Exit(2)
	}

	if err := run(a); err != nil {
		fmt.Fprintf(os.Stderr, "deepmerge: %v\n", err)
		os.Exit(1)
	}
}

func parseArgs(argv []string) (args, error) {
	a := args{epsilon: sample.DefaultMergeEpsilon}

	for i := 0; i < len(argv); i++ {
		arg := argv[i]
		switch arg {
		case "-h", "--help":
			printUsage()
			os.Exit(0)
		case "-q", "--quiet":
			a.quiet = true
		case "--no-merge":
			a.noMerge = true
		case "-o", "--out":
			i++
			if i >= len(argv) {
				return a, fmt.Errorf("%s requires a value", arg)
			}
			a.out = argv[i]
		case "--deep-out":
			i++
			if i >= len(argv) {
				return a, fmt.Errorf("%s requires a value", arg)
			}
			a.deepOut = argv[i]
		case "--epsilon":
			i++
			if i >= len(argv) {
				return a, fmt.Errorf("%s requires a value", arg)
			}
			v, err := strconv.ParseFloat(argv[i], 64)
			if err != nil {
				return a, fmt.Errorf("--epsilon: %w", err)
			}
			a.epsilon = v
		case "--threads":
			i++
			if i >= len(argv) {
				return a, fmt.Errorf("%s requires a value", arg)
			}
			v, err := strconv.Atoi(argv[i])
			if err != nil {
				return a, fmt.Errorf("--threads: %w", err)
			}
			a.threads = v
		case "--window":
			i++
			if i >= len(argv) {
				return a, fmt.Errorf("%s requires a value", arg)
			}
			v, err := strconv.Atoi(argv[i])
			if err != nil {
				return a, fmt.Errorf("--window: %w", err)
			}
			a.window = v
		case "--demo":
			i++
			if i >= len(argv) {
				return a, fmt.Errorf("%s requires a WxH value", arg)
			}
			a.demo = argv[i]
		default:
			if strings.HasPrefix(arg, "-") {
				return a, fmt.Errorf("unknown option: %s", arg)
			}
			a.inputs = append(a.inputs, arg)
		}
	}

	if a.demo == "" && len(a.inputs) == 0 {
		return a, fmt.Errorf("no input files specified (or use --demo WxH)")
	}
	return a, nil
}

func printUsage() {
	fmt.Println(`Usage: deepmerge [options] <input.dex> [<input.dex> ...]
       deepmerge --demo WxH [options]

Merge N deep images front-to-back into a flattened PPM or a deep deepexr file.

Options:
  -o, --out <file>       Flattened PPM output path (default stdout).
      --deep-out <file>  Write the merged deep image instead of flattening.
      --no-merge         Disable coincident-sample merging (preserve duplicates).
      --epsilon <float>  Coincidence tolerance (default 1e-3).
      --threads <n>      Merger goroutine count (default: auto).
      --window <n>       Sliding window size (default 48).
      --demo WxH         Use a synthetic two-source demo instead of file inputs.
  -q, --quiet            Suppress progress and verbose logging.
  -h, --help             Show this help message.`)
}

func run(a args) error {
	sources, closeSources, err := openSources(a)
	if err != nil {
		return err
	}
	defer closeSources()

	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
	if a.quiet {
		logger = logger.Level(zerolog.Disabled)
	}

	opts := deepmerge.DefaultOptions()
	opts.EnableMerging = !a.noMerge
	opts.MergeEpsilon = a.epsilon
	opts.Threads = a.threads
	opts.WindowSlots = a.window
	opts.Logger = logAdapter{logger}

	var bar *progressbar.ProgressBar
	if !a.quiet {
		bar = progressbar.Default(100, "merging")
		opts.Progress = progressAdapter{bar}
	}

	if a.deepOut != "" {
		return runDeep(sources, opts, a.deepOut)
	}
	return runFlatten(sources, opts, a.out)
}

func runFlatten(sources []source.Source, opts deepmerge.Options, out string) error {
	rgba, width, height, stats, err := deepmerge.MergeAndFlatten(sources, opts)
	if err != nil {
		return err
	}

	w := os.Stdout
	if out != "" {
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("create %s: %w", out, err)
		}
		defer f.Close()
		w = f
	}

	ppm := sink.NewPPM(w, width, height, 0)
	if err := ppm.WriteRGBA(rgba); err != nil {
		return fmt.Errorf("write PPM: %w", err)
	}

	fmt.Fprintf(os.Stderr, "merged %d inputs, %d samples -> %d samples (%d dropped)\n",
		stats.InputImageCount, stats.TotalInputSamples, stats.TotalOutputSamples, stats.DroppedSamples)
	return nil
}

func runDeep(sources []source.Source, opts deepmerge.Options, out string) error {
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("create %s: %w", out, err)
	}
	defer f.Close()

	width, height := sources[0].Width(), sources[0].Height()
	writer, err := deepexr.NewWriter(f, width, height, deepexr.Float32)
	if err != nil {
		return fmt.Errorf("deepexr writer: %w", err)
	}

	img, stats, err := deepmerge.MergeDeep(sources, opts)
	if err != nil {
		return err
	}
	for y := 0; y < img.Height; y++ {
		if err := writer.WriteRow(y, img.Row(y)); err != nil {
			return fmt.Errorf("write row %d: %w", y, err)
		}
	}
	if err := writer.Close(); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "merged %d inputs, %d samples -> %d samples (%d dropped)\n",
		stats.InputImageCount, stats.TotalInputSamples, stats.TotalOutputSamples, stats.DroppedSamples)
	return nil
}

// openSources resolves a.inputs or a.demo into concrete source.Source
// values and a cleanup function that closes any opened files.
func openSources(a args) ([]source.Source, func(), error) {
	if a.demo != "" {
		width, height, err := parseWxH(a.demo)
		if err != nil {
			return nil, nil, fmt.Errorf("--demo: %w", err)
		}
		return demoSources(width, height), func() {}, nil
	}

	var sources []source.Source
	var files []*os.File
	closeAll := func() {
		for _, f := range files {
			f.Close()
		}
	}

	for _, path := range a.inputs {
		f, err := os.Open(path)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("open %s: %w", path, err)
		}
		files = append(files, f)

		r, err := deepexr.NewReader(f)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("read %s: %w", path, err)
		}
		sources = append(sources, r)
	}
	return sources, closeAll, nil
}

func parseWxH(s string) (int, int, error) {
	parts := strings.SplitN(s, "x", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected WxH, got %q", s)
	}
	w, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, err
	}
	h, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, err
	}
	return w, h, nil
}

// demoSources builds two synthetic generators: a near translucent red
// plane and a far opaque blue plane, so --demo exercises merging and
// occlusion without requiring a deepexr file on disk.
func demoSources(width, height int) []source.Source {
	near := source.NewGenerator(width, height, func(x, y int) []sample.Sample {
		return []sample.Sample{{ZFront: 1, ZBack: 1, R: 0.8, A: 0.6}}
	})
	far := source.NewGenerator(width, height, func(x, y int) []sample.Sample {
		return []sample.Sample{{ZFront: 5, ZBack: 5, B: 0.9, A: 1}}
	})
	return []source.Source{near, far}
}

type logAdapter struct {
	log zerolog.Logger
}

func (l logAdapter) Verbosef(format string, args ...any) {
	l.log.Debug().Msgf(format, args...)
}

func (l logAdapter) Errorf(format string, args ...any) {
	l.log.Error().Msgf(format, args...)
}

type progressAdapter struct {
	bar *progressbar.ProgressBar
}

func (p progressAdapter) Progress(percent int) {
	_ = p.bar.Set(percent)
}
