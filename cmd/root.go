package cmd

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/danielewood/vanitycrx/display"
	"github.com/danielewood/vanitycrx/keygen"
	"github.com/danielewood/vanitycrx/output"
	"github.com/danielewood/vanitycrx/pattern"
	"github.com/danielewood/vanitycrx/sysinfo"
)

// minBits is the smallest RSA modulus accepted by --bits.
const minBits = 1024

var (
	flagPrefix   string
	flagSuffix   string
	flagRegexp   string
	flagCount    int
	flagNoWrite  bool
	flagQuiet    bool
	flagVerbose  bool
	flagOutDir   string
	flagFormat   string
	flagBits     int
	flagLogLevel string
)

// newConsole and newProvider are replaced in tests.
var (
	newConsole  = display.Detect
	newProvider = func(bits int) keygen.Provider { return keygen.RSAProvider{Bits: bits} }
)

var rootCmd = &cobra.Command{
	Use:   "vanitycrx",
	Short: "Generate RSA keys with vanity extension IDs",
	Long: `vanitycrx generates RSA key pairs until the extension ID derived from
the public key matches the requested prefix, suffix or regular expression.

Extension IDs are 32 characters from the letters a through p. Prefixes and
suffixes may use ? to match any single letter. A regular expression may use
the letters a-p and the characters ^$[]()?:|.- and overrides --prefix and
--suffix.

Each accepted private key is written to <id>.pem in --out-dir, or printed
with --no-write. Every constrained letter makes the search 16 times longer.`,
	Example: `  vanitycrx --prefix abc
  vanitycrx --prefix ab --suffix op --n 3
  vanitycrx --regexp '^(aaa|ppp)' --no-write --format yaml`,
	Args: cobra.NoArgs,
	RunE: run,
}

func init() {
	f := rootCmd.Flags()
	f.StringVar(&flagPrefix, "prefix", "", "required ID prefix (letters a-p, ? for any)")
	f.StringVar(&flagSuffix, "suffix", "", "required ID suffix (letters a-p, ? for any)")
	f.StringVar(&flagRegexp, "regexp", "", "regular expression the ID must match; overrides --prefix and --suffix")
	f.IntVarP(&flagCount, "n", "n", 1, "number of keys to generate")
	f.BoolVar(&flagNoWrite, "no-write", false, "print keys instead of writing them to files")
	f.BoolVarP(&flagQuiet, "quiet", "q", false, "suppress progress output unless --no-write is also given")
	f.BoolVarP(&flagVerbose, "verbose", "v", false, "log CPU details and include CPU usage in progress")
	f.StringVarP(&flagOutDir, "out-dir", "o", ".", "directory to write <id>.pem files to")
	f.StringVar(&flagFormat, "format", string(output.FormatText), "result format: text, json or yaml")
	f.IntVar(&flagBits, "bits", keygen.DefaultBits, "RSA modulus size in bits")
	f.StringVar(&flagLogLevel, "log-level", "info", "log level: trace, debug, info, warn, error, critical or off")
}

// SetVersion sets the version string for the root command.
func SetVersion(v string) {
	rootCmd.Version = v
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func run(cmd *cobra.Command, _ []string) error {
	if flagCount < 1 {
		return fmt.Errorf("--n must be at least 1, got %d", flagCount)
	}
	if flagBits < minBits {
		return fmt.Errorf("--bits must be at least %d, got %d", minBits, flagBits)
	}
	format, err := output.ParseFormat(flagFormat)
	if err != nil {
		return err
	}
	level, ok := parseLogLevel(flagLogLevel, quiet())
	if !ok {
		return fmt.Errorf("invalid --log-level %q", flagLogLevel)
	}
	if !flagNoWrite {
		if info, err := os.Stat(flagOutDir); err != nil {
			return fmt.Errorf("out-dir: %w", err)
		} else if !info.IsDir() {
			return fmt.Errorf("out-dir: %s is not a directory", flagOutDir)
		}
	}

	console := newConsole()
	initLogging(console, level)

	pat, err := pattern.Compile(pattern.Spec{Prefix: flagPrefix, Suffix: flagSuffix, Regexp: flagRegexp})
	if err != nil {
		return err
	}

	// Everything past this point is a runtime failure, not misuse.
	cmd.SilenceUsage = true

	log.Infof("Searching for IDs matching %q, about %s attempts per key",
		pat, display.FormatSpace(pat.SearchSpace()))

	var sink keygen.ProgressSink
	if !quiet() {
		var sampler *sysinfo.Sampler
		if flagVerbose {
			c := sysinfo.Describe()
			log.Infof("CPU: %s, %d physical / %d logical cores, x64 level %d",
				c.Brand, c.PhysicalCores, c.LogicalCores, c.X64Level)
			sampler = sysinfo.NewSampler()
		}
		sink = display.NewSink(console, sampler)
		console.Init()
		defer console.Reset()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := keygen.Options{
		Pattern:  pat,
		Provider: newProvider(flagBits),
		Sink:     sink,
	}

	results := make(chan keygen.Result, 1)
	g, gctx := errgroup.WithContext(ctx)

	// Searcher: one search at a time.
	g.Go(func() error {
		defer close(results)
		for i := 1; i <= flagCount; i++ {
			r, err := keygen.Search(gctx, opts)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return fmt.Errorf("search %d of %d interrupted: %w", i, flagCount, err)
				}
				return err
			}
			log.Infof("Found %s (%d of %d) after %s attempts in %s",
				r.ID, i, flagCount, display.FormatCount(r.Attempts), display.FormatDuration(r.Elapsed))
			select {
			case results <- r:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	// Result consumer
	g.Go(func() error {
		for r := range results {
			if err := handleResult(cmd.OutOrStdout(), console, r, format); err != nil {
				return err
			}
		}
		return nil
	})

	return g.Wait()
}

// quiet reports whether progress and info output are suppressed. --no-write
// overrides --quiet.
func quiet() bool {
	return flagQuiet && !flagNoWrite
}

// handleResult persists r unless --no-write is set and prints it unless
// --quiet suppresses it. The private key is printed whenever it could not be
// written, so it is never lost. Results go above the status bar while it is
// pinned, to w otherwise.
func handleResult(w io.Writer, console *display.Console, r keygen.Result, format output.Format) error {
	rec := output.NewRecord(r, flagNoWrite)

	var writeErr error
	if !flagNoWrite {
		path, err := output.WriteKey(flagOutDir, r)
		if err != nil {
			writeErr = err
			rec.PrivateKey = string(r.KeyPair.PrivateKeyPEM)
		} else {
			rec.File = path
		}
	}

	if quiet() && writeErr == nil {
		return nil
	}

	var buf bytes.Buffer
	if err := output.Render(&buf, rec, format, console.IsTTY()); err != nil {
		return err
	}
	if console.Active() {
		sc := bufio.NewScanner(&buf)
		for sc.Scan() {
			console.PrintAboveStatus("%s", sc.Text())
		}
	} else if _, err := buf.WriteTo(w); err != nil {
		return fmt.Errorf("print result: %w", err)
	}

	return writeErr
}
