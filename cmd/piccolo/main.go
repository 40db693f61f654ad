// Command piccolo is the language's CLI: run a source file, evaluate
// an expression, launch a REPL, or drive the bytecode cache. Grounded
// on estevaofon-noxy/cmd/noxy/main.go for panic recovery and the REPL
// multiline-continuation loop, with the command tree rebuilt around
// github.com/google/subcommands (the pattern informatter-nilan's
// cmd_run.go/cmd_repl.go declare but never wire into a main()).
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"runtime/debug"
	"strings"

	"github.com/chzyer/readline"
	"github.com/dustin/go-humanize"
	"github.com/google/subcommands"
	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"

	"github.com/cheezgi/piccolo"
	"github.com/cheezgi/piccolo/internal/config"
	"github.com/cheezgi/piccolo/internal/logging"
	"github.com/cheezgi/piccolo/internal/perr"
	"github.com/cheezgi/piccolo/internal/store"
)

var (
	cfg config.Config
	log *logrus.Logger
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintln(os.Stderr, "panic:", r)
			debug.PrintStack()
			os.Exit(2)
		}
	}()

	cfg = config.Default().ApplyEnv()

	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (trace, debug, info, warn, error)")
	backend := flag.String("cache-backend", string(cfg.CacheBackend), "bytecode cache backend (none, sqlite, dynamodb)")
	flag.StringVar(&cfg.CachePath, "cache-path", cfg.CachePath, "sqlite cache file path")
	flag.StringVar(&cfg.HistoryPath, "history", cfg.HistoryPath, "REPL history file path")
	flag.StringVar(&cfg.AWSRegion, "aws-region", cfg.AWSRegion, "AWS region for the dynamodb cache backend")
	flag.StringVar(&cfg.DynamoTable, "dynamo-table", cfg.DynamoTable, "DynamoDB table for the dynamodb cache backend")
	expr := flag.String("e", "", "evaluate a source expression directly")

	cmdr := subcommands.NewCommander(flag.CommandLine, "piccolo")
	cmdr.Register(cmdr.HelpCommand(), "")
	cmdr.Register(cmdr.FlagsCommand(), "")
	cmdr.Register(cmdr.CommandsCommand(), "")
	cmdr.Register(&runCmd{}, "")
	cmdr.Register(&replCmd{}, "")
	cmdr.Register(&compileCmd{}, "")
	cmdr.Register(&runCachedCmd{}, "")
	cmdr.Register(&disasmCmd{}, "")

	flag.Parse()
	cfg.CacheBackend = config.CacheBackend(*backend)
	log = logging.New(cfg.LogLevel)

	if *expr != "" {
		interpretAndReport("<expr>", *expr)
		return
	}

	if flag.NArg() == 0 {
		startREPL()
		return
	}

	os.Exit(int(cmdr.Execute(context.Background())))
}

func openStore() store.Store {
	switch cfg.CacheBackend {
	case config.CacheSQLite:
		if err := cfg.EnsureCacheDir(); err != nil {
			log.WithError(err).Warn("could not create cache directory, disabling cache")
			return nil
		}
		s, err := store.OpenSQLite(cfg.CachePath)
		if err != nil {
			log.WithError(err).Warn("could not open sqlite cache, disabling cache")
			return nil
		}
		return s
	case config.CacheDynamoDB:
		s, err := store.OpenDynamoDB(context.Background(), cfg.AWSRegion, cfg.DynamoTable)
		if err != nil {
			log.WithError(err).Warn("could not open dynamodb cache, disabling cache")
			return nil
		}
		return s
	default:
		return nil
	}
}

// interpretAndReport runs src to completion, printing its terminal
// value or a formatted diagnostic batch, and exits non-zero on failure.
func interpretAndReport(name, src string) {
	runID := uuid.New()
	log.WithFields(logrus.Fields{"run_id": runID, "source": name}).Debug("interpreting")

	result, errs := piccolo.Interpret(src)
	if len(errs) > 0 {
		fmt.Fprintln(os.Stderr, perr.Report(errs))
		os.Exit(1)
	}
	fmt.Println(result.String())
}

// runCmd implements `piccolo run <file>`.
type runCmd struct{}

func (*runCmd) Name() string     { return "run" }
func (*runCmd) Synopsis() string { return "run a Piccolo source file" }
func (*runCmd) Usage() string    { return "run <file>:\n  Execute a Piccolo source file.\n" }
func (*runCmd) SetFlags(*flag.FlagSet) {}

func (*runCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "run: missing file argument")
		return subcommands.ExitUsageError
	}
	result, errs, err := piccolo.DoFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "run: %s\n", err)
		return subcommands.ExitFailure
	}
	if len(errs) > 0 {
		fmt.Fprintln(os.Stderr, perr.Report(errs))
		return subcommands.ExitFailure
	}
	fmt.Println(result.String())
	return subcommands.ExitSuccess
}

// compileCmd implements `piccolo compile -o <key> <file>`, storing the
// compiled chunk in the bytecode cache instead of running it.
type compileCmd struct {
	key string
}

func (*compileCmd) Name() string { return "compile" }
func (*compileCmd) Synopsis() string {
	return "compile a source file into the bytecode cache"
}
func (*compileCmd) Usage() string {
	return "compile -o <key> <file>:\n  Compile without running, caching the chunk under <key>.\n"
}
func (c *compileCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.key, "o", "", "cache key to store the compiled chunk under (defaults to the content hash)")
}

func (c *compileCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "compile: missing file argument")
		return subcommands.ExitUsageError
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "compile: %s\n", err)
		return subcommands.ExitFailure
	}
	src := string(data)
	chunk, errs := piccolo.Compile(src)
	if len(errs) > 0 {
		fmt.Fprintln(os.Stderr, perr.Report(errs))
		return subcommands.ExitFailure
	}
	s := openStore()
	if s == nil {
		fmt.Fprintln(os.Stderr, "compile: no cache backend configured")
		return subcommands.ExitFailure
	}
	defer s.Close()
	key := c.key
	if key == "" {
		key = store.Key(src)
	}
	if err := s.Put(ctx, key, src, chunk); err != nil {
		fmt.Fprintf(os.Stderr, "compile: %s\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("cached %s (%s)\n", key, humanize.Bytes(uint64(len(chunk.Code))))
	return subcommands.ExitSuccess
}

// runCachedCmd implements `piccolo load-cache -b <key>`, running a
// previously-compiled chunk without recompiling its source.
type runCachedCmd struct {
	key string
}

func (*runCachedCmd) Name() string     { return "load-cache" }
func (*runCachedCmd) Synopsis() string { return "run a cached compiled chunk by key" }
func (*runCachedCmd) Usage() string {
	return "load-cache -b <key>:\n  Run a chunk previously stored with `compile -o`.\n"
}
func (c *runCachedCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.key, "b", "", "cache key to load and run")
}

func (c *runCachedCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.key == "" {
		fmt.Fprintln(os.Stderr, "load-cache: -b <key> is required")
		return subcommands.ExitUsageError
	}
	s := openStore()
	if s == nil {
		fmt.Fprintln(os.Stderr, "load-cache: no cache backend configured")
		return subcommands.ExitFailure
	}
	defer s.Close()
	ch, ok, err := s.Get(ctx, c.key)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load-cache: %s\n", err)
		return subcommands.ExitFailure
	}
	if !ok {
		fmt.Fprintf(os.Stderr, "load-cache: cache miss for %q\n", c.key)
		return subcommands.ExitFailure
	}
	result, err := piccolo.RunChunk(ch)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Runtime error: %s\n", err)
		return subcommands.ExitFailure
	}
	fmt.Println(result.String())
	return subcommands.ExitSuccess
}

// disasmCmd implements `piccolo disasm <file>`.
type disasmCmd struct{}

func (*disasmCmd) Name() string     { return "disasm" }
func (*disasmCmd) Synopsis() string { return "print a file's compiled bytecode" }
func (*disasmCmd) Usage() string    { return "disasm <file>:\n  Compile and print disassembly.\n" }
func (*disasmCmd) SetFlags(*flag.FlagSet) {}

func (*disasmCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "disasm: missing file argument")
		return subcommands.ExitUsageError
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "disasm: %s\n", err)
		return subcommands.ExitFailure
	}
	chunk, errs := piccolo.Compile(string(data))
	if len(errs) > 0 {
		fmt.Fprintln(os.Stderr, perr.Report(errs))
		return subcommands.ExitFailure
	}
	fmt.Println(chunk.Disassemble(args[0]))
	return subcommands.ExitSuccess
}

// replCmd implements `piccolo repl`.
type replCmd struct{}

func (*replCmd) Name() string          { return "repl" }
func (*replCmd) Synopsis() string      { return "start an interactive session" }
func (*replCmd) Usage() string         { return "repl:\n  Start an interactive Piccolo session.\n" }
func (*replCmd) SetFlags(*flag.FlagSet) {}

func (*replCmd) Execute(context.Context, *flag.FlagSet, ...interface{}) subcommands.ExitStatus {
	startREPL()
	return subcommands.ExitSuccess
}

// startREPL runs a chzyer/readline-backed loop with history persistence
// and multi-line continuation, grounded on noxy's startREPL: the
// continuation check looks for the parser's "end of file" diagnostic
// substring instead of reaching a dedicated incomplete-input signal.
func startREPL() {
	interactive := isatty.IsTerminal(os.Stdin.Fd())
	if interactive {
		fmt.Println("Piccolo REPL. Type 'exit' to quit.")
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:      ">>> ",
		HistoryFile: cfg.HistoryPath,
	})
	if err != nil {
		log.WithError(err).Warn("readline unavailable, falling back to plain stdin")
		runPlainREPL()
		return
	}
	defer rl.Close()

	var buf strings.Builder
	for {
		if buf.Len() == 0 {
			rl.SetPrompt(">>> ")
		} else {
			rl.SetPrompt("... ")
		}
		line, err := rl.Readline()
		if err != nil {
			return
		}
		if strings.TrimSpace(line) == "exit" && buf.Len() == 0 {
			return
		}
		if buf.Len() > 0 {
			buf.WriteByte('\n')
		}
		buf.WriteString(line)

		src := buf.String()
		_, errs := piccolo.Compile(src)
		if isIncomplete(errs) {
			continue
		}
		if len(errs) > 0 {
			fmt.Fprintln(os.Stderr, perr.Report(errs))
			buf.Reset()
			continue
		}

		result, errs := piccolo.Interpret(src)
		if len(errs) > 0 {
			fmt.Fprintln(os.Stderr, perr.Report(errs))
		} else {
			fmt.Println(result.String())
		}
		buf.Reset()
	}
}

// runPlainREPL is the fallback startREPL uses when readline cannot be
// initialised, kept bufio.Scanner-based like noxy's startREPL loop.
func runPlainREPL() {
	scanner := bufio.NewScanner(os.Stdin)
	var buf strings.Builder
	for {
		if buf.Len() == 0 {
			fmt.Print(">>> ")
		} else {
			fmt.Print("... ")
		}
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		if strings.TrimSpace(line) == "exit" && buf.Len() == 0 {
			return
		}
		if buf.Len() > 0 {
			buf.WriteByte('\n')
		}
		buf.WriteString(line)

		src := buf.String()
		_, errs := piccolo.Compile(src)
		if isIncomplete(errs) {
			continue
		}
		if len(errs) > 0 {
			fmt.Fprintln(os.Stderr, perr.Report(errs))
			buf.Reset()
			continue
		}
		result, errs := piccolo.Interpret(src)
		if len(errs) > 0 {
			fmt.Fprintln(os.Stderr, perr.Report(errs))
		} else {
			fmt.Println(result.String())
		}
		buf.Reset()
	}
}

func isIncomplete(errs []*perr.Error) bool {
	for _, e := range errs {
		if strings.Contains(e.Error(), "end of file") {
			return true
		}
	}
	return false
}
