package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/chzyer/readline"

	"github.com/irhox/daphne/pkg/daphne"
	"github.com/irhox/daphne/pkg/engine"
	"github.com/irhox/daphne/pkg/lang"
	"github.com/irhox/daphne/pkg/mat"
)

type session struct {
	env *lang.Env
}

func newSession(ctx *daphne.Context) *session {
	return &session{env: lang.NewEnv(ctx)}
}

func (s *session) repl() error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "daphne> ",
		HistoryFile:     historyPath(),
		InterruptPrompt: "^C",
		EOFPrompt:       ":quit",
		AutoComplete:    s.completer(),
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	fmt.Println("matshell, type an expression or :help")
	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, ":") {
			if quit := s.command(line); quit {
				return nil
			}
			continue
		}
		s.evalLine(line)
	}
}

// historyPath keeps the shell history next to the engine config. An
// empty path disables history; the shell still works.
func historyPath() string {
	dir, err := engine.ConfigDir()
	if err != nil {
		return ""
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return ""
	}
	return filepath.Join(dir, "matshell_history")
}

func (s *session) completer() readline.AutoCompleter {
	names := readline.PcItemDynamic(func(string) []string { return s.env.Names() })
	return readline.NewPrefixCompleter(
		readline.PcItem(":help"),
		readline.PcItem(":vars"),
		readline.PcItem(":script", names),
		readline.PcItem(":compute", names),
		readline.PcItem(":quit"),
	)
}

// command dispatches a :command line and reports whether to quit.
func (s *session) command(line string) bool {
	cmd, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)
	switch cmd {
	case ":quit", ":q":
		return true
	case ":help":
		s.printHelp()
	case ":vars":
		s.printVars()
	case ":script":
		s.printScript(rest)
	case ":compute":
		s.compute(rest)
	default:
		fmt.Printf("unknown command %s, :help lists commands\n", cmd)
	}
	return false
}

func (s *session) printHelp() {
	fmt.Print(`expressions build lazily; nothing runs until :compute

  let X = rand(100, 4, 0.0, 1.0, 1.0, 42)   bind a name
  X @ X.t()                                  build on bound names

commands
  :script <expr>    print the script the expression emits
  :compute <expr>   run it on the engine and print the result
  :vars             list bound names
  :quit             leave (also ctrl-d)
`)
}

func (s *session) printVars() {
	names := s.env.Names()
	if len(names) == 0 {
		fmt.Println("no bindings")
		return
	}
	width := 0
	for _, n := range names {
		if len(n) > width {
			width = len(n)
		}
	}
	for _, n := range names {
		v, _ := s.env.Lookup(n)
		fmt.Printf("  %-*s  %s\n", width, n, valueSummary(v))
	}
}

func (s *session) evalLine(src string) {
	name, v, err := s.env.EvalLine(src)
	if err != nil {
		fmt.Println(err)
		return
	}
	if name != "" {
		fmt.Printf("%s: %s\n", name, valueSummary(v))
		return
	}
	fmt.Println(valueSummary(v))
}

func (s *session) printScript(src string) {
	if src == "" {
		fmt.Println("usage: :script <expr>")
		return
	}
	v, err := s.env.Eval(src)
	if err != nil {
		fmt.Println(err)
		return
	}
	script, err := scriptOf(v)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Print(script)
}

func (s *session) compute(src string) {
	if src == "" {
		fmt.Println("usage: :compute <expr>")
		return
	}
	v, err := s.env.Eval(src)
	if err != nil {
		fmt.Println(err)
		return
	}
	if err := materialize(v); err != nil {
		fmt.Println(err)
	}
}

func scriptOf(v lang.Value) (string, error) {
	switch x := v.(type) {
	case *daphne.Matrix:
		return x.Script()
	case *daphne.Scalar:
		return x.Script()
	case *daphne.Frame:
		return x.Script()
	case *daphne.Action:
		return x.Script()
	}
	return "", fmt.Errorf("%s emits no script", valueSummary(v))
}

func materialize(v lang.Value) error {
	switch x := v.(type) {
	case *daphne.Matrix:
		d, err := x.Compute()
		if err != nil {
			return err
		}
		printDense(d)
	case *daphne.Scalar:
		f, err := x.Compute()
		if err != nil {
			return err
		}
		fmt.Println(f)
	case *daphne.Frame:
		rec, err := x.Compute()
		if err != nil {
			return err
		}
		defer rec.Release()
		printRecord(rec)
	case *daphne.Action:
		// actions print or write on the engine side; verbose streams
		// the engine output through
		return x.Compute(daphne.Verbose(true))
	default:
		fmt.Println(valueSummary(v))
	}
	return nil
}

func printDense(d *mat.Dense) {
	fmt.Printf("%dx%d %s\n", d.Rows(), d.Cols(), d.ValueType())
	for i := 0; i < d.Rows(); i++ {
		parts := make([]string, d.Cols())
		for j := 0; j < d.Cols(); j++ {
			parts[j] = strconv.FormatFloat(d.At(i, j), 'g', -1, 64)
		}
		fmt.Println(strings.Join(parts, " "))
	}
}

func printRecord(rec arrow.Record) {
	fmt.Printf("%dx%d frame\n", rec.NumRows(), rec.NumCols())
	for i, f := range rec.Schema().Fields() {
		fmt.Printf("%s (%s): %v\n", f.Name, f.Type, rec.Column(i))
	}
}

func valueSummary(v lang.Value) string {
	switch x := v.(type) {
	case *daphne.Matrix:
		return "matrix"
	case *daphne.Scalar:
		return "scalar"
	case *daphne.Frame:
		return "frame"
	case *daphne.Action:
		return "action"
	case string:
		return strconv.Quote(x)
	default:
		return fmt.Sprintf("%v", x)
	}
}
