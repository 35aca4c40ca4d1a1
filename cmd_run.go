package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"indentlang/compiler"
	"indentlang/lexer"
	"indentlang/parser"
	"indentlang/vm"
)

// runCmd executes a source file through the full lex -> parse -> compile ->
// run pipeline.
type runCmd struct{}

func (*runCmd) Name() string     { return "run" }
func (*runCmd) Synopsis() string { return "Execute a source file" }
func (*runCmd) Usage() string {
	return `run <file>:
  Lex, parse, compile and execute a source file.
`
}
func (r *runCmd) SetFlags(f *flag.FlagSet) {}

func (r *runCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "💥 file not provided\n")
		return subcommands.ExitUsageError
	}
	filename := args[0]

	data, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 failed to read file: %v\n", err)
		return subcommands.ExitFailure
	}

	lex := lexer.New(string(data))
	tokens, err := lex.Scan()
	if err != nil {
		fmt.Fprintf(os.Stderr, "lexing error: %v\n", err)
		return subcommands.ExitFailure
	}

	p := parser.Make(tokens)
	program, errs := p.Parse()
	if len(errs) > 0 {
		for _, parseErr := range errs {
			fmt.Fprintln(os.Stderr, parseErr)
		}
		return subcommands.ExitFailure
	}

	bytecode, err := compiler.CompileProgram(program)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	machine := vm.New()
	if err := machine.Run(bytecode); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	return subcommands.ExitSuccess
}
