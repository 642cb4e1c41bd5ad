// Command cure is the ahead-of-time compiler and JIT runner for the
// Cure language: it lexes, parses, analyses and lowers a single source
// file to LLVM IR, then either hands that IR to clang to produce a
// native executable or feeds it to lli to execute in place.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	cure "github.com/lemurgaminglabs/curelang"
	"github.com/llir/llvm/ir"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage: cure <action> [args...]")
	fmt.Fprintln(os.Stderr, "  build <file> [--optimize]   compile to an executable")
	fmt.Fprintln(os.Stderr, "  run <file> [--optimize]     compile and execute immediately")
	fmt.Fprintln(os.Stderr, "  help                        print this message")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(0)
	}

	action := os.Args[1]
	switch action {
	case "build":
		runBuild(os.Args[2:])
	case "run":
		runRun(os.Args[2:])
	case "help":
		usage()
	default:
		usage()
		os.Exit(0)
	}
}

func runBuild(args []string) {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	optimize := fs.Bool("optimize", false, "append -O2 to the clang invocation")
	if err := fs.Parse(args); err != nil {
		log.Fatal(err)
	}
	if fs.NArg() < 1 {
		usage()
		os.Exit(1)
	}
	path := fs.Arg(0)

	cfg := cure.NewConfig()
	optLevel := 0
	if *optimize {
		optLevel = 2
	}
	cfg.SetInt("compiler.optimize", optLevel)

	module, target, err := compileFile(path, cfg)
	if err != nil {
		reportAndExit(path, err)
	}

	llPath := strings.TrimSuffix(path, filepath.Ext(path)) + ".ll"
	if err := os.WriteFile(llPath, []byte(module.String()), 0644); err != nil {
		log.Fatalf("cure: can't write %s: %s", llPath, err)
	}

	exePath := strings.TrimSuffix(path, filepath.Ext(path))
	if ext := target.ExeExt(); ext != "" {
		exePath += "." + ext
	}

	clangArgs := []string{llPath, "-o", exePath}
	if *optimize {
		clangArgs = append(clangArgs, "-O2")
	}
	cmd := exec.Command("clang", clangArgs...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		log.Fatalf("cure: clang failed: %s", err)
	}
}

func runRun(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	optimize := fs.Bool("optimize", false, "set the JIT optimization level to 2")
	if err := fs.Parse(args); err != nil {
		log.Fatal(err)
	}
	if fs.NArg() < 1 {
		usage()
		os.Exit(1)
	}
	path := fs.Arg(0)

	cfg := cure.NewConfig()
	optLevel := 0
	if *optimize {
		optLevel = 2
	}
	cfg.SetInt("compiler.optimize", optLevel)

	module, _, err := compileFile(path, cfg)
	if err != nil {
		reportAndExit(path, err)
	}

	lliArgs := []string{}
	if *optimize {
		lliArgs = append(lliArgs, "-O=2")
	}
	cmd := exec.Command("lli", lliArgs...)
	cmd.Stdin = strings.NewReader(module.String())
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			os.Exit(exitErr.ExitCode())
		}
		log.Fatalf("cure: lli failed: %s", err)
	}
}

func compileFile(path string, cfg *cure.Config) (*ir.Module, cure.Target, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("cure: can't open %s: %s", path, err)
	}

	target := cure.TargetFromConfig(cfg)
	scope := cure.NewRootScope(path, src, target)
	cure.InstallStdlib(scope)

	parser, err := cure.NewParser(src)
	if err != nil {
		return nil, target, err
	}
	prog, err := parser.ParseProgram()
	if err != nil {
		return nil, target, err
	}

	analysed, err := cure.Analyse(prog, scope)
	if err != nil {
		return nil, target, err
	}

	module, err := cure.Compile(analysed, scope, target)
	if err != nil {
		return nil, target, err
	}
	return module, target, nil
}

func reportAndExit(path string, err error) {
	src, _ := os.ReadFile(path)
	if ce, ok := err.(*cure.CompileError); ok {
		cure.ReportAndExit(src, ce)
		return
	}
	log.Fatal(err)
}
