// Command compi compiles a C-like source file to 32-bit x86 assembly in
// NASM syntax.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pterm/pterm"

	"github.com/BalmyM4/unam.fi.compilers.g5.05.final/pkg/cli"
	"github.com/BalmyM4/unam.fi.compilers.g5.05.final/pkg/compiler"
	"github.com/BalmyM4/unam.fi.compilers.g5.05.final/pkg/config"
	"github.com/BalmyM4/unam.fi.compilers.g5.05.final/pkg/token"
)

func main() {
	app := cli.NewApp("compi")
	app.Synopsis = "[options] <input.c>"
	app.Description = "A batch compiler for a C subset targeting 32-bit x86. Emits NASM-syntax assembly ready for 'nasm -f elf32' and 'ld -m elf_i386'."

	var (
		outFile     string
		projectFile string
		dumpTokens  bool
		quiet       bool
		toggleFlags []string
	)

	cfg := config.NewConfig()

	fs := app.FlagSet
	fs.String(&outFile, "output", "o", "", "Place the assembly into <file>. Defaults to the input name with a .asm extension.", "file")
	fs.String(&projectFile, "project", "p", "", "Read settings from a TOML project file instead of ./"+config.ProjectFileName+".", "file")
	fs.Bool(&dumpTokens, "dump-tokens", "d", false, "Dump the token stream and exit without compiling.")
	fs.Bool(&quiet, "quiet", "q", false, "Suppress progress output; diagnostics still go to stderr.")
	fs.ToggleGroupFlags(&toggleFlags, "Warnings", "W", toggleEntries(warningEntries(cfg)))
	fs.ToggleGroupFlags(&toggleFlags, "Features", "F", toggleEntries(featureEntries(cfg)))

	app.Action = func(args []string) error {
		if len(args) != 1 {
			pterm.Error.Printfln("expected exactly one input file, got %d", len(args))
			return fmt.Errorf("expected one input file")
		}
		if err := cfg.LoadProjectFile(projectFile); err != nil {
			pterm.Error.Printfln("%v", err)
			return err
		}
		// Command-line toggles override the project file
		cfg.ApplyFlags(toggleFlags)

		if quiet {
			pterm.DisableOutput()
			defer pterm.EnableOutput()
		}
		return run(args[0], outFile, dumpTokens, cfg)
	}

	if err := app.Run(os.Args[1:]); err != nil {
		os.Exit(1)
	}
}

func run(inputPath, outFile string, dumpTokens bool, cfg *config.Config) error {
	source, err := os.ReadFile(inputPath)
	if err != nil {
		pterm.Error.Printfln("could not read '%s': %v", inputPath, err)
		return err
	}

	if dumpTokens {
		toks, diags := compiler.Tokenize(inputPath, string(source), cfg)
		diags.Render(os.Stderr)
		for _, tok := range toks {
			fmt.Printf("%4d:%-3d %-12s %s\n", tok.Line, tok.Column, token.TypeStrings[tok.Type], tok.Value)
		}
		return nil
	}

	pterm.Info.Printfln("Compiling %s", inputPath)
	result, err := compiler.Compile(inputPath, string(source), cfg)
	result.Diags.Render(os.Stderr)
	if err != nil {
		pterm.Error.Printfln("Compilation failed: %s", summary(result))
		return err
	}

	if outFile == "" {
		outFile = defaultOutFile(inputPath, cfg)
	}
	if err := os.WriteFile(outFile, []byte(result.Assembly), 0o644); err != nil {
		pterm.Error.Printfln("could not write '%s': %v", outFile, err)
		return err
	}
	pterm.Success.Printfln("Wrote %s (%s)", outFile, summary(result))
	return nil
}

// defaultOutFile derives the output path from the input name, unless the
// project file pinned one.
func defaultOutFile(inputPath string, cfg *config.Config) string {
	if cfg.OutFile != "" {
		return cfg.OutFile
	}
	base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	return base + ".asm"
}

func summary(result *compiler.Result) string {
	errs, warns := len(result.Diags.Errors()), len(result.Diags.Warnings())
	return fmt.Sprintf("%d error(s), %d warning(s)", errs, warns)
}

func warningEntries(cfg *config.Config) map[string]config.Info {
	entries := make(map[string]config.Info, len(cfg.Warnings))
	for _, info := range cfg.Warnings {
		entries[info.Name] = info
	}
	return entries
}

func featureEntries(cfg *config.Config) map[string]config.Info {
	entries := make(map[string]config.Info, len(cfg.Features))
	for _, info := range cfg.Features {
		entries[info.Name] = info
	}
	return entries
}

func toggleEntries(infos map[string]config.Info) []cli.ToggleEntry {
	names := make([]string, 0, len(infos))
	for name := range infos {
		names = append(names, name)
	}
	sort.Strings(names)
	entries := make([]cli.ToggleEntry, 0, len(names))
	for _, name := range names {
		info := infos[name]
		entries = append(entries, cli.ToggleEntry{Name: name, Usage: info.Description, Enabled: info.Enabled})
	}
	return entries
}
