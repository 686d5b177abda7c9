// yabal is the CLI driver for the Yabal toolchain: it lexes, parses,
// lowers and links a source file into a 16-bit accumulator machine
// program image (spec.md §6), following the teacher's lang/ya driver's
// role but without spawning external stage binaries — lex/parse/build/
// link all run in this one process.
package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/astro8/yabal/internal/compiler"
	"github.com/astro8/yabal/internal/diag"
	"github.com/astro8/yabal/internal/linker"
)

var log = logrus.New()

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "yabal",
		Short:         "Compiler and runner for the Yabal language",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(buildCmd(), runCmd())
	return root
}

func buildCmd() *cobra.Command {
	var out, format string
	var verbose bool
	var minWords int

	cmd := &cobra.Command{
		Use:   "build <path>",
		Short: "Compile a source file to a program image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := compileFile(args[0], verbose)
			if err != nil {
				return err
			}
			printDiags(res.Diags)
			if res.Image == nil {
				return fmt.Errorf("build: errors were reported; no image emitted")
			}

			text, err := render(res.Image, format, minWords)
			if err != nil {
				return err
			}
			outPath := out
			if outPath == "" {
				outPath = args[0] + defaultExt(format)
			}
			if err := os.WriteFile(outPath, []byte(text), 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", outPath, err)
			}
			fmt.Fprintf(os.Stdout, "wrote %s\n", outPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "output file path (default: <path>.<ext> for the chosen format)")
	cmd.Flags().StringVar(&format, "format", "aexe", "output format: asm|asmc|aexe|hex")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "log the builder's debug-level diagnostics (e.g. omitted functions)")
	cmd.Flags().IntVar(&minWords, "min-words", linker.DefaultProgramSize, "pad the hex (Logisim) image to at least this many words")
	return cmd
}

func runCmd() *cobra.Command {
	var disableScreen, disableCharacters, console bool
	var statePath string

	cmd := &cobra.Command{
		Use:   "run <path>",
		Short: "Compile a source file and execute it under the external emulator",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := compileFile(args[0], false)
			if err != nil {
				return err
			}
			printDiags(res.Diags)
			if res.Image == nil {
				return fmt.Errorf("run: errors were reported; not executing")
			}

			tmp, err := os.CreateTemp("", "yabal-*.aexe")
			if err != nil {
				return err
			}
			defer os.Remove(tmp.Name())

			text, _ := render(res.Image, "aexe", linker.DefaultProgramSize)
			if _, err := tmp.WriteString(text); err != nil {
				tmp.Close()
				return err
			}
			tmp.Close()

			return runEmulator(tmp.Name(), emulatorOptions{
				disableScreen:     disableScreen,
				disableCharacters: disableCharacters,
				console:           console,
				statePath:         statePath,
			})
		},
	}
	cmd.Flags().BoolVar(&disableScreen, "disable-screen", false, "disable the memory-mapped screen device")
	cmd.Flags().BoolVar(&disableCharacters, "disable-characters", false, "disable the memory-mapped character buffer device")
	cmd.Flags().BoolVar(&console, "console", false, "run the emulator attached to this terminal")
	cmd.Flags().StringVar(&statePath, "state", "", "resume from a saved emulator state file")
	return cmd
}

func compileFile(path string, verbose bool) (*compiler.Result, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.InfoLevel)
	}
	return compiler.Compile(context.Background(), path, src, logrus.NewEntry(log))
}

func render(img *linker.Image, format string, minWords int) (string, error) {
	switch format {
	case "asm":
		return linker.RenderAsm(img.Words), nil
	case "asmc":
		return linker.RenderAsmC(img.Words), nil
	case "aexe":
		return linker.RenderAexe(img.Words), nil
	case "hex":
		return linker.RenderHex(img.Words, minWords), nil
	default:
		return "", fmt.Errorf("unknown output format %q (want asm|asmc|aexe|hex)", format)
	}
}

func defaultExt(format string) string {
	switch format {
	case "asm", "asmc":
		return ".asm"
	case "hex":
		return ".hex"
	default:
		return ".aexe"
	}
}

func printDiags(diags *diag.Bag) {
	for _, d := range diags.All() {
		fmt.Fprintln(os.Stderr, d.String())
	}
}

type emulatorOptions struct {
	disableScreen     bool
	disableCharacters bool
	console           bool
	statePath         string
}

// runEmulator hands the compiled image to the external emulator
// (spec.md §6: "run ... compiles then executes under the external
// emulator") — the emulator itself is out of scope for this core.
func runEmulator(imagePath string, opts emulatorOptions) error {
	emu, err := exec.LookPath("yabal-emulator")
	if err != nil {
		return fmt.Errorf("external emulator not found in PATH (install yabal-emulator to use 'run'): %w", err)
	}

	args := []string{imagePath}
	if opts.disableScreen {
		args = append(args, "--disable-screen")
	}
	if opts.disableCharacters {
		args = append(args, "--disable-characters")
	}
	if opts.console {
		args = append(args, "--console")
	}
	if opts.statePath != "" {
		args = append(args, "--state", opts.statePath)
	}

	cmd := exec.Command(emu, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
