package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"govmt/pkg/vm"
)

func main() {
	dump := flag.Bool("dump", false, "print the parsed IR tree and generated assembly to stdout")
	out := flag.String("o", "", "output file (default: derived from the input path)")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() != 1 {
		usage()
		os.Exit(1)
	}
	if err := run(flag.Arg(0), *out, *dump); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: vmtranslator [-dump] [-o out.asm] <file.vm | directory>

Translates VM source to Hack assembly. A directory input translates
every .vm file in it (one compilation unit) into <dir>/<dir>.asm.`)
	flag.PrintDefaults()
}

func run(path, outPath string, dump bool) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to open %q: %w", path, err)
	}

	prog := vm.NewProgram()
	if info.IsDir() {
		if err := addDirectory(prog, path); err != nil {
			return err
		}
		if outPath == "" {
			base := filepath.Base(filepath.Clean(path))
			outPath = filepath.Join(path, base+".asm")
		}
	} else {
		if !strings.HasSuffix(path, ".vm") {
			return fmt.Errorf("the file %q has the wrong extension (expected .vm)", path)
		}
		if err := addFile(prog, path); err != nil {
			return err
		}
		if outPath == "" {
			outPath = strings.TrimSuffix(path, ".vm") + ".asm"
		}
	}

	if dump {
		fmt.Println(prog.DrawTree())
	}
	asm, err := vm.Translate(prog)
	if err != nil {
		return err
	}
	if dump {
		fmt.Println(asm)
	}

	if err := os.WriteFile(outPath, []byte(asm), 0o644); err != nil {
		return fmt.Errorf("failed to write %q: %w", outPath, err)
	}
	fmt.Printf("wrote output to %q\n", outPath)
	return nil
}

// addDirectory parses every .vm file in dir, in directory order, into
// one shared program.
func addDirectory(prog *vm.Program, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to view directory %q: %w", dir, err)
	}
	any := false
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".vm") {
			continue
		}
		full := filepath.Join(dir, entry.Name())
		fmt.Printf("including file %s\n", full)
		if err := addFile(prog, full); err != nil {
			return err
		}
		any = true
	}
	if !any {
		return fmt.Errorf("the directory %q contains no .vm files", dir)
	}
	return nil
}

func addFile(prog *vm.Program, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to open %q: %w", path, err)
	}
	return vm.Parse(prog, string(data), path)
}
