package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/OCharnyshevich/minecraft-light/cmd/codegen/internal/generator"
)

func main() {
	schemeDir := flag.String("scheme", "", "path to the scheme directory (e.g. ./blockdata/pc-1.8)")
	outDir := flag.String("out", "./internal/gamedata", "directory of the gamedata package")
	version := flag.String("version", "", "registered version name (default: scheme dir name)")

	flag.Parse()

	if *schemeDir == "" {
		fmt.Fprintln(os.Stderr, "error: -scheme flag is required")
		flag.Usage()
		os.Exit(1)
	}

	name := *version
	if name == "" {
		name = filepath.Base(*schemeDir)
	}
	outFile := filepath.Join(*outDir, "blocks_"+sanitizeFileName(name)+".go")

	fmt.Printf("codegen: generating %s from %s\n", name, *schemeDir)

	cfg := generator.Config{
		SchemeDir: *schemeDir,
		OutFile:   outFile,
		Package:   filepath.Base(*outDir),
		Version:   name,
	}

	if err := generator.Run(cfg); err != nil {
		log.Fatalf("codegen failed: %v", err)
	}

	fmt.Printf("codegen: done, output in %s\n", outFile)
}

func sanitizeFileName(name string) string {
	name = strings.ReplaceAll(name, "-", "_")
	name = strings.ReplaceAll(name, ".", "_")
	return strings.ToLower(name)
}
