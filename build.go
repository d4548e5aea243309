//go:build ignore

// build.go - foodpulse build system
// Usage: go run build.go [-target=TARGET] [-v]
// Targets: all, build, test, sample, clean

package main

import (
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

const (
	version = "0.1.0"
	module  = "foodpulse"
)

var (
	rootDir string
	distDir string

	colorReset = "\033[0m"
	colorRed   = "\033[31m"
	colorGreen = "\033[32m"
	colorBlue  = "\033[34m"
	colorCyan  = "\033[36m"
)

func init() {
	cwd, err := os.Getwd()
	if err != nil {
		panic(fmt.Sprintf("Failed to get current directory: %v", err))
	}
	rootDir = cwd
	distDir = filepath.Join(rootDir, "dist")

	if _, err := os.Stat(filepath.Join(rootDir, "go.mod")); err != nil {
		panic(fmt.Sprintf("go.mod not found in %s, run from the repository root", rootDir))
	}
}

func main() {
	target := flag.String("target", "all", "Build target")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	printHeader()
	start := time.Now()

	switch *target {
	case "all":
		runTests(*verbose)
		buildBinary(*verbose)
	case "build":
		buildBinary(*verbose)
	case "test":
		runTests(*verbose)
	case "sample":
		buildBinary(*verbose)
		buildSample(*verbose)
	case "clean":
		clean()
	default:
		showHelp()
		os.Exit(1)
	}

	printSuccess(fmt.Sprintf("Build completed in %s", time.Since(start).Round(time.Millisecond)))
}

func printHeader() {
	fmt.Println(colorCyan + "===========================================" + colorReset)
	fmt.Println(colorCyan + "        foodpulse - Build System" + colorReset)
	fmt.Println(colorCyan + "===========================================" + colorReset)
	fmt.Println()
}

func printInfo(msg string) {
	fmt.Printf("%s[INFO]%s %s\n", colorBlue, colorReset, msg)
}

func printSuccess(msg string) {
	fmt.Printf("%s[SUCCESS]%s %s\n", colorGreen, colorReset, msg)
}

func printError(msg string) {
	fmt.Printf("%s[ERROR]%s %s\n", colorRed, colorReset, msg)
}

func binaryPath() string {
	name := module
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	return filepath.Join(distDir, name)
}

func run(verbose bool, dir string, name string, args ...string) error {
	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	if verbose {
		fmt.Printf("Running from %s: %s %s\n", dir, name, strings.Join(args, " "))
		cmd.Stdout = os.Stdout
	}
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func buildBinary(verbose bool) {
	printInfo("Building foodpulse...")
	if err := os.MkdirAll(distDir, 0755); err != nil {
		printError(fmt.Sprintf("Failed to create %s: %v", distDir, err))
		os.Exit(1)
	}

	pkg := module + "/internal/cli"
	ldflags := fmt.Sprintf("-s -w -X %s.Version=%s -X %s.BuildTime=%s",
		pkg, version, pkg, time.Now().UTC().Format(time.RFC3339))

	args := []string{"build"}
	if verbose {
		args = append(args, "-v")
	}
	args = append(args, "-ldflags", ldflags, "-o", binaryPath(), "./cmd/foodpulse")

	if err := run(verbose, rootDir, "go", args...); err != nil {
		printError(fmt.Sprintf("Failed to build foodpulse: %v", err))
		os.Exit(1)
	}
	if info, err := os.Stat(binaryPath()); err == nil {
		printSuccess(fmt.Sprintf("Built %s (%.1f MB)", binaryPath(), float64(info.Size())/1024/1024))
	}
}

func runTests(verbose bool) {
	printInfo("Running Go tests...")
	args := []string{"test", "-race"}
	if verbose {
		args = append(args, "-v")
	}
	args = append(args, "./...")

	if err := run(true, rootDir, "go", args...); err != nil {
		printError(fmt.Sprintf("Go tests failed: %v", err))
		os.Exit(1)
	}
	printSuccess("All tests passed")
}

// buildSample generates a synthetic workbook and runs the pipeline on it,
// leaving the charts in dist/sample/reports.
func buildSample(verbose bool) {
	sampleDir := filepath.Join(distDir, "sample")
	workbook := filepath.Join(sampleDir, "orders.xlsx")
	if err := os.MkdirAll(sampleDir, 0755); err != nil {
		printError(fmt.Sprintf("Failed to create %s: %v", sampleDir, err))
		os.Exit(1)
	}

	printInfo("Generating sample workbook...")
	if err := run(true, rootDir, binaryPath(), "generate", "--output", workbook, "--no-progress"); err != nil {
		printError(fmt.Sprintf("Failed to generate sample: %v", err))
		os.Exit(1)
	}
	printInfo("Running pipeline on sample...")
	if err := run(true, rootDir, binaryPath(), "run", "--input", workbook,
		"--output", filepath.Join(sampleDir, "cleaned.xlsx"),
		"--report-dir", filepath.Join(sampleDir, "reports")); err != nil {
		printError(fmt.Sprintf("Sample run failed: %v", err))
		os.Exit(1)
	}
	printSuccess("Sample report written to " + filepath.Join(sampleDir, "reports"))
}

func clean() {
	printInfo("Cleaning build artifacts...")
	if err := os.RemoveAll(distDir); err != nil {
		printError(fmt.Sprintf("Failed to clean dist directory: %v", err))
		os.Exit(1)
	}
	printSuccess("Build artifacts cleaned")
}

func showHelp() {
	fmt.Println("Usage: go run build.go [-target=TARGET] [-v]")
	fmt.Println()
	fmt.Println("Targets:")
	fmt.Println("  all     Run tests, then build dist/foodpulse (default)")
	fmt.Println("  build   Build dist/foodpulse")
	fmt.Println("  test    Run go test -race ./...")
	fmt.Println("  sample  Build, generate a synthetic workbook and report on it")
	fmt.Println("  clean   Remove dist/")
}
