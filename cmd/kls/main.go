package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kaufman-bryce/kos-language-server/config"
	"github.com/kaufman-bryce/kos-language-server/pkg/kerboscript/analysis"
	"github.com/kaufman-bryce/kos-language-server/pkg/kerboscript/diag"
)

// Version is set at compile time via -ldflags
var Version = "0.4.0"

var (
	helpFlag        = flag.Bool("h", false, "Show help message")
	helpLongFlag    = flag.Bool("help", false, "Show help message")
	versionFlag     = flag.Bool("V", false, "Show version information")
	versionLongFlag = flag.Bool("version", false, "Show version information")

	configFlag = flag.String("config", "", "Path to config file")
	formatFlag = flag.String("format", "", "Output format: text or json (overrides config)")
	rootFlag   = flag.String("root", "", "Volume root for resolving run targets (overrides config)")
	watchFlag  = flag.Bool("watch", false, "Watch the volume root and re-check on changes")
)

func main() {
	flag.Usage = printHelp
	flag.Parse()

	if *helpFlag || *helpLongFlag {
		printHelp()
		os.Exit(0)
	}
	if *versionFlag || *versionLongFlag {
		fmt.Printf("kls version %s\n", Version)
		os.Exit(0)
	}

	cfg, err := config.Load(*configFlag, os.Getenv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	if *formatFlag != "" {
		cfg.Output.Format = *formatFlag
	}
	if *rootFlag != "" {
		cfg.Workspace.Root = *rootFlag
	}
	if cfg.Output.Format != "text" && cfg.Output.Format != "json" {
		fmt.Fprintf(os.Stderr, "Error: invalid output format %q (must be text or json)\n", cfg.Output.Format)
		os.Exit(2)
	}

	logger, closer, err := config.NewLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	if closer != nil {
		defer closer.Close()
	}

	loader, err := analysis.NewFileLoader(cfg.Workspace.Root, cfg.Workspace.CacheSize)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	analyzer := analysis.NewAnalyzer(loader, logger)

	files := flag.Args()

	if *watchFlag {
		if err := watchAndCheck(cfg, analyzer, loader, files); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(2)
		}
		return
	}

	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "Error: no input files (see kls -help)")
		os.Exit(2)
	}
	os.Exit(checkFiles(cfg, analyzer, files))
}

// checkFiles validates each file and reports its diagnostics. The exit code
// is 1 when any error-severity diagnostic was produced, 0 otherwise.
func checkFiles(cfg *config.Config, analyzer *analysis.Analyzer, files []string) int {
	ctx := context.Background()
	hasErrors := false

	var results []*analysis.DocumentInfo
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 2
		}
		// Relative run targets resolve against the document's directory, so
		// the URI needs an absolute path.
		abs, err := filepath.Abs(file)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 2
		}
		uri := analysis.PathToURI(abs)
		info, err := analyzer.ValidateDocument(ctx, uri, string(data))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 2
		}
		info.Diagnostics = cfg.ApplySeverities(info.Diagnostics)
		results = append(results, info)
		for _, d := range info.Diagnostics {
			if d.Severity == diag.SeverityError {
				hasErrors = true
			}
		}
	}

	if err := reportResults(os.Stdout, cfg.Output.Format, results); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}
	if hasErrors {
		return 1
	}
	return 0
}

func printHelp() {
	fmt.Printf(`kls - KerboScript analyzer version %s

Usage:
  kls [options] <file.ks>...
  kls -watch [options] [file.ks...]

Options:
  -h, --help        Show this help message
  -V, --version     Show version information
  -config <path>    Config file (default: KLS_CONFIG, ./kls.yaml, ~/.config/kls/kls.yaml)
  -format <fmt>     Output format: text or json
  -root <dir>       Volume root for resolving run targets
  -watch            Watch the volume root and re-check on changes

Examples:
  kls boot.ks                   Check one script
  kls -format json lib/*.ks     Check scripts, report as JSON
  kls -root ./scripts -watch    Re-check scripts as they change
`, Version)
}
