// Command vrenamer classifies video files through the two-tier analysis
// engine, proposes style-tagged filename candidates, and applies the
// chosen rename with an audit trail — grounded on
// original_source/cli/interactive.py's flow and cmd/cli/main.go's
// flag-based command dispatch.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"vrenamer/internal/config"
	"vrenamer/internal/verrors"
)

const (
	exitOK             = 0
	exitConfigOrDecode = 1
	exitFileOp         = 2
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "analyze-one":
		os.Exit(runAnalyzeOneCommand(args))
	case "scan":
		os.Exit(runScanCommand(args))
	case "rollback":
		os.Exit(runRollbackCommand(args))
	default:
		printUsage()
		os.Exit(2)
	}
}

func printUsage() {
	fmt.Println("Usage: vrenamer <command> [flags]")
	fmt.Println("Commands:")
	fmt.Println("  analyze-one <path> [-config file] [-candidates N] [-styles a,b] [-dry-run] [-non-interactive]")
	fmt.Println("  scan <dir> [-config file] [-recursive]")
	fmt.Println("  rollback <audit-file> [-config file] [-list-audit] [-drop-audit-schema]")
}

func loadConfig(configPath string) (*config.AppConfig, int) {
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("vrenamer: %v", err)
		return nil, exitConfigOrDecode
	}
	return cfg, exitOK
}

// exitCodeFor maps an operational error to the CLI's exit-code discipline:
// 0 success, 1 fatal ConfigError/VideoDecodeError, 2 FileOperationError.
func exitCodeFor(err error) int {
	if err == nil {
		return exitOK
	}
	var fileErr *verrors.FileOperationError
	if asFileOperationError(err, &fileErr) {
		return exitFileOp
	}
	return exitConfigOrDecode
}

func asFileOperationError(err error, target **verrors.FileOperationError) bool {
	for err != nil {
		if fe, ok := err.(*verrors.FileOperationError); ok {
			*target = fe
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

func runAnalyzeOneCommand(args []string) int {
	fs := flag.NewFlagSet("analyze-one", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	candidates := fs.Int("candidates", 0, "override candidates requested per style (0 = use config default)")
	styles := fs.String("styles", "", "comma-separated style ids to use (empty = config default)")
	dryRun := fs.Bool("dry-run", false, "record the intended rename without touching the filesystem")
	nonInteractive := fs.Bool("non-interactive", false, "apply the first candidate without prompting")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Println("usage: vrenamer analyze-one <path> [flags]")
		return exitConfigOrDecode
	}
	path := fs.Arg(0)

	cfg, code := loadConfig(*configPath)
	if code != exitOK {
		return code
	}

	var styleIDs []string
	if *styles != "" {
		styleIDs = splitCSV(*styles)
	}

	err := analyzeOne(context.Background(), cfg, path, styleIDs, *candidates, *dryRun, *nonInteractive)
	if err != nil {
		log.Printf("vrenamer: %v", err)
	}
	return exitCodeFor(err)
}

func runScanCommand(args []string) int {
	fs := flag.NewFlagSet("scan", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	recursive := fs.Bool("recursive", true, "scan directories recursively")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Println("usage: vrenamer scan <dir> [flags]")
		return exitConfigOrDecode
	}

	cfg, code := loadConfig(*configPath)
	if code != exitOK {
		return code
	}

	if err := runScan(cfg, fs.Arg(0), *recursive); err != nil {
		log.Printf("vrenamer: %v", err)
		return exitConfigOrDecode
	}
	return exitOK
}

func runRollbackCommand(args []string) int {
	fs := flag.NewFlagSet("rollback", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	listAudit := fs.Bool("list-audit", false, "list recent renames from the optional Postgres audit mirror, then exit")
	dropAuditSchema := fs.Bool("drop-audit-schema", false, "drop the renames table from the optional Postgres audit mirror, then exit")
	fs.Parse(args)

	if *listAudit || *dropAuditSchema {
		cfg, code := loadConfig(*configPath)
		if code != exitOK {
			return code
		}
		if cfg.Audit.PostgresURL == "" {
			log.Printf("vrenamer: audit.postgres_url is not configured")
			return exitConfigOrDecode
		}

		var err error
		if *dropAuditSchema {
			err = runDropAuditSchema(context.Background(), cfg.Audit.PostgresURL)
		} else {
			err = runListAuditMirror(context.Background(), cfg.Audit.PostgresURL, 50)
		}
		if err != nil {
			log.Printf("vrenamer: %v", err)
		}
		return exitCodeFor(err)
	}

	if fs.NArg() < 1 {
		fmt.Println("usage: vrenamer rollback <audit-file>")
		return exitConfigOrDecode
	}

	err := runRollback(fs.Arg(0))
	if err != nil {
		log.Printf("vrenamer: %v", err)
	}
	return exitCodeFor(err)
}
