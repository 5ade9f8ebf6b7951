/**
 * docscan - OCR document scanner client
 *
 * Sends a local image to the OCR backend, shows scripted progress while the
 * request is in flight, and turns the extracted text into a shareable
 * document. Saved scans go to the configured history backend.
 *
 * Commands:
 * - scan <image>           submit an image and print the extracted text
 * - health                 check the OCR backend
 * - history <subcommand>   list, show, delete, clear or export saved scans
 * - document <history-id>  build a document from a saved scan
 */

package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/adverant/nexus/docscan-client/internal/config"
	"github.com/adverant/nexus/docscan-client/internal/errors"
	"github.com/adverant/nexus/docscan-client/internal/logging"
)

const usage = `usage: docscan <command> [flags]

commands:
  scan <image>             submit an image for OCR
  health                   check the OCR backend
  history list             list saved scans
  history show <id>        print a saved scan
  history delete <id>      delete a saved scan
  history clear            delete every saved scan
  history export <file>    write the history as an .xlsx workbook
  document <id>            build and share a document from a saved scan
`

var commands = map[string]bool{"scan": true, "health": true, "history": true, "document": true}

// checkCommand decides, before any configuration is read, whether args name
// a runnable command. It returns the exit code to use when it is not.
func checkCommand(args []string, stdout, stderr io.Writer) (ok bool, code int) {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return false, 2
	}

	switch cmd := args[0]; {
	case cmd == "help" || cmd == "-h" || cmd == "--help":
		fmt.Fprint(stdout, usage)
		return false, 0
	case !commands[cmd]:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", cmd, usage)
		return false, 2
	}
	return true, 0
}

func main() {
	if ok, code := checkCommand(os.Args[1:], os.Stdout, os.Stderr); !ok {
		os.Exit(code)
	}

	// Load environment variables
	if err := godotenv.Load(".env.docscan"); err != nil {
		log.Printf("Warning: .env.docscan not found, using system environment variables")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logging.Configure(os.Stderr, cfg.LogFormat, cfg.LogLevel)
	logger := logging.NewLogger("docscan")

	// SIGINT/SIGTERM cancel the active job
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Debug("Configuration loaded",
		"backend_url", cfg.BackendURL,
		"history_backend", cfg.HistoryBackend,
		"output_dir", cfg.OutputDir,
	)

	app := &app{cfg: cfg, logger: logger, stdout: os.Stdout}

	cmd, args := os.Args[1], os.Args[2:]
	switch cmd {
	case "scan":
		err = app.scan(ctx, args)
	case "health":
		err = app.health(ctx, args)
	case "history":
		err = app.history(ctx, args)
	case "document":
		err = app.document(ctx, args)
	}

	if err != nil {
		logger.Debug("Command failed", "command", cmd, "code", errors.CodeOf(err), "error", err)
		fmt.Fprintf(os.Stderr, "Error: %s\n", errors.UserMessage(err))
		stop()
		os.Exit(1)
	}
}
