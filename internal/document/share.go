package document

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/adverant/nexus/docscan-client/internal/logging"
)

// Sharer is the platform share surface
type Sharer interface {
	Available() bool
	Share(ctx context.Context, path, mimeType, dialogTitle string) error
}

// NoShare is a share surface that is never available
type NoShare struct{}

func (NoShare) Available() bool { return false }

func (NoShare) Share(context.Context, string, string, string) error {
	return fmt.Errorf("no share surface available")
}

// Runner lets tests stub external commands.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb
	err := cmd.Run()
	return out.Bytes(), errb.Bytes(), err
}

// CommandSharer hands files to an external command (xdg-open, open, a
// messaging CLI, ...). The file path is appended as the last argument.
type CommandSharer struct {
	command  []string
	runner   Runner
	lookPath func(string) (string, error)
	logger   *logging.Logger
}

// NewCommandSharer parses a command line such as "xdg-open" or "open -R".
// An empty command yields NoShare.
func NewCommandSharer(commandLine string) Sharer {
	fields := strings.Fields(commandLine)
	if len(fields) == 0 {
		return NoShare{}
	}
	return &CommandSharer{
		command:  fields,
		runner:   execRunner{},
		lookPath: exec.LookPath,
		logger:   logging.NewLogger("Share"),
	}
}

// Available reports whether the share command resolves on PATH
func (s *CommandSharer) Available() bool {
	_, err := s.lookPath(s.command[0])
	return err == nil
}

// Share runs the command on the file
func (s *CommandSharer) Share(ctx context.Context, path, mimeType, dialogTitle string) error {
	args := append(append([]string(nil), s.command[1:]...), path)

	start := time.Now()
	_, stderr, err := s.runner.Run(ctx, s.command[0], args...)
	if err != nil {
		s.logger.Error("share command failed",
			"cmd", s.command[0],
			"path", path,
			"stderr", strings.TrimSpace(string(stderr)),
			"error", err)
		return fmt.Errorf("share %s: %w", path, err)
	}

	s.logger.Info("document shared",
		"cmd", s.command[0],
		"path", path,
		"mimeType", mimeType,
		"dialog", dialogTitle,
		"duration", time.Since(start))
	return nil
}
