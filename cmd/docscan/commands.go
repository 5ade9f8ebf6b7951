package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/adverant/nexus/docscan-client/internal/clients"
	"github.com/adverant/nexus/docscan-client/internal/config"
	"github.com/adverant/nexus/docscan-client/internal/document"
	"github.com/adverant/nexus/docscan-client/internal/errors"
	"github.com/adverant/nexus/docscan-client/internal/logging"
	"github.com/adverant/nexus/docscan-client/internal/processor"
	"github.com/adverant/nexus/docscan-client/internal/storage"
)

type app struct {
	cfg    *config.Config
	logger *logging.Logger
	stdout io.Writer
}

func defaultTitle() string {
	return "OCR Document - " + time.Now().Format("2006-01-02")
}

func (a *app) ocrClient() (*clients.OCRClient, error) {
	return clients.NewOCRClient(&clients.OCRClientConfig{
		BaseURL:           a.cfg.BackendURL,
		Timeout:           a.cfg.RequestTimeout,
		ValidateResponses: a.cfg.ValidateResponses,
	})
}

func (a *app) materializer() (*document.Materializer, error) {
	return document.NewMaterializer(&document.MaterializerConfig{
		OutputDir:  a.cfg.OutputDir,
		Downloader: clients.NewArtifactClient(a.cfg.DownloadTimeout),
		Sharer:     document.NewCommandSharer(a.cfg.ShareCommand),
	})
}

func (a *app) historyManager(ctx context.Context) (*storage.HistoryManager, error) {
	store, err := storage.OpenHistoryStore(ctx, a.cfg)
	if err != nil {
		return nil, errors.NewStorageFailedError("open", err)
	}
	return storage.NewHistoryManager(store, nil)
}

// scan runs one capture → submit → preview → (edit) → save/share pass
func (a *app) scan(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("scan", flag.ContinueOnError)
	title := fs.String("title", "", "document title (default \"OCR Document - <date>\")")
	editFile := fs.String("edit-file", "", "replace the extracted text with the contents of this file")
	save := fs.Bool("save", false, "save the final text to history")
	makeDoc := fs.Bool("document", false, "build a document and hand it to the share command")
	quiet := fs.Bool("quiet", false, "do not print progress")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("scan needs exactly one image path")
	}

	client, err := a.ocrClient()
	if err != nil {
		return err
	}

	onProgress := func(s processor.JobSnapshot) {
		if *quiet || s.ProgressLabel == "" {
			return
		}
		fmt.Fprintf(os.Stderr, "[%3d%%] %s\n", s.ProgressPercent, s.ProgressLabel)
	}

	proc, err := processor.NewScanProcessor(&processor.ProcessorConfig{
		Client:           client,
		ProgressInterval: a.cfg.ProgressInterval,
		OnProgress:       onProgress,
	})
	if err != nil {
		return err
	}

	session := processor.NewSession(func() string {
		if strings.TrimSpace(*title) != "" {
			return *title
		}
		return defaultTitle()
	})

	job, err := session.Capture(fs.Arg(0))
	if err != nil {
		return err
	}

	a.logger.Info("Submitting image",
		"job_id", job.ID(),
		"image", job.SourceImageLocation(),
		"backend_url", client.BaseURL(),
	)

	result, err := proc.Submit(ctx, job)
	if err != nil {
		return err
	}

	if err := session.ShowResult(); err != nil {
		return err
	}
	if strings.TrimSpace(job.Text()) == "" {
		fmt.Fprintln(os.Stderr, "No text was found in the image")
	}

	if *editFile != "" {
		if err := a.applyEdit(session, *editFile); err != nil {
			return err
		}
	}

	fmt.Fprintln(a.stdout, job.Text())
	fmt.Fprintf(os.Stderr, "\n%d characters, confidence %.0f%%, method %s\n",
		len([]rune(job.Text())), result.Metadata.ConfidenceScore()*100, result.Metadata.ProcessingMethod)

	if *save {
		history, err := a.historyManager(ctx)
		if err != nil {
			return err
		}
		defer history.Close()

		rec, err := history.Save(ctx, job.Title(), job.Text())
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Saved to history as %s\n", rec.ID)
	}

	if *makeDoc {
		m, err := a.materializer()
		if err != nil {
			return err
		}
		artifact, err := m.Materialize(ctx, job.Result(), job.Text(), job.Title())
		if err != nil {
			return err
		}
		a.reportArtifact(artifact)
	}

	return nil
}

func (a *app) applyEdit(session *processor.Session, path string) error {
	if _, err := session.OpenEdit(); err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		_ = session.CancelEdit()
		return errors.NewInputError("", "Could not read the edited text", err)
	}

	if err := session.SetEditBuffer(string(data)); err != nil {
		return err
	}
	return session.SaveEdit()
}

func (a *app) reportArtifact(artifact *document.Artifact) {
	if artifact.Shared {
		fmt.Fprintf(os.Stderr, "Document shared: %s\n", artifact.Path)
		return
	}
	fmt.Fprintf(os.Stderr, "Document saved to %s (no share surface configured)\n", artifact.Path)
}

func (a *app) health(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("health", flag.ContinueOnError)
	probe := fs.Bool("probe", true, "also POST a test payload to the OCR endpoint")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := a.ocrClient()
	if err != nil {
		return err
	}

	if err := client.HealthCheck(ctx); err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "health: ok (%s)\n", client.BaseURL())

	if *probe {
		if _, err := client.Probe(ctx); err != nil {
			return err
		}
		fmt.Fprintln(a.stdout, "probe: ok")
	}
	return nil
}

func (a *app) history(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("history needs a subcommand: list, show, delete, clear, export")
	}

	history, err := a.historyManager(ctx)
	if err != nil {
		return err
	}
	defer history.Close()

	sub, rest := args[0], args[1:]
	switch sub {
	case "list":
		records, err := history.List(ctx)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tTITLE\tCREATED\tWORDS")
		for _, r := range records {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", r.ID, r.Title, r.CreatedAt.Local().Format("2006-01-02 15:04"), r.WordCount)
		}
		return tw.Flush()

	case "show":
		if len(rest) != 1 {
			return fmt.Errorf("history show needs a record id")
		}
		rec, err := history.Get(ctx, rest[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(a.stdout, "%s\n%s\n\n%s\n", rec.Title, rec.CreatedAt.Local().Format(time.RFC1123), rec.Text)
		return nil

	case "delete":
		if len(rest) != 1 {
			return fmt.Errorf("history delete needs a record id")
		}
		return history.Delete(ctx, rest[0])

	case "clear":
		return history.Clear(ctx)

	case "export":
		if len(rest) != 1 {
			return fmt.Errorf("history export needs an output file")
		}
		data, err := history.ExportXLSX(ctx)
		if err != nil {
			return err
		}
		if err := os.WriteFile(rest[0], data, 0o644); err != nil {
			return errors.NewStorageFailedError("export", err)
		}
		fmt.Fprintf(a.stdout, "Exported history to %s\n", rest[0])
		return nil

	default:
		return fmt.Errorf("unknown history subcommand %q", sub)
	}
}

// document builds a document from a saved scan; there is no OCR result, so
// the HTML path is always taken.
func (a *app) document(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("document needs a history record id")
	}

	history, err := a.historyManager(ctx)
	if err != nil {
		return err
	}
	defer history.Close()

	rec, err := history.Get(ctx, args[0])
	if err != nil {
		return err
	}

	m, err := a.materializer()
	if err != nil {
		return err
	}

	artifact, err := m.Materialize(ctx, nil, rec.Text, rec.Title)
	if err != nil {
		return err
	}
	a.reportArtifact(artifact)
	return nil
}
