package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"multiviral/internal/adapters/api"
	"multiviral/internal/adapters/downloader"
	"multiviral/internal/adapters/localstorage"
	"multiviral/internal/config"
	"multiviral/internal/core/domain"
	"multiviral/internal/logging"
	"multiviral/internal/service"
	"multiviral/internal/view"
)

var version = "dev"

// app holds what every subcommand needs once flags and config are resolved.
type app struct {
	cfg    *config.Config
	logger *logrus.Logger
	client *api.Client
	store  *localstorage.LocalStorage
	styles view.Styles
	tty    bool
}

func newRootCommand() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "multiviral",
		Short: "MultiViral - turn long videos into clips, threads and articles",
		Long: `MultiViral is the command-line client for the MultiViral backend.

It submits media files or YouTube links, follows each job through upload,
transcription and generation, and shows or exports the generated clip
candidates, X thread and blog article.`,
		Version:      version,
		SilenceUsage: true,
	}

	var (
		debug   bool
		apiURL  string
		dataDir string
	)
	cmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	cmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Backend base URL (overrides config and environment)")
	cmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Directory for recorded and exported job data")

	cmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("getting working directory: %w", err)
		}
		cfg, err := config.Load(wd)
		if err != nil {
			return err
		}
		if apiURL != "" {
			cfg.API.URL = strings.TrimRight(apiURL, "/")
		}
		if dataDir != "" {
			cfg.DataDir = dataDir
		}
		if debug {
			cfg.Log.Level = "debug"
		}
		return a.init(cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
	}

	cmd.AddCommand(newSubmitCommand(a))
	cmd.AddCommand(newGenerateCommand(a))
	cmd.AddCommand(newStatusCommand(a))
	cmd.AddCommand(newWatchCommand(a))
	cmd.AddCommand(newShowCommand(a))
	cmd.AddCommand(newExportCommand(a))
	cmd.AddCommand(newJobsCommand(a))
	cmd.AddCommand(newConfigCommand(a))

	return cmd
}

func (a *app) init(cfg *config.Config, out, errOut io.Writer) error {
	logger, err := logging.New(errOut, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}

	client, err := api.NewClient(cfg.API.URL,
		api.WithHTTPClient(&http.Client{Timeout: cfg.API.RequestTimeout}),
		api.WithUploadClient(&http.Client{Timeout: cfg.API.UploadTimeout}),
		api.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logger
	a.client = client
	a.store = localstorage.NewLocalStorage(cfg.DataDir)
	a.tty = isTerminal(out)
	a.styles = view.Styles{}
	if a.tty {
		a.styles = view.TerminalStyles()
	}
	logger.WithFields(logrus.Fields{"api_url": client.BaseURL(), "config": cfg.Source}).Debug("configuration loaded")
	return nil
}

func (a *app) orchestrator() *service.Orchestrator {
	dl := downloader.NewHTTPDownloader(&http.Client{Timeout: a.cfg.API.UploadTimeout}, a.logger)
	return service.NewOrchestrator(a.client, dl, a.store, a.logger)
}

// busy shows a spinner on interactive output and returns the function that removes it.
func (a *app) busy(w io.Writer, message string) func() {
	if !a.tty {
		return func() {}
	}
	sp := view.StartSpinner(w, message)
	return sp.Stop
}

// jobIDs validates every argument as a job ID.
func jobIDs(args []string) ([]string, error) {
	ids := make([]string, 0, len(args))
	for _, arg := range args {
		id := strings.TrimSpace(arg)
		if err := domain.ValidateJobID(id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func execute(ctx context.Context) error {
	rootCmd := newRootCommand()
	return rootCmd.ExecuteContext(ctx)
}
