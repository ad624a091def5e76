package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"multiviral/internal/core/domain"
	"multiviral/internal/service"
	"multiviral/internal/view"
)

// promptSubmit is a test hook for replacing the interactive submission form.
var promptSubmit = defaultPromptSubmit

func newSubmitCommand(a *app) *cobra.Command {
	var (
		lang        string
		output      string
		generate    bool
		watch       bool
		interactive bool
	)

	cmd := &cobra.Command{
		Use:   "submit [file | url]",
		Short: "Upload a media file or register a URL",
		Long: `Submit media to the backend and start content generation.

YouTube links are passed to the backend, which downloads the audio itself.
Other http(s) URLs are fetched locally and uploaded like a file. Anything
else is treated as a path to a local audio or video file.

The output language only applies to English media; Japanese media always
produces Japanese content.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("lang") {
				lang = a.cfg.Submit.TranscriptLanguage
			}
			if !cmd.Flags().Changed("output") {
				output = a.cfg.Submit.OutputLanguage
			}

			req := service.SubmitRequest{
				Options: domain.Options{
					TranscriptLanguage: domain.SourceLanguage(lang),
					OutputLanguage:     domain.OutputLanguage(output),
				},
				Generate: generate,
			}
			if len(args) == 1 {
				req.Source = args[0]
			}

			if interactive {
				if err := promptSubmit(cmd.InOrStdin(), cmd.OutOrStdout(), &req); err != nil {
					return fmt.Errorf("prompt failed: %w", err)
				}
			}
			if strings.TrimSpace(req.Source) == "" {
				return errors.New("a media file path or URL is required")
			}

			out := cmd.OutOrStdout()
			done := a.busy(out, "submitting...")
			result, err := a.orchestrator().Submit(cmd.Context(), req)
			done()

			if result != nil {
				fmt.Fprintf(out, "Job %s accepted (%s)\n", result.Submission.JobID, result.Source) //nolint:errcheck
			}
			if err != nil {
				return err
			}

			id := result.Submission.JobID
			if !result.Generated {
				fmt.Fprintf(out, "Start generation with: multiviral generate %s\n", id) //nolint:errcheck
				return nil
			}
			fmt.Fprintln(out, "Generation started.") //nolint:errcheck
			if watch {
				return a.watch(cmd.Context(), out, []string{id}, watchOptions{section: view.SectionAll})
			}
			fmt.Fprintf(out, "Follow progress with: multiviral watch %s\n", id) //nolint:errcheck
			return nil
		},
	}

	cmd.Flags().StringVarP(&lang, "lang", "l", "", "Language spoken in the media: ja or en (default from config)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output language for English media: same or ja (default from config)")
	cmd.Flags().BoolVar(&generate, "generate", true, "Start generation once the submission is accepted")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Follow the job until it finishes and print the results")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Choose source and languages in a form")

	return cmd
}

// defaultPromptSubmit asks for whatever the request is missing. Without a
// terminal on in, the form runs in accessible mode and reads plain lines.
func defaultPromptSubmit(in io.Reader, out io.Writer, req *service.SubmitRequest) error {
	lang := string(req.Options.TranscriptLanguage)
	output := string(req.Options.OutputLanguage)

	var first []huh.Field
	if strings.TrimSpace(req.Source) == "" {
		first = append(first, huh.NewInput().
			Title("Media file or URL").
			Description("Local path, YouTube link or direct media URL").
			Value(&req.Source).
			Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return errors.New("a file path or URL is required")
				}
				return nil
			}))
	}
	first = append(first, huh.NewSelect[string]().
		Title("Spoken language").
		Options(
			huh.NewOption("Japanese", string(domain.SourceJapanese)),
			huh.NewOption("English", string(domain.SourceEnglish)),
		).
		Value(&lang))

	form := huh.NewForm(
		huh.NewGroup(first...),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Output language").
				Options(
					huh.NewOption("Same as the media (English)", string(domain.OutputSame)),
					huh.NewOption("Japanese", string(domain.OutputJapanese)),
				).
				Value(&output),
		).WithHideFunc(func() bool { return lang != string(domain.SourceEnglish) }),
		huh.NewGroup(
			huh.NewConfirm().
				Title("Start generation right away?").
				Affirmative("Yes").
				Negative("No").
				Value(&req.Generate),
		),
	).WithInput(in).WithOutput(out).WithAccessible(!isTerminal(in))

	if err := form.Run(); err != nil {
		return err
	}

	req.Options = domain.Options{
		TranscriptLanguage: domain.SourceLanguage(lang),
		OutputLanguage:     domain.OutputLanguage(output),
	}
	return nil
}
