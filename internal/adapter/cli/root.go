package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/bkyoung/pr-reviewer/internal/diff"
	"github.com/bkyoung/pr-reviewer/internal/domain"
	"github.com/bkyoung/pr-reviewer/internal/usecase/review"
)

// ErrVersionRequested indicates the user requested the CLI version and no further work should be done.
var ErrVersionRequested = errors.New("version requested")

// PipelineRunner defines the dependency required to run the review command.
type PipelineRunner interface {
	Run(ctx context.Context, req review.Request) (domain.RunSummary, error)
}

// Arguments encapsulates IO writers injected from the host process.
type Arguments struct {
	OutWriter io.Writer
	ErrWriter io.Writer
}

// Defaults holds flag defaults resolved from config and the local
// checkout before the command runs.
type Defaults struct {
	Owner      string
	Repo       string
	PullNumber int
	Mode       string
	WholePR    bool
}

// Dependencies captures the collaborators for the CLI.
type Dependencies struct {
	Runner   PipelineRunner
	Args     Arguments
	Defaults Defaults
	Version  string
}

// NewRootCommand constructs the root Cobra command.
func NewRootCommand(deps Dependencies) *cobra.Command {
	versionString := deps.Version
	if versionString == "" {
		versionString = "v0.0.0"
	}

	root := &cobra.Command{
		Use:   "prr",
		Short: "Automated pull request review comments",
	}
	root.SilenceUsage = true
	root.SilenceErrors = true

	outWriter := deps.Args.OutWriter
	if outWriter == nil {
		outWriter = os.Stdout
	}
	errWriter := deps.Args.ErrWriter
	if errWriter == nil {
		errWriter = os.Stderr
	}
	root.SetOut(outWriter)
	root.SetErr(errWriter)

	root.AddCommand(reviewCommand(deps.Runner, deps.Defaults))

	var showVersion bool
	root.PersistentFlags().BoolVarP(&showVersion, "version", "v", false, "Show version and exit")
	versionHandler := func(cmd *cobra.Command, args []string) error {
		if showVersion {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), versionString)
			return ErrVersionRequested
		}
		return nil
	}
	root.PersistentPreRunE = versionHandler
	root.PreRunE = versionHandler
	root.RunE = func(cmd *cobra.Command, args []string) error {
		if err := versionHandler(cmd, args); err != nil {
			return err
		}
		return cmd.Help()
	}

	return root
}

func reviewCommand(runner PipelineRunner, defaults Defaults) *cobra.Command {
	var owner string
	var repo string
	var pullNumber int
	var baseRef string
	var headRef string
	var mode string
	var wholePR bool

	cmd := &cobra.Command{
		Use:   "review",
		Short: "Review a pull request and post inline comments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if owner == "" || repo == "" {
				return fmt.Errorf("--owner and --repo are required (or run inside a checkout with an origin remote)")
			}
			if pullNumber <= 0 {
				return fmt.Errorf("--pr must be a positive integer")
			}
			if (baseRef == "") != (headRef == "") {
				return fmt.Errorf("--base and --head must be set together")
			}

			summary, err := runner.Run(cmd.Context(), review.Request{
				Owner:      owner,
				Repo:       repo,
				PullNumber: pullNumber,
				Base:       baseRef,
				Head:       headRef,
				Mode:       diff.ParseMode(mode),
				WholePR:    wholePR,
			})
			if err != nil {
				return err
			}

			if !summary.Reviewed() {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No change to review.")
				return nil
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(),
				"Reviewed %d file(s): %d comment(s) posted, %d clean, %d skipped, %d failed\n",
				summary.FilesReviewed, summary.UnitsPosted, summary.UnitsClean,
				summary.UnitsSkipped, summary.UnitsFailed)
			return nil
		},
	}

	cmd.Flags().StringVar(&owner, "owner", defaults.Owner, "Repository owner")
	cmd.Flags().StringVar(&repo, "repo", defaults.Repo, "Repository name")
	cmd.Flags().IntVar(&pullNumber, "pr", defaults.PullNumber, "Pull request number")
	cmd.Flags().StringVar(&baseRef, "base", "", "Base ref for compare mode (requires --head)")
	cmd.Flags().StringVar(&headRef, "head", "", "Head ref for compare mode (requires --base)")
	cmd.Flags().StringVar(&mode, "mode", defaults.Mode, "Segmentation mode: line, block, or file")
	cmd.Flags().BoolVar(&wholePR, "whole-pr", defaults.WholePR, "Post a single summary review instead of inline comments")

	return cmd
}
