package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"chapterize/config"
	"chapterize/ffmetadata"
	"chapterize/internal/logger"
	"chapterize/pipeline"
)

// errCancelled marks a run stopped by SIGINT or SIGTERM.
var errCancelled = errors.New("cancelled by user")

func main() {
	// Cancel the shared context on Ctrl+C or SIGTERM
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\n\n⚠️  Interrupt received, cleaning up...")
		cancel()
	}()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		if errors.Is(err, errCancelled) || ctx.Err() != nil {
			fmt.Fprintln(os.Stderr, "\n⚠️  Build cancelled by user")
			os.Exit(130) // Standard exit code for SIGINT
		}
		fmt.Fprintf(os.Stderr, "\n❌ %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "chapterize [source]",
		Short: "Merge a folder of MP3 files into a chaptered M4B audiobook",
		Long: `chapterize concatenates the audio files of a directory, in name order,
into a single M4B or M4A file with one chapter per input file. Chapter
titles come from each file's title tag and chapter boundaries from the
measured file durations. A cover image is attached when one is found.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runBuild,
	}

	config.RegisterFlags(root.PersistentFlags())

	root.AddCommand(
		&cobra.Command{
			Use:   "build [source]",
			Short: "Build the audiobook (same as running without a command)",
			Args:  cobra.MaximumNArgs(1),
			RunE:  runBuild,
		},
		newMetadataCmd(),
		newConvertCmd(),
		newLabelsCmd(),
		newConfigCmd(),
	)
	return root
}

func newMetadataCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "metadata [source]",
		Short: "Probe the input files and write only the FFMETADATA document",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup(cmd, args)
			if err != nil {
				return err
			}

			p, err := newPipeline(cfg, log)
			if err != nil {
				return err
			}

			report, err := p.Metadata(cmd.Context())
			if err != nil {
				return wrapCancel(cmd.Context(), err)
			}

			out := cmd.OutOrStdout()
			pipeline.PrintChapters(out, report.Chapters, cfg.Chapters.UnitsPerSecond)
			fmt.Fprintf(out, "\n✓ Wrote %s\n", report.MetadataPath)
			return nil
		},
	}
}

func newConvertCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "convert [source]",
		Short: "Re-encode every input file into its own M4A",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup(cmd, args)
			if err != nil {
				return err
			}

			p, err := newPipeline(cfg, log)
			if err != nil {
				return err
			}

			_, err = p.Convert(cmd.Context())
			return wrapCancel(cmd.Context(), err)
		},
	}
}

func newLabelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "labels <labels.txt> [output]",
		Short: "Convert an Audacity label export into a chapter-only FFMETADATA document",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			src := args[0]
			dst := filepath.Join(filepath.Dir(src), "FFMETADATA.txt")
			if len(args) == 2 {
				dst = args[1]
			}

			n, err := ffmetadata.ConvertLabelsFile(src, dst)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %d chapters to %s\n", n, dst)
			return nil
		},
	}
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create configuration files",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective configuration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := config.Load(cmd.Flags())
				if err != nil {
					return err
				}
				cfg.PrintConfig(cmd.OutOrStdout())
				return cfg.Validate()
			},
		},
		&cobra.Command{
			Use:   "init [path]",
			Short: "Write the default configuration to a file",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				path := "chapterize.yaml"
				if len(args) == 1 {
					path = args[0]
				}
				if _, err := os.Stat(path); err == nil {
					return fmt.Errorf("%s already exists", path)
				}
				if err := config.SaveConfigFile(config.DefaultConfig(), path); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote default configuration to %s\n", path)
				return nil
			},
		},
	)
	return cmd
}

// runBuild executes the complete audiobook workflow.
func runBuild(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup(cmd, args)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "╔════════════════════════════════════════════════════════════════╗")
	fmt.Fprintln(out, "║                   CHAPTERIZE - BUILD START                     ║")
	fmt.Fprintln(out, "╚════════════════════════════════════════════════════════════════╝")
	fmt.Fprintf(out, "Source: %s\n", cfg.Source)
	fmt.Fprintf(out, "Output: %s\n\n", cfg.OutputPath())

	if cfg.DryRun {
		fmt.Fprintln(out, "═══════════════════════════════════════════════════════════")
		fmt.Fprintln(out, "                      DRY RUN MODE")
		fmt.Fprintln(out, "═══════════════════════════════════════════════════════════")
		cfg.PrintConfig(out)
	}

	p, err := newPipeline(cfg, log)
	if err != nil {
		return err
	}

	report, err := p.Build(cmd.Context())
	if err != nil {
		return wrapCancel(cmd.Context(), err)
	}

	if cfg.DryRun {
		fmt.Fprintln(out, "\n✓ Configuration is valid. No audio was written.")
		return nil
	}

	if cfg.Verbose {
		pipeline.PrintChapters(out, report.Chapters, cfg.Chapters.UnitsPerSecond)
		fmt.Fprintln(out)
	}
	pipeline.PrintSummary(out, report)

	// Terminal bell
	if term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Fprint(out, "\a")
	}
	return nil
}

// setup loads the configuration, applying a positional source directory,
// and creates the logger.
func setup(cmd *cobra.Command, args []string) (*config.Config, *logger.Logger, error) {
	if len(args) == 1 {
		if err := cmd.Flags().Set("source", args[0]); err != nil {
			return nil, nil, err
		}
	}

	cfg, err := config.LoadConfig(cmd.Flags())
	if err != nil {
		return nil, nil, fmt.Errorf("configuration error: %w", err)
	}

	log := logger.New(logger.Config{
		Writer: os.Stderr,
		Format: cfg.Log.Format,
		Level:  logger.ParseLevel(cfg.Log.Level),
		Color:  term.IsTerminal(int(os.Stderr.Fd())),
	})
	return cfg, log, nil
}

func newPipeline(cfg *config.Config, log *logger.Logger) (*pipeline.Pipeline, error) {
	deps, err := pipeline.NewDeps(cfg, log)
	if err != nil {
		return nil, err
	}
	return pipeline.New(cfg, deps), nil
}

func wrapCancel(ctx context.Context, err error) error {
	if err != nil && ctx.Err() != nil {
		return fmt.Errorf("%w: %v", errCancelled, err)
	}
	return err
}
