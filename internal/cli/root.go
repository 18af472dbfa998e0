// Package cli implements the docxer command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/docxer/docxer/internal/config"
	"github.com/docxer/docxer/internal/llm"
	"github.com/docxer/docxer/internal/pipeline"
)

type ctxKey string

const appKey ctxKey = "app"

// GeneratorFunc builds the LLM backend for commands that call one.
type GeneratorFunc func(ctx context.Context, cfg config.Config) (llm.Generator, error)

func defaultGenerator(ctx context.Context, cfg config.Config) (llm.Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return llm.New(ctx, llm.FromConfig(cfg))
}

type app struct {
	cfg          config.Config
	log          *slog.Logger
	newGenerator GeneratorFunc
}

// pipeline builds a synchronous pipeline around a fresh generator. The
// caller closes the returned generator.
func (a *app) pipeline(ctx context.Context) (*pipeline.Orchestrator, llm.Generator, error) {
	gen, err := a.newGenerator(ctx, a.cfg)
	if err != nil {
		return nil, nil, err
	}
	return pipeline.NewOrchestrator(a.cfg, gen, nil, a.log), gen, nil
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd(nil).Execute()
}

// NewRootCmd constructs the root command. A nil newGen uses the provider
// selected by configuration.
func NewRootCmd(newGen GeneratorFunc) *cobra.Command {
	if newGen == nil {
		newGen = defaultGenerator
	}
	var (
		cfgPath string
		verbose bool
	)

	cmd := &cobra.Command{
		Use:           "docxer",
		Short:         "Turn source code into styled Word documentation",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v := viper.New()
			if cfgPath != "" {
				v.SetConfigFile(cfgPath)
			}
			if err := v.BindPFlag("output_dir", cmd.Root().PersistentFlags().Lookup("output-dir")); err != nil {
				return err
			}
			cfg, err := config.Overlay(config.Load(), v)
			if err != nil {
				return err
			}
			a := &app{
				cfg:          cfg,
				log:          newLogger(cmd.ErrOrStderr(), verbose),
				newGenerator: newGen,
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey, a))
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config file (yaml|toml|json)")
	cmd.PersistentFlags().String("output-dir", "", "directory for generated documents")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log progress at debug level")

	cmd.AddCommand(newGenerateCmd())
	cmd.AddCommand(newRenderCmd())
	cmd.AddCommand(newInspectCmd())
	cmd.AddCommand(newPreviewCmd())
	cmd.AddCommand(newWatchCmd())

	cmd.Run = func(cmd *cobra.Command, args []string) { _ = cmd.Help() }

	return cmd
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func getApp(cmd *cobra.Command) (*app, error) {
	a, ok := cmd.Context().Value(appKey).(*app)
	if !ok {
		return nil, fmt.Errorf("internal error: app not initialized")
	}
	return a, nil
}
