package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/docxer/docxer/internal/intake"
	"github.com/docxer/docxer/internal/watch"
)

func newWatchCmd() *cobra.Command {
	var existing bool
	cmd := &cobra.Command{
		Use:   "watch <inbox-dir>",
		Short: "Document every source file dropped into a directory",
		Long: `Watch an inbox directory and document each new or changed source file
into the output directory. Files whose content has not changed since they
were last documented are skipped. Stop with Ctrl-C.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			orch, gen, err := a.pipeline(ctx)
			if err != nil {
				return err
			}
			defer gen.Close()

			w, err := watch.New(args[0], watch.Config{
				Debounce:   a.cfg.WatchDebounce,
				Extensions: intake.SourceExtensions,
				Existing:   existing,
			}, a.log)
			if err != nil {
				return err
			}
			if err := w.Start(ctx); err != nil {
				return err
			}
			defer w.Stop()

			for ev := range w.Events() {
				if _, err := documentFile(ctx, a, orch, ev.AbsPath); err != nil {
					a.log.Error("documentation failed", "file", ev.Path, "error", err)
				}
			}
			a.log.Info("inbox watcher stopped")
			return nil
		},
	}
	cmd.Flags().BoolVar(&existing, "existing", false, "also document files already in the inbox")
	return cmd
}
