package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/taskdeck/taskdeck/internal/config"
	"github.com/taskdeck/taskdeck/internal/store"
)

// newTasksCommand prints a one-shot board snapshot for scripting.
func newTasksCommand(logger *slog.Logger) *cobra.Command {
	var filter string
	var limit int

	command := &cobra.Command{
		Use:   "tasks",
		Short: "List board tasks to stdout",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.FromEnv()
			client := store.New(cfg)

			timeout := time.Duration(cfg.RequestTimeoutSec) * time.Second
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			tasks, err := client.ListTasks(ctx, filter, limit)
			if err != nil {
				return err
			}
			logger.Info("listed tasks", "count", len(tasks))

			writer := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(writer, "ID\tSTAGE\tTITLE\tADW")
			for _, task := range tasks {
				fmt.Fprintf(writer, "%s\t%s\t%s\t%s\n",
					task.ID,
					strings.ToLower(task.Stage),
					task.Title,
					task.ADWID(),
				)
			}
			return writer.Flush()
		},
	}

	command.Flags().StringVar(&filter, "filter", "", "server-side task filter")
	command.Flags().IntVar(&limit, "limit", 100, "maximum tasks to list")
	return command
}
