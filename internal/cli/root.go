package cli

import (
	"log/slog"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

func NewRoot(logger *slog.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:   "taskdeck",
		Short: "taskdeck is a terminal client for an ADW task board",
	}

	root.AddCommand(newBoardCommand(logger))
	root.AddCommand(newTasksCommand(logger))
	root.AddCommand(newVersionCommand())

	return root
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print CLI version",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println(version)
		},
	}
}
