// meson2hermetic diff [graph]
package cmd

import (
	"os"

	"github.com/qobs-build/meson2hermetic/internal/msg"
	"github.com/spf13/cobra"
)

var diffCmd = &cobra.Command{
	Use:   "diff [graph snapshot]",
	Short: "Show how the build files on disk differ from a fresh conversion",
	Long: `Show how the build files on disk differ from a fresh conversion.
Exits with status 1 when they differ.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		b, state := convert(args)
		changed, err := b.Diff(state, generator(), flagOut, os.Stdout)
		if err != nil {
			msg.Fatal("%v", err)
		}
		if changed {
			msg.Error("build files are out of date")
			os.Exit(1)
		}
		msg.Info("build files are up to date")
	},
}

func init() {
	// meson2hermetic diff subcommand
	rootCmd.AddCommand(diffCmd)
	addGenerateFlags(diffCmd)
}
