// meson2hermetic [graph], meson2hermetic generate [graph]
package cmd

import (
	"fmt"
	"os"

	"github.com/qobs-build/meson2hermetic/internal/builder"
	"github.com/qobs-build/meson2hermetic/internal/hermetic"
	"github.com/qobs-build/meson2hermetic/internal/msg"
	"github.com/spf13/cobra"
)

const genFromConfig = "config"

var (
	flagConfig    string
	flagOut       string
	flagGenerator EnumValue = NewEnumValue(genFromConfig, map[string]string{
		genFromConfig:          "Use the build dialect named in the config (default)",
		builder.GeneratorSoong: "Generates an Android.bp",
		builder.GeneratorBazel: "Generates a BUILD.bazel",
		builder.GeneratorAll:   "Generates every build file",
	})
)

// generator returns the --gen value the builder understands
func generator() string {
	if v := flagGenerator.Value(); v != genFromConfig {
		return v
	}
	return ""
}

// convert loads the config and converts the graph snapshot named by args
func convert(args []string) (*builder.Builder, *hermetic.State) {
	b, err := builder.NewBuilder(flagConfig)
	if err != nil {
		msg.Fatal("%v", err)
	}

	state, err := b.Convert(args[0])
	if err != nil {
		msg.Fatal("%v", err)
	}
	return b, state
}

func doGenerate(cmd *cobra.Command, args []string) {
	b, state := convert(args)
	if err := b.Generate(state, generator(), flagOut); err != nil {
		msg.Fatal("%v", err)
	}
}

var rootCmd = &cobra.Command{
	Use:   "meson2hermetic [graph snapshot]",
	Short: "Convert a meson build graph into hermetic build files",
	Long: `Convert a meson build graph snapshot into Soong (Android.bp) or Bazel
(BUILD.bazel) build files.`,
	Args: cobra.ExactArgs(1),
	Run:  doGenerate,
}

var generateCmd = &cobra.Command{
	Use:   "generate [graph snapshot]",
	Short: "Write the build files",
	Args:  cobra.ExactArgs(1),
	Run:   doGenerate,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&msg.Verbose, "verbose", "v", false, "Print debug messages")

	addGenerateFlags(rootCmd)

	// meson2hermetic generate subcommand
	rootCmd.AddCommand(generateCmd)
	addGenerateFlags(generateCmd)
}

func addGenerateFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&flagConfig, "config", "c", builder.ConfigFilename, "Path to the run configuration")
	cmd.Flags().StringVarP(&flagOut, "out", "o", "", "Output directory (default: the config directory)")
	cmd.Flags().VarP(&flagGenerator, "gen", "g", "Generator to use, one of "+flagGenerator.HelpString())
	cmd.RegisterFlagCompletionFunc("gen", flagGenerator.CompletionFunc())
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
