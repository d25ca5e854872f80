// meson2hermetic dump [graph]
package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/qobs-build/meson2hermetic/internal/builder"
	"github.com/qobs-build/meson2hermetic/internal/hermetic"
	"github.com/qobs-build/meson2hermetic/internal/msg"
	"github.com/spf13/cobra"
)

func dumpList(w io.Writer, key string, values []string) {
	if len(values) > 0 {
		fmt.Fprintf(w, "%s: %s\n", key, strings.Join(values, ", "))
	}
}

// dumpState prints the configured options and every record of state
func dumpState(w io.Writer, cfg *builder.Config, state *hermetic.State) {
	fmt.Fprintln(w, state)

	iw := &msg.IndentWriter{Indent: "\t", W: w}
	fmt.Fprintln(w, color.HiCyanString("meson options"))
	for _, opt := range cfg.ProjectOptions() {
		fmt.Fprintln(iw, "-D"+opt)
	}

	for _, lib := range state.Libraries() {
		fmt.Fprintln(w, color.HiCyanString(lib.String()))
		dumpList(iw, "srcs", lib.Srcs)
		dumpList(iw, "local_include_dirs", lib.LocalIncludeDirs)
		dumpList(iw, "generated_headers", lib.GeneratedHeaders)
		dumpList(iw, "generated_sources", lib.GeneratedSources)
		dumpList(iw, "static_libs", lib.StaticLibs)
		dumpList(iw, "whole_static_libs", lib.WholeStaticLibs)
		dumpList(iw, "shared_libs", lib.SharedLibs)
	}

	for _, ct := range state.CustomTargets {
		fmt.Fprintln(w, color.HiCyanString(ct.String()))
		dumpList(iw, "srcs", ct.Srcs)
		dumpList(iw, "out", ct.Out)
		dumpList(iw, "tools", ct.Tools)
		dumpList(iw, "cmd", ct.Cmd)
	}

	for _, st := range state.ScriptTargets {
		fmt.Fprintln(w, color.HiCyanString(st.String()))
		fmt.Fprintf(iw, "main: %s\n", st.Main)
		dumpList(iw, "srcs", st.Srcs)
		dumpList(iw, "imports", st.Imports)
	}

	dumpList(w, "conlyflags", state.ConlyFlags)
	dumpList(w, "cppflags", state.CppFlags)
	if state.CStd != "" {
		fmt.Fprintf(w, "c_std: %s\n", state.CStd)
	}
	if state.CppStd != "" {
		fmt.Fprintf(w, "cpp_std: %s\n", state.CppStd)
	}
}

var dumpCmd = &cobra.Command{
	Use:   "dump [graph snapshot]",
	Short: "Print the converted intermediate state",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		b, state := convert(args)
		dumpState(os.Stdout, b.Config(), state)
	},
}

func init() {
	// meson2hermetic dump subcommand
	rootCmd.AddCommand(dumpCmd)
	dumpCmd.Flags().StringVarP(&flagConfig, "config", "c", builder.ConfigFilename, "Path to the run configuration")
}
