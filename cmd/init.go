// meson2hermetic init [name]
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/qobs-build/meson2hermetic/internal/builder"
	"github.com/qobs-build/meson2hermetic/internal/msg"
	"github.com/spf13/cobra"
)

// writefile writes content to the joined path unless a file already exists there
func writefile(content string, elem ...string) bool {
	path := filepath.Join(elem...)
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		msg.Warn("%s already exists, leaving it alone", filepath.ToSlash(path))
		return false
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		msg.Fatal("create file %s: %v", path, err)
	}
	fmt.Printf("%s file: %s\n", color.HiGreenString("Created"), filepath.ToSlash(path))
	return true
}

func mkdir(elem ...string) {
	path := filepath.Join(elem...)
	if err := os.MkdirAll(path, 0o755); err != nil {
		msg.Fatal("mkdir %s: %v", path, err)
	}
}

func getProgramName() string {
	if len(os.Args) == 0 {
		return "meson2hermetic"
	}
	basename := filepath.Base(os.Args[0])
	return strings.TrimSuffix(basename, filepath.Ext(basename))
}

// sampleConfig returns a run configuration for project name targeting build
func sampleConfig(name, build string) string {
	return `build = "` + build + `"

[project_config]
name = "` + name + `"

[project_config.host_machine]
system = "android"
cpu_family = "aarch64"
cpu = "aarch64"
endian = "little"

[project_config.build_machine]
system = "linux"
cpu_family = "x86_64"
cpu = "x86_64"
endian = "little"

[project_config.target_machine]
system = "android"
cpu_family = "aarch64"
cpu = "aarch64"
endian = "little"

[project_config.meson_options]
buildtype = "release"

[project_config.meson_options."target_os == 'linux'"]
# only applied when converting on linux
b_ndebug = true

[filter]
skip_subdirs = []
`
}

// initIn writes a run configuration into an existing directory
func initIn(dir, name, build string) {
	if !writefile(sampleConfig(name, build), dir, builder.ConfigFilename) {
		return
	}

	programName := getProgramName()
	fmt.Printf("Export the graph snapshot of your meson build directory, then run %s.\n",
		color.HiCyanString(programName+" -c "+filepath.ToSlash(filepath.Join(dir, builder.ConfigFilename))+" <graph.yaml>"))
}

var initBuild EnumValue = NewEnumValue("Soong", map[string]string{
	"Soong": "Android.bp output",
	"Bazel": "BUILD.bazel output",
})

var initCmd = &cobra.Command{
	Use:   "init [name]",
	Short: "Create a run configuration in the current directory",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		initIn(".", args[0], initBuild.Value())
	},
}

var newCmd = &cobra.Command{
	Use:   "new [path]",
	Short: "Create a run configuration in a new directory",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		mkdir(args[0])
		initIn(args[0], filepath.Base(args[0]), initBuild.Value())
	},
}

func init() {
	// meson2hermetic init subcommand
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().VarP(&initBuild, "build", "b", "Build dialect, one of "+initBuild.HelpString())
	initCmd.RegisterFlagCompletionFunc("build", initBuild.CompletionFunc())

	// meson2hermetic new subcommand
	rootCmd.AddCommand(newCmd)
	newCmd.Flags().VarP(&initBuild, "build", "b", "Build dialect, one of "+initBuild.HelpString())
	newCmd.RegisterFlagCompletionFunc("build", initBuild.CompletionFunc())
}
