// buildglue tests [path], buildglue launcher <name>
package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/qobs-build/buildglue/internal/builder"
	"github.com/qobs-build/buildglue/internal/launcher"
	"github.com/qobs-build/buildglue/internal/msg"
	"github.com/spf13/cobra"
)

var flagOutput string

func doTests(cmd *cobra.Command, args []string) {
	b, err := builder.NewBuilderInDirectory(targetPath(args), flagTargetOS)
	if err != nil {
		msg.Fatal("%v", err)
	}
	paths, err := b.GenerateLaunchers(cmd.Context())
	if err != nil {
		msg.Fatal("%v", err)
	}
	if len(paths) == 0 {
		msg.Warn("no test suites configured in [tests]")
	}
	for _, path := range paths {
		fmt.Printf("%s launcher: %s\n", color.HiGreenString("Generated"), path)
	}
}

func doLauncher(cmd *cobra.Command, args []string) {
	path, err := launcher.Generate(launcher.TestSuite{Name: args[0]}, flagOutput)
	if err != nil {
		msg.Fatal("%v", err)
	}
	fmt.Printf("%s launcher: %s\n", color.HiGreenString("Generated"), path)
}

var testsCmd = &cobra.Command{
	Use:   "tests [target path]",
	Short: "Generate CppUnit launchers for the package's test suites",
	Long:  `Generate CppUnit launchers for every suite in [tests]. If no target path is given, uses "."`,
	Args:  cobra.MaximumNArgs(1),
	Run:   doTests,
}

var launcherCmd = &cobra.Command{
	Use:   "launcher <suite name>",
	Short: "Generate a single CppUnit launcher",
	Args:  cobra.ExactArgs(1),
	Run:   doLauncher,
}

func init() {
	// buildglue tests subcommand
	rootCmd.AddCommand(testsCmd)

	// buildglue launcher subcommand
	rootCmd.AddCommand(launcherCmd)
	launcherCmd.Flags().StringVarP(&flagOutput, "output", "o", ".", "Directory to write "+launcher.Filename+" into")
}
