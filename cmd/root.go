// buildglue [path], buildglue mc [path]
package cmd

import (
	"context"
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/qobs-build/buildglue/internal/builder"
	"github.com/qobs-build/buildglue/internal/msg"
	"github.com/spf13/cobra"
)

var (
	flagTargetOS  string
	flagDryRun    bool
	flagGenerator EnumValue = NewEnumValue("native", map[string]string{
		"native": "Run the message compiler directly (default)",
		"ninja":  "Generate a build.ninja and run ninja",
	})
)

func targetPath(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}

func doMessages(cmd *cobra.Command, args []string) {
	b, err := builder.NewBuilderInDirectory(targetPath(args), flagTargetOS)
	if err != nil {
		msg.Fatal("%v", err)
	}

	if flagDryRun {
		printPlan(b)
		return
	}
	if err := b.BuildMessages(cmd.Context(), flagGenerator.Value()); err != nil {
		msg.Fatal("%v", err)
	}
}

func printPlan(b *builder.Builder) {
	plan, bin, err := b.PlanMessages()
	if err != nil {
		msg.Fatal("%v", err)
	}
	if plan == nil {
		msg.Info("skipping message compile: %s is not a Windows target", bin.Platform)
		return
	}

	fmt.Printf("toolchain:  %s (%s)\n", bin.ToolchainID, bin.Platform)
	fmt.Printf("output dir: %s\n", plan.OutputDir)
	fmt.Printf("args:       %s\n", strings.Join(plan.Args, " "))
	for _, k := range slices.Sorted(maps.Keys(plan.Macros)) {
		fmt.Printf("macro:      %s=%s\n", k, plan.Macros[k])
	}
	for _, dir := range plan.IncludeDirs() {
		fmt.Printf("include:    %s\n", dir)
	}
	for _, src := range plan.SourceFiles {
		fmt.Printf("source:     %s\n", src)
	}
	for _, res := range bin.Inputs() {
		fmt.Printf("link input: %s\n", res)
	}
	for _, res := range bin.ExtraLinkFiles() {
		fmt.Printf("extra link: %s\n", res)
	}
}

var rootCmd = &cobra.Command{
	Use:   "buildglue [target path]",
	Short: "Build glue for CppUnit launchers and Windows message resources",
	Long: `Build glue for CppUnit launchers and Windows message resources.
Without a subcommand, compiles the package's message files like "buildglue mc".`,
	Args: cobra.MaximumNArgs(1),
	Run:  doMessages,
}

var mcCmd = &cobra.Command{
	Use:   "mc [target path]",
	Short: "Compile the package's message files",
	Long:  `Compile the package's message files. If no target path is given, uses "."`,
	Args:  cobra.MaximumNArgs(1),
	Run:   doMessages,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagTargetOS, "target-os", "", "Target OS seen by Glue.toml expressions (defaults to the host)")
	addMessageFlags(rootCmd)

	// buildglue mc subcommand
	rootCmd.AddCommand(mcCmd)
	addMessageFlags(mcCmd)
}

func addMessageFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVarP(&flagDryRun, "dry-run", "n", false, "Print the plan without compiling")
	cmd.Flags().VarP(&flagGenerator, "gen", "g", "Generator to build with, one of "+flagGenerator.HelpString())
	cmd.RegisterFlagCompletionFunc("gen", flagGenerator.CompletionFunc())
}

func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
