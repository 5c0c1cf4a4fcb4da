// buildglue init [name], buildglue new [path]
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/qobs-build/buildglue/internal/builder"
	"github.com/qobs-build/buildglue/internal/msg"
	"github.com/spf13/cobra"
)

func writefile(content string, elem ...string) {
	path := filepath.Join(elem...)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err = os.WriteFile(path, []byte(content), 0o644); err != nil {
			msg.Fatal("create file %s: %v", path, err)
		}
		fmt.Printf("%s file: %s\n", color.HiGreenString("Created"), filepath.ToSlash(path))
	}
}

func mkdir(elem ...string) {
	path := filepath.Join(elem...)
	if err := os.MkdirAll(path, 0o755); err != nil {
		msg.Fatal("mkdir %s: %v", path, err)
	}
}

func getProgramName() string {
	if len(os.Args) == 0 {
		return "buildglue"
	}
	basename := filepath.Base(os.Args[0])
	return strings.TrimSuffix(basename, filepath.Ext(basename))
}

// initIn lays out a package with one message file and one test suite
func initIn(dir, name string) {
	suite := name + "TestSuite"

	writefile(`[package]
name = "`+name+`"

[tests]
suites = ["`+suite+`"]

[messages]
sources = ["src/**/*.mc"]
headers = ["include/**/*.h"]

[binary]
lib = true

[binary.'target_os == "windows"']
args = ["-u"]
`, dir, builder.ConfigFilename)

	mkdir(dir, "src")
	mkdir(dir, "include")
	mkdir(dir, "testsuite", "src")

	writefile(`MessageIdTypedef=DWORD

SeverityNames=(Success=0x0
               Informational=0x1
               Warning=0x2
               Error=0x3)

MessageId=0x1
SymbolicName=`+strings.ToUpper(name)+`_MSG
Language=English
%1
.
`, dir, "src", strings.ToLower(name)+".mc")

	writefile(`#ifndef `+suite+`_INCLUDED
#define `+suite+`_INCLUDED

#include "CppUnit/TestSuite.h"

class `+suite+`
{
public:
	static CppUnit::Test* suite();
};

#endif
`, dir, "testsuite", "src", suite+".h")

	writefile(`build/
`, dir, ".gitignore")

	programName := getProgramName()
	fmt.Printf("You can now do %s to compile messages, or %s to generate test launchers.\n",
		color.HiCyanString(programName+" "+dir), color.HiCyanString(programName+" tests "+dir))
}

var initCmd = &cobra.Command{
	Use:   "init [name]",
	Short: "Create a new package in the current directory",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		initIn(".", args[0])
	},
}

var newCmd = &cobra.Command{
	Use:   "new [path]",
	Short: "Create a new package in a new directory",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		mkdir(args[0])
		initIn(args[0], filepath.Base(args[0]))
	},
}

func init() {
	// buildglue init subcommand
	rootCmd.AddCommand(initCmd)

	// buildglue new subcommand
	rootCmd.AddCommand(newCmd)
}
