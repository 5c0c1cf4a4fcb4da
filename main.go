package main

import "github.com/qobs-build/buildglue/cmd"

func main() {
	cmd.Execute()
}
