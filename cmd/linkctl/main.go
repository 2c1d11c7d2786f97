package main

import (
	"os"

	linkctlcmd "github.com/telekom/linkctl/pkg/linkctl/cmd"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	root := linkctlcmd.NewRootCommand(linkctlcmd.DefaultConfig())
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		return 1
	}
	return 0
}
