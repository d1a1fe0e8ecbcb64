package main

import (
	"fmt"
	"os"

	"tripkit/cmd"
)

func main() {
	if err := cmd.NewRootCommand(os.Stdin, os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
