package main

import (
	"os"

	chattercmder "github.com/papercomputeco/chatter/cmd/chatter"
)

func main() {
	cmd := chattercmder.NewChatterCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
