// Package main implements the scry-scheduler command: the HTTP host for the
// spaced-repetition scheduling engine plus its maintenance subcommands.
package main

import (
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
