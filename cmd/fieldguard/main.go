package main

import (
	"os"

	"github.com/grzegorzmaniak/fieldguard/cmd/fieldguard/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
