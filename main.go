package main

import (
	"os"

	"github.com/Privex/go-steemengine/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
