package main

import (
	"os"

	"github.com/noobular/noobular/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
