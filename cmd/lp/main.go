package main

import (
	"os"

	"github.com/mlevasseur/lessonplan-cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
