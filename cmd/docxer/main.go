package main

import (
	"fmt"
	"os"

	"github.com/docxer/docxer/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "docxer:", err)
		os.Exit(1)
	}
}
