package main

import (
	"fmt"
	"os"

	"defect-ledger/internal/cli"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "\n❌ PANIC: %v\n", r)
			os.Exit(2)
		}
	}()

	os.Exit(cli.Execute())
}
