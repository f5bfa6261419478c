package main

import (
	"os"

	"github.com/dukerupert/allowance/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
