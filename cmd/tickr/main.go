package main

import (
	"os"

	"tickr/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
