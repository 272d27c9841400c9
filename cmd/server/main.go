package main

import (
	"os"

	"hrms/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
