package main

import (
	"os"

	"katydid-common-idgen/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
