package main

import (
	"github.com/custodia-labs/paperpost-cli/internal/adapters/driving/cli"
)

func main() {
	cli.Execute()
}
