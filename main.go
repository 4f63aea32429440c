package main

import (
	"os"

	"github.com/restfetch/restfetch/cli"
)

func main() {
	os.Exit(cli.Execute(os.Args[1:]))
}
