package main

import (
	"os"

	"github.com/meysamhadeli/smartlint/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
