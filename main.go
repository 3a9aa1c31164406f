package main

import (
	"os"

	"github.com/marketplace-tools/permd/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
