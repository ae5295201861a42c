package main

import (
	"os"

	"github.com/xvmnet/xvmd/app"
)

func main() {
	if err := app.StartApp(); err != nil {
		os.Exit(1)
	}
}
