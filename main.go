package main

import (
	"os"

	"github.com/GoFMG-Admin/GoFMG-Admin/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
