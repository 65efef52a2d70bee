package main

import (
	"os"

	"github.com/homepulse/homepulse/digestservice"
)

func main() {
	if err := digestservice.Run(); err != nil {
		os.Exit(1)
	}
}
