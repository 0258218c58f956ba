package main

import (
	"partnerdispatch/cmd"

	"github.com/labstack/gommon/log"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatalf("dispatch: %v", err)
	}
}
