package main

import (
	"os"

	"github.com/yangzichao/hoah-dictation-sub000/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
