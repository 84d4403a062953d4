package main

import (
	"log"

	"github.com/anoop-jadhav-ui/RangeIQ/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
