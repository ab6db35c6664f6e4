package main

import (
	"log"

	"github.com/vanadyn/flowbid/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
