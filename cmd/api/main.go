package main

import (
	"log"
)

func main() {
	Execute()
}

func fatal(msg string, err error) {
	log.Fatalf("%s: %v", msg, err)
}
