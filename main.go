package main

import (
	"log"
	"os"
	"winnow/cmd"
)

func main() {
	app := cmd.NewWinnow()

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
