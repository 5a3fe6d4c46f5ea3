package main

import (
	"os"

	"github.com/sebguevara/instagram-scraping/internal/app"
)

func main() {
	os.Exit(app.Run(os.Args[1:]))
}
