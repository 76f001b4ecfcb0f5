package main

import "github.com/iosifache/booksearch/internal/modes"

func main() {
	modes.StartCLI()
}
