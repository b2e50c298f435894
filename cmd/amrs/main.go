package main

import "github.com/af-corp/amrs/internal/cli"

func main() {
	cli.Execute()
}
