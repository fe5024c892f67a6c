package main

import "github.com/example/onereserve/internal/interfaces/cli"

func main() {
	cli.Execute()
}
