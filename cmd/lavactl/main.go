package main

import "github.com/genricoloni/lavaqueue/internal/cli"

func main() {
	cli.Execute()
}
