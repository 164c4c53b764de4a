package main

import "github.com/saturnines/storefront-dispatch/internal/cli"

func main() {
	cli.Execute()
}
