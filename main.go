package main

import "github.com/pricescope/pricescope/cmd"

func main() {
	cmd.Execute()
}
