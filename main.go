package main

import "github.com/floorgraph/floorgraph/cmd"

func main() {
	cmd.Execute()
}
