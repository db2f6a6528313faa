package main

import "github.com/cashbookhq/cashbook/cmd"

func main() {
	cmd.Execute()
}
