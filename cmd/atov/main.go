package main

import "github.com/ErraticFox/atov/cmd"

func main() {
	cmd.Execute()
}
