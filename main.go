package main

import "dailies/cmd"

func main() {
	cmd.Execute()
}
