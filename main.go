package main

import "github.com/arneg82/migAz/cmd"

func main() {
	cmd.Execute()
}
