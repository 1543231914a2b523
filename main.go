package main

import "github.com/Tiliavir/trivial-punch-clock/cmd"

func main() {
	cmd.Execute()
}
