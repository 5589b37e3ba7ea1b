package main

import "mspro-labs/scoop-scout/cmd"

func main() {
	cmd.Execute()
}
