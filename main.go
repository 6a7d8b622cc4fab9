package main

import "role-sync/cmd"

func main() {
	cmd.Execute()
}
