package main

import "docsense/cmd"

func main() {
	cmd.Execute()
}
