package main

import "github.com/aleph-zero/flutterddl/cmd"

func main() {
	cmd.Execute()
}
