package main

import "github.com/KaramelBytes/datastat-cli/cmd"

func main() {
	cmd.Execute()
}
