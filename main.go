package main

import "github.com/user/rainhub/cmd"

func main() {
	cmd.Execute()
}
