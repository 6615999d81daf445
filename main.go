package main

import "github.com/ridoystarlord/rowmap/cmd"

func main() {
	cmd.Execute()
}
