package main

import "github.com/inkpost/blogapi/cmd"

func main() {
	cmd.Execute()
}
