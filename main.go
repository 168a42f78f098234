package main

import "github.com/iksnae/signbridge/cmd"

func main() {
	cmd.Execute()
}
