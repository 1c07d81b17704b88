package main

import "github.com/logicossoftware/go-mobi/cmd/mobitool/cmd"

func main() {
	cmd.Execute()
}
