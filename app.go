package main

import "github.com/masmgr/changesync-go/cmd"

func main() {
	cmd.Run()
}
