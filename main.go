package main

import "github.com/realiefan/note-exte/cmd"

func main() {
	cmd.NewApplication().Run()
}
