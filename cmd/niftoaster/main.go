package main

import (
	"os"

	"github.com/vorteil/vnif/cmd/niftoaster/spells"
)

var (
	release = "0.0.0"
	commit  = ""
	date    = "Thu, 01 Jan 1970 00:00:00 +0000"
)

func main() {

	spells.SetVersion(release, commit, date)
	spells.InitializeCommands()

	err := spells.RootCommand.Execute()

	if err != nil {
		os.Exit(1)
	}
}
