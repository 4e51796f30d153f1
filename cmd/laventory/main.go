// Command laventory is the terminal client of the laventory gRPC service.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
)

func main() {
	name := path.Base(os.Args[0])
	completion().Complete(name)

	commander := subcommands.NewCommander(flag.CommandLine, name)
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")

	for _, c := range commands {
		commander.Register(c, "inventory")
	}
	commander.Register(&tokenCmd{}, "development")

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}

var commands = []subcommands.Command{
	&listCmd{},
	&addCmd{},
	&removeCmd{},
	&detectCmd{},
	&recipeCmd{},
}
