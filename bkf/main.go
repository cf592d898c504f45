package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/etnz/bankfeed/cmd"
	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

func main() {
	completion().Complete("bkf")

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	cmd.Register(commander)

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}

// completion describes the CLI for shell tab-completion. When invoked by
// the shell's completion hook it answers and exits before the commander
// even runs.
func completion() *complete.Command {
	granularities := predict.Set{"day", "week", "month", "year"}
	return &complete.Command{
		Flags: map[string]complete.Predictor{
			"store": predict.Dirs("*"),
		},
		Sub: map[string]*complete.Command{
			"summary":    {Flags: map[string]complete.Predictor{"g": granularities, "c": predict.Nothing}},
			"categories": {Flags: map[string]complete.Predictor{"c": predict.Nothing}},
			"categorize": {Flags: map[string]complete.Predictor{
				"taxonomy": predict.Files("*.json"),
				"mode":     predict.Set{"missing", "overwrite"},
				"batch":    predict.Nothing,
				"model":    predict.Nothing,
			}},
			"show":     {Flags: map[string]complete.Predictor{"filter": predict.Nothing, "sort": predict.Nothing, "page": predict.Nothing, "size": predict.Nothing}},
			"edit":     {},
			"drop-row": {},
		},
	}
}
