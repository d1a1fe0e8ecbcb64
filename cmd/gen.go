package cmd

import (
	"io"

	"github.com/jaffee/commandeer/cobrafy"
	"github.com/spf13/cobra"

	"tripkit/kafka"
)

func NewGenCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	com, err := cobrafy.Command(kafka.NewGenMain())
	if err != nil {
		panic(err)
	}
	com.Use = "gen"
	com.Short = "gen - produce fake trip records to a kafka topic"
	return com
}

func init() {
	subcommandFns["gen"] = NewGenCommand
}
