package cmd

import (
	"io"

	"github.com/jaffee/commandeer/cobrafy"
	"github.com/spf13/cobra"

	"tripkit/usecase/stream"
)

func NewStreamCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	com, err := cobrafy.Command(stream.NewMain())
	if err != nil {
		panic(err)
	}
	com.Use = "stream"
	com.Short = "stream - load trips from a kafka topic into DuckDB"
	return com
}

func init() {
	subcommandFns["stream"] = NewStreamCommand
}
