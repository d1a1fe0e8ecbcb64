package cmd

import (
	"io"

	"github.com/jaffee/commandeer/cobrafy"
	"github.com/spf13/cobra"

	"tripkit/usecase/taxi"
)

func NewTaxiCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	com, err := cobrafy.Command(taxi.NewMain())
	if err != nil {
		panic(err)
	}
	com.Use = "taxi"
	com.Short = "taxi - load monthly trip dumps into DuckDB"
	return com
}

func init() {
	subcommandFns["taxi"] = NewTaxiCommand
}
