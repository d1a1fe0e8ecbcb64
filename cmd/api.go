package cmd

import (
	"io"

	"github.com/jaffee/commandeer/cobrafy"
	"github.com/spf13/cobra"

	"tripkit/usecase/api"
)

func NewAPICommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	com, err := cobrafy.Command(api.NewMain())
	if err != nil {
		panic(err)
	}
	com.Use = "api"
	com.Short = "api - load trips from the paginated REST feed into DuckDB"
	return com
}

func init() {
	subcommandFns["api"] = NewAPICommand
}
