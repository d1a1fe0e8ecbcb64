package cmd

import (
	"io"

	"github.com/jaffee/commandeer/cobrafy"
	"github.com/spf13/cobra"

	"tripkit/usecase/books"
)

func NewBooksCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	com, err := cobrafy.Command(books.NewMain())
	if err != nil {
		panic(err)
	}
	com.Use = "books"
	com.Short = "books - load Open Library book records into DuckDB"
	return com
}

func init() {
	subcommandFns["books"] = NewBooksCommand
}
