package tableutil

import (
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
)

// New returns a rounded table that renders to stdout.
func New() table.Writer {
	return NewTo(os.Stdout)
}

func NewTo(out io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(out)
	return t
}
