package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/example/polymark/internal/annotation"
)

type classesCmd struct{ *root }

func (c *classesCmd) Run() error {
	w := tabwriter.NewWriter(c.root.out(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tCLASS\tCOLOR")
	for i, class := range annotation.Classes {
		s := annotation.ColorsFor(class).Stroke
		fmt.Fprintf(w, "%d\t%s\t#%02x%02x%02x\n", i+1, class, s.R, s.G, s.B)
	}
	return w.Flush()
}
