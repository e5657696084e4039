package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pageflow/pkg/boundary"
	"github.com/matzehuels/pageflow/pkg/doc"
	perrors "github.com/matzehuels/pageflow/pkg/errors"
)

var granularities = []boundary.Granularity{boundary.Body, boundary.Page, boundary.Header, boundary.Footer}

// boundaryCommand creates the boundary command.
func (c *CLI) boundaryCommand() *cobra.Command {
	var pos int

	cmd := &cobra.Command{
		Use:   "boundary FILE --pos N",
		Short: "Show region boundaries at a document position",
		Long: `Boundary resolves a position in a paginated JSON document and prints, for
the body, page, header and footer, whether the position is at the start or
end of that region (loosely, anywhere in the edge block, and exactly), plus
the navigation targets around it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := perrors.ValidateDocumentPath(args[0]); err != nil {
				return err
			}
			d, err := doc.ImportJSON(args[0])
			if err != nil {
				return err
			}
			if _, err := d.Resolve(pos); err != nil {
				return perrors.Wrap(perrors.ErrCodeInvalidPosition, err, "position %d", pos)
			}
			c.printBoundaries(d, pos)
			return nil
		},
	}

	cmd.Flags().IntVar(&pos, "pos", 0, "absolute document position")
	_ = cmd.MarkFlagRequired("pos")
	return cmd
}

func (c *CLI) printBoundaries(d *doc.Node, pos int) {
	c.ui.keyValue("position", fmt.Sprintf("%d of %d", pos, d.ContentSize()))
	c.ui.keyValue("page", pageLabel(boundary.PageIndexAt(d, pos)))

	for _, g := range granularities {
		c.ui.keyValue(g.String()+" start", fmt.Sprintf("%-5t exact %t",
			boundary.IsAtStart(d, pos, g, false), boundary.IsAtStart(d, pos, g, true)))
		c.ui.keyValue(g.String()+" end", fmt.Sprintf("%-5t exact %t",
			boundary.IsAtEnd(d, pos, g, false), boundary.IsAtEnd(d, pos, g, true)))
	}

	c.ui.keyValue("next body", target(boundary.NextBodyStart(d, pos)))
	c.ui.keyValue("previous body", target(boundary.PrevBodyEnd(d, pos)))
}

func pageLabel(i int) string {
	if i < 0 {
		return "none"
	}
	return strconv.Itoa(i + 1)
}

func target(pos int, ok bool) string {
	if !ok {
		return "none"
	}
	return strconv.Itoa(pos)
}
