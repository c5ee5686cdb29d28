package app

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/vk/blockbind/internal/workspace"
)

// printReport writes rep in the given format.
func printReport(w io.Writer, rep workspace.Report, format string) error {
	if format == ReportJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, s := range rep.Scopes {
		title := s.Kind
		if s.Name != "" {
			title = fmt.Sprintf("%s %s", s.Kind, s.Name)
		}
		fmt.Fprintf(tw, "scope %s\t[%s]\n", title, s.RootID)
		for _, b := range s.Bindings {
			fmt.Fprintf(tw, "  %s\t%s\t%s\t[%s]\n", b.Name, b.Type, b.Role, b.OwnerID)
		}
	}
	for _, c := range rep.Calls {
		target := "unresolved"
		if c.Signature != "" {
			target = c.Signature
		}
		fmt.Fprintf(tw, "call %s\t%s\t[%s]\n", c.Name, target, c.NodeID)
	}
	for _, d := range rep.Diagnostics {
		state := ""
		if d.Disabled {
			state = " (disabled)"
		}
		fmt.Fprintf(tw, "warning %s\t%s%s\t[%s]\n", d.Kind, d.Message, state, d.NodeID)
	}
	fmt.Fprintf(tw, "%d scope(s), %d call(s), %d warning(s)\n", len(rep.Scopes), len(rep.Calls), len(rep.Diagnostics))
	return tw.Flush()
}
