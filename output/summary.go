package output

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// summaryLine renders the CLI's one-line build summary, comma-grouping
// large counts the way a human reads them.
func summaryLine(sources, unresolved, unreadable int) string {
	line := fmt.Sprintf("%s source%s", humanize.Comma(int64(sources)), plural(sources))
	if unresolved > 0 {
		line += fmt.Sprintf(", %s unresolved", humanize.Comma(int64(unresolved)))
	}
	if unreadable > 0 {
		line += fmt.Sprintf(", %s unreadable", humanize.Comma(int64(unreadable)))
	}
	return line
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
