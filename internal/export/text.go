// Package export renders sort results and comparison ledgers as text, JSON
// and Mermaid.
package export

import (
	"bufio"
	"io"
	"strings"
)

var lineEscaper = strings.NewReplacer(`\`, `\\`, "\n", `\n`, "\r", `\r`)

// WriteText writes one item per line. Backslashes and line breaks inside an
// item are escaped so that the line count always equals the item count.
func WriteText(w io.Writer, items []string) error {
	bw := bufio.NewWriter(w)
	for _, it := range items {
		if _, err := lineEscaper.WriteString(bw, it); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}
