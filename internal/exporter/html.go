package exporter

import (
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nikbrunner/bmpop/internal/model"
)

// DefaultExportPath returns the default export file path.
// Format: ~/Downloads/bookmarks-export-YYYY-MM-DD.html
func DefaultExportPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	filename := fmt.Sprintf("bookmarks-export-%s.html", time.Now().Format("2006-01-02"))
	return filepath.Join(home, "Downloads", filename), nil
}

// ExportHTML exports a bookmark tree to Netscape bookmark HTML format.
func ExportHTML(tree []model.TreeNode) string {
	var b strings.Builder

	// Header
	b.WriteString("<!DOCTYPE NETSCAPE-Bookmark-file-1>\n")
	b.WriteString("<META HTTP-EQUIV=\"Content-Type\" CONTENT=\"text/html; charset=UTF-8\">\n")
	b.WriteString("<TITLE>Bookmarks</TITLE>\n")
	b.WriteString("<H1>Bookmarks</H1>\n")
	b.WriteString("<DL><p>\n")

	writeNodes(&b, tree, 1)

	// Footer
	b.WriteString("</DL><p>\n")

	return b.String()
}

// writeNodes recursively writes nodes in tree order.
func writeNodes(b *strings.Builder, nodes []model.TreeNode, indent int) {
	prefix := strings.Repeat("    ", indent)

	for _, n := range nodes {
		if n.IsBookmark() {
			fmt.Fprintf(b, "%s<DT><A HREF=\"%s\"%s>%s</A>\n",
				prefix,
				html.EscapeString(n.URL),
				timeAttrs(n),
				html.EscapeString(n.Title),
			)
			continue
		}

		fmt.Fprintf(b, "%s<DT><H3%s>%s</H3>\n", prefix, timeAttrs(n), html.EscapeString(n.Title))
		fmt.Fprintf(b, "%s<DL><p>\n", prefix)
		writeNodes(b, n.Children, indent+1)
		fmt.Fprintf(b, "%s</DL><p>\n", prefix)
	}
}

func timeAttrs(n model.TreeNode) string {
	var attrs string
	if !n.CreatedAt.IsZero() {
		attrs += fmt.Sprintf(" ADD_DATE=\"%d\"", n.CreatedAt.Unix())
	}
	if n.LastUsedAt != nil {
		attrs += fmt.Sprintf(" LAST_VISIT=\"%d\"", n.LastUsedAt.Unix())
	}
	return attrs
}
