package importer

import (
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nikbrunner/bmpop/internal/model"
	"golang.org/x/net/html"
)

// ParseHTMLBookmarks parses Netscape bookmark HTML into a tree of nodes
// without IDs. Stores assign IDs when the nodes are imported.
func ParseHTMLBookmarks(r io.Reader) ([]model.TreeNode, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	root := &model.TreeNode{}
	stack := []*model.TreeNode{root} // open folders, innermost last
	var pending *model.TreeNode      // folder waiting for its DL

	top := func() *model.TreeNode { return stack[len(stack)-1] }

	// flush adds a folder that never got a DL as an empty folder.
	flush := func() {
		if pending != nil {
			parent := top()
			pending.Index = len(parent.Children)
			parent.Children = append(parent.Children, *pending)
			pending = nil
		}
	}

	var parse func(*html.Node)
	parse = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch strings.ToLower(n.Data) {
			case "h3":
				// Folder definition - get name from text content
				name := getTextContent(n)
				if name == "" {
					return
				}
				flush()
				folder := model.NewFolder(model.NewFolderParams{Title: name})
				if ts, ok := unixAttr(n, "add_date"); ok {
					folder.CreatedAt = ts
				}
				pending = &folder
				return // Don't recurse into H3

			case "a":
				href := getAttr(n, "href")
				if href == "" {
					// Skip bookmarks without URL
					return
				}
				flush()

				title := getTextContent(n)
				if title == "" {
					title = href // fallback to URL as title
				}

				params := model.NewBookmarkParams{Title: title, URL: href}
				if ts, ok := unixAttr(n, "add_date"); ok {
					params.CreatedAt = ts
				}
				bookmark := model.NewBookmark(params)
				if ts, ok := unixAttr(n, "last_visit"); ok {
					bookmark.LastUsedAt = &ts
				}

				parent := top()
				bookmark.Index = len(parent.Children)
				parent.Children = append(parent.Children, bookmark)
				return // Don't recurse into A

			case "dl":
				// Definition list - marks folder contents
				opened := pending
				pending = nil
				if opened != nil {
					stack = append(stack, opened)
				}

				for c := n.FirstChild; c != nil; c = c.NextSibling {
					parse(c)
				}
				flush()

				if opened != nil {
					stack = stack[:len(stack)-1]
					parent := top()
					opened.Index = len(parent.Children)
					parent.Children = append(parent.Children, *opened)
				}
				return // Don't recurse further, we handled children
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			parse(c)
		}
	}

	parse(doc)
	flush()
	return root.Children, nil
}

// unixAttr reads a Unix seconds timestamp attribute.
func unixAttr(n *html.Node, key string) (time.Time, bool) {
	v := getAttr(n, key)
	if v == "" {
		return time.Time{}, false
	}
	ts, err := strconv.ParseInt(v, 10, 64)
	if err != nil || ts <= 0 {
		return time.Time{}, false
	}
	return time.Unix(ts, 0), true
}

// getTextContent returns the text content of a node.
func getTextContent(n *html.Node) string {
	var text strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			text.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(text.String())
}

// getAttr returns the value of an attribute, case-insensitive.
func getAttr(n *html.Node, key string) string {
	key = strings.ToLower(key)
	for _, attr := range n.Attr {
		if strings.ToLower(attr.Key) == key {
			return attr.Val
		}
	}
	return ""
}
