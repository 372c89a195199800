package model

import (
	"cmp"
	"slices"
	"strconv"
	"strings"
)

// Flatten returns one Record per bookmark in tree, sorted by numeric ID.
//
// Sibling groups are traversed from an explicit stack, so nesting depth is
// only bounded by memory. A node with a URL is a bookmark even if it also has
// children; its children are not visited. Folders without children yield
// nothing.
func Flatten(tree []TreeNode) []Record {
	records := []Record{}
	stack := [][]TreeNode{tree}

	for len(stack) > 0 {
		group := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, n := range group {
			switch {
			case n.URL != "":
				records = append(records, NewRecord(n))
			case len(n.Children) > 0:
				stack = append(stack, n.Children)
			}
		}
	}

	SortRecords(records)
	return records
}

// SortRecords sorts records in place by numeric ID, ascending.
// IDs that are not integers sort after all numeric IDs, in lexical order.
func SortRecords(records []Record) {
	slices.SortStableFunc(records, func(a, b Record) int {
		return CompareIDs(a.ID, b.ID)
	})
}

// CompareIDs orders two store IDs numerically.
func CompareIDs(a, b string) int {
	ai, aErr := strconv.ParseInt(a, 10, 64)
	bi, bErr := strconv.ParseInt(b, 10, 64)

	switch {
	case aErr == nil && bErr == nil:
		return cmp.Compare(ai, bi)
	case aErr == nil:
		return -1
	case bErr == nil:
		return 1
	default:
		return strings.Compare(a, b)
	}
}
