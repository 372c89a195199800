package model

// CloneTree returns a deep copy of tree.
func CloneTree(tree []TreeNode) []TreeNode {
	if tree == nil {
		return nil
	}
	out := make([]TreeNode, len(tree))
	for i, n := range tree {
		out[i] = n
		if n.LastUsedAt != nil {
			t := *n.LastUsedAt
			out[i].LastUsedAt = &t
		}
		out[i].Children = CloneTree(n.Children)
	}
	return out
}

// FindNode returns a pointer to the node with the given ID, or nil.
// The pointer aliases tree.
func FindNode(tree []TreeNode, id string) *TreeNode {
	group, idx := locate(&tree, id)
	if group == nil {
		return nil
	}
	return &(*group)[idx]
}

// RemoveNode removes the node with the given ID from tree and renumbers its
// former siblings. It returns the removed node and whether it was found.
func RemoveNode(tree *[]TreeNode, id string) (TreeNode, bool) {
	group, idx := locate(tree, id)
	if group == nil {
		return TreeNode{}, false
	}

	removed := (*group)[idx]
	*group = append((*group)[:idx], (*group)[idx+1:]...)
	for i := idx; i < len(*group); i++ {
		(*group)[i].Index = i
	}
	return removed, true
}

// Walk calls fn for every node in tree, parents before children.
// Returning false from fn stops the walk.
func Walk(tree []TreeNode, fn func(n TreeNode) bool) {
	stack := [][]TreeNode{tree}
	for len(stack) > 0 {
		group := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		// Push in reverse so siblings are visited in order.
		for i := len(group) - 1; i >= 0; i-- {
			if len(group[i].Children) > 0 {
				stack = append(stack, group[i].Children)
			}
		}
		for _, n := range group {
			if !fn(n) {
				return
			}
		}
	}
}

// CountBookmarks returns the number of nodes in tree that carry a URL,
// not counting children of bookmark nodes.
func CountBookmarks(tree []TreeNode) int {
	count := 0
	stack := [][]TreeNode{tree}
	for len(stack) > 0 {
		group := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, n := range group {
			if n.URL != "" {
				count++
			} else if len(n.Children) > 0 {
				stack = append(stack, n.Children)
			}
		}
	}
	return count
}

// locate finds the sibling group containing id and the node's position in it.
func locate(tree *[]TreeNode, id string) (*[]TreeNode, int) {
	stack := []*[]TreeNode{tree}
	for len(stack) > 0 {
		group := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for i := range *group {
			n := &(*group)[i]
			if n.ID == id {
				return group, i
			}
			if len(n.Children) > 0 {
				stack = append(stack, &n.Children)
			}
		}
	}
	return nil, -1
}
