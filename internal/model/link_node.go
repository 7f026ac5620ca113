package model

import (
	"encoding/hex"
	"fmt"
	"sort"

	"golang.org/x/crypto/sha3"
)

// LinkNode is one fetched page in a crawl tree.
// Children are kept in the document order in which their links were first
// discovered on this page.
//
// A tree produced by one crawl never contains the same URL twice; the crawler
// guarantees this, not this type.
type LinkNode struct {
	// URL is the absolute address of the fetched page.
	URL string `json:"url"`

	// Children are the in-scope pages first discovered from this page.
	Children []*LinkNode `json:"children"`
}

// NewLinkNode returns a leaf node for the given URL.
func NewLinkNode(url string) *LinkNode {
	return &LinkNode{
		URL:      url,
		Children: make([]*LinkNode, 0),
	}
}

// IsLeaf reports whether the node has no children.
func (n *LinkNode) IsLeaf() bool {
	return len(n.Children) == 0
}

// Walk visits every node in pre-order, passing the node's depth (root = 0)
// and its parent (nil for the root). Returning false from fn stops the walk
// below that node.
func (n *LinkNode) Walk(fn func(node, parent *LinkNode, depth int) bool) {
	if n == nil {
		return
	}
	n.walk(nil, 0, fn)
}

func (n *LinkNode) walk(parent *LinkNode, depth int, fn func(node, parent *LinkNode, depth int) bool) {
	if !fn(n, parent, depth) {
		return
	}
	for _, child := range n.Children {
		child.walk(n, depth+1, fn)
	}
}

// Count returns the number of nodes in the tree rooted at n.
func (n *LinkNode) Count() int {
	count := 0
	n.Walk(func(_, _ *LinkNode, _ int) bool {
		count++
		return true
	})
	return count
}

// Depth returns the depth of the deepest node (a single node has depth 0).
// It returns -1 for a nil tree.
func (n *LinkNode) Depth() int {
	deepest := -1
	n.Walk(func(_, _ *LinkNode, depth int) bool {
		if depth > deepest {
			deepest = depth
		}
		return true
	})
	return deepest
}

// CountByDepth returns the number of nodes at each depth, indexed by depth.
func (n *LinkNode) CountByDepth() []int {
	counts := make([]int, 0)
	n.Walk(func(_, _ *LinkNode, depth int) bool {
		for len(counts) <= depth {
			counts = append(counts, 0)
		}
		counts[depth]++
		return true
	})
	return counts
}

// URLs returns every URL in the tree in pre-order.
func (n *LinkNode) URLs() []string {
	urls := make([]string, 0)
	n.Walk(func(node, _ *LinkNode, _ int) bool {
		urls = append(urls, node.URL)
		return true
	})
	return urls
}

// Find returns the first node with the given URL, or nil.
func (n *LinkNode) Find(url string) *LinkNode {
	var found *LinkNode
	n.Walk(func(node, _ *LinkNode, _ int) bool {
		if found != nil {
			return false
		}
		if node.URL == url {
			found = node
			return false
		}
		return true
	})
	return found
}

// Equal reports whether two trees have the same structure and URLs.
func (n *LinkNode) Equal(other *LinkNode) bool {
	if n == nil || other == nil {
		return n == other
	}
	if n.URL != other.URL || len(n.Children) != len(other.Children) {
		return false
	}
	for i := range n.Children {
		if !n.Children[i].Equal(other.Children[i]) {
			return false
		}
	}
	return true
}

// Fingerprint returns a SHA3-256 digest of the tree's shape and content.
// Equal trees have equal fingerprints.
func (n *LinkNode) Fingerprint() string {
	h := sha3.New256()
	n.Walk(func(node, _ *LinkNode, depth int) bool {
		// tab and newline never occur in a fetched URL
		fmt.Fprintf(h, "%d\t%s\n", depth, node.URL)
		return true
	})
	return hex.EncodeToString(h.Sum(nil))
}

// Edge is one parent-to-child link of a crawl tree.
type Edge struct {
	// Depth is the depth of the child node.
	Depth int `csv:"depth" json:"depth"`

	// Parent is the URL of the linking page (empty for the root).
	Parent string `csv:"parent" json:"parent"`

	// URL is the URL of the linked page.
	URL string `csv:"url" json:"url"`
}

// Flatten returns one Edge per node, in pre-order.
func (n *LinkNode) Flatten() []Edge {
	edges := make([]Edge, 0)
	n.Walk(func(node, parent *LinkNode, depth int) bool {
		e := Edge{Depth: depth, URL: node.URL}
		if parent != nil {
			e.Parent = parent.URL
		}
		edges = append(edges, e)
		return true
	})
	return edges
}

// DiffURLs compares the URL sets of two trees.
// Added holds URLs present only in newer, removed those present only in older.
// Both slices are sorted.
func DiffURLs(older, newer *LinkNode) (added, removed []string) {
	oldSet := make(map[string]struct{})
	for _, u := range older.URLs() {
		oldSet[u] = struct{}{}
	}
	newSet := make(map[string]struct{})
	for _, u := range newer.URLs() {
		newSet[u] = struct{}{}
	}

	added = make([]string, 0)
	for u := range newSet {
		if _, ok := oldSet[u]; !ok {
			added = append(added, u)
		}
	}
	removed = make([]string, 0)
	for u := range oldSet {
		if _, ok := newSet[u]; !ok {
			removed = append(removed, u)
		}
	}
	sort.Strings(added)
	sort.Strings(removed)
	return added, removed
}
