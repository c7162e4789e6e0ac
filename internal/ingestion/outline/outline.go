// Package outline turns a document's table of contents, or heading lines
// scraped from page text, into an ordered forest of sections with page
// ranges. It is pure: no IO, no database.
package outline

import (
	"regexp"
	"strings"
)

// Node is one outline entry before page ranges are resolved. Page is
// 1-based.
type Node struct {
	Level int
	Title string
	Page  int
}

// Entry is a node with its resolved page range and parent linkage.
// ParentIndex is the index of the parent Entry in the returned slice, or -1
// for roots. SortOrder is 1-based document order.
type Entry struct {
	Node
	PageStart   int
	PageEnd     int
	ParentIndex int
	SortOrder   int
}

var headingPattern = regexp.MustCompile(`^(chapter|CHAPTER|Chapter)\s+\d+|^\d+\.\s+|^[A-Z][A-Z\s]{8,}$`)

// maxHeadingLines bounds how far down a page the heading scan looks.
const maxHeadingLines = 10

// FromTOC normalizes raw outline entries, dropping ones without a title or a
// usable page number.
func FromTOC(entries []Node) []Node {
	out := make([]Node, 0, len(entries))
	for _, e := range entries {
		title := strings.TrimSpace(e.Title)
		if title == "" || e.Page < 1 || e.Level < 1 {
			continue
		}
		out = append(out, Node{Level: e.Level, Title: title, Page: e.Page})
	}
	return out
}

// InferFromHeadings scans the first lines of each page for heading-looking
// text and emits one level-1 node per matching page. pages holds the plain
// text of each page in order. If no page matches, a single "Full Document"
// node covering the whole book is returned, so every book always has at
// least one section.
func InferFromHeadings(pages []string) []Node {
	var nodes []Node
	for i, text := range pages {
		seen := 0
		for _, line := range strings.Split(text, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			seen++
			if seen > maxHeadingLines {
				break
			}
			if headingPattern.MatchString(line) {
				nodes = append(nodes, Node{Level: 1, Title: line, Page: i + 1})
				break
			}
		}
	}
	if len(nodes) == 0 {
		nodes = append(nodes, Node{Level: 1, Title: "Full Document", Page: 1})
	}
	return nodes
}

// ComputeRanges assigns each node a page range: it runs from the node's own
// page up to the page before the next node at the same or shallower level,
// or to the end of the book. The end never precedes the start.
func ComputeRanges(nodes []Node, pageCount int) []Entry {
	entries := make([]Entry, 0, len(nodes))
	for i, node := range nodes {
		start := node.Page
		end := pageCount
		for _, next := range nodes[i+1:] {
			if next.Level <= node.Level {
				end = next.Page - 1
				if end < start {
					end = start
				}
				break
			}
		}
		entries = append(entries, Entry{Node: node, PageStart: start, PageEnd: end, ParentIndex: -1})
	}
	return entries
}

// BuildForest fills in parent linkage and sort order. A node's parent is the
// nearest preceding entry with a strictly shallower level, found by keeping
// a stack of open ancestors.
func BuildForest(entries []Entry) []Entry {
	type frame struct {
		index int
		level int
	}
	var stack []frame
	for i := range entries {
		for len(stack) > 0 && stack[len(stack)-1].level >= entries[i].Level {
			stack = stack[:len(stack)-1]
		}
		if len(stack) > 0 {
			entries[i].ParentIndex = stack[len(stack)-1].index
		} else {
			entries[i].ParentIndex = -1
		}
		entries[i].SortOrder = i + 1
		stack = append(stack, frame{index: i, level: entries[i].Level})
	}
	return entries
}

// Build runs the full pipeline: prefer the embedded table of contents, fall
// back to heading inference, then resolve ranges and parent links.
func Build(toc []Node, pages []string, pageCount int) []Entry {
	nodes := FromTOC(toc)
	if len(nodes) == 0 {
		nodes = InferFromHeadings(pages)
	}
	return BuildForest(ComputeRanges(nodes, pageCount))
}
