package outline

import (
	"strings"
	"testing"
)

func TestFromTOCDropsInvalidEntries(t *testing.T) {
	in := []Node{
		{Level: 1, Title: "  Intro  ", Page: 1},
		{Level: 1, Title: "   ", Page: 4},
		{Level: 2, Title: "Details", Page: 0},
		{Level: 0, Title: "Bad level", Page: 2},
		{Level: 2, Title: "Methods", Page: 5},
	}
	got := FromTOC(in)
	if len(got) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(got))
	}
	if got[0].Title != "Intro" {
		t.Errorf("expected trimmed title Intro, got %q", got[0].Title)
	}
	if got[1].Title != "Methods" || got[1].Page != 5 {
		t.Errorf("unexpected second node %+v", got[1])
	}
}

func TestInferFromHeadingsPatterns(t *testing.T) {
	pages := []string{
		"Chapter 1\nsome intro text",
		"just body text\nnothing heading-like here",
		"2. Numbered Section\nmore text",
		"THE HISTORY OF COMPUTING\nbody",
	}
	got := InferFromHeadings(pages)
	if len(got) != 3 {
		t.Fatalf("expected 3 headings, got %d: %+v", len(got), got)
	}
	wantTitles := []string{"Chapter 1", "2. Numbered Section", "THE HISTORY OF COMPUTING"}
	wantPages := []int{1, 3, 4}
	for i, n := range got {
		if n.Title != wantTitles[i] || n.Page != wantPages[i] || n.Level != 1 {
			t.Errorf("node %d = %+v, want title %q page %d level 1", i, n, wantTitles[i], wantPages[i])
		}
	}
}

func TestInferFromHeadingsScansFirstTenLinesOnly(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 10; i++ {
		b.WriteString("plain line\n")
	}
	b.WriteString("Chapter 5\n")
	got := InferFromHeadings([]string{b.String()})
	if len(got) != 1 || got[0].Title != "Full Document" {
		t.Fatalf("heading past line 10 should be ignored, got %+v", got)
	}
}

func TestInferFromHeadingsFallback(t *testing.T) {
	got := InferFromHeadings([]string{"nothing", "to see"})
	if len(got) != 1 {
		t.Fatalf("expected single fallback node, got %d", len(got))
	}
	if got[0].Title != "Full Document" || got[0].Page != 1 || got[0].Level != 1 {
		t.Errorf("unexpected fallback node %+v", got[0])
	}
}

func TestComputeRanges(t *testing.T) {
	nodes := []Node{
		{Level: 1, Title: "Chapter 1", Page: 1},
		{Level: 2, Title: "Section 1.1", Page: 2},
		{Level: 2, Title: "Section 1.2", Page: 5},
		{Level: 1, Title: "Chapter 2", Page: 8},
	}
	got := ComputeRanges(nodes, 12)
	want := [][2]int{{1, 7}, {2, 4}, {5, 7}, {8, 12}}
	for i, e := range got {
		if e.PageStart != want[i][0] || e.PageEnd != want[i][1] {
			t.Errorf("entry %d (%s) range [%d,%d], want [%d,%d]",
				i, e.Title, e.PageStart, e.PageEnd, want[i][0], want[i][1])
		}
	}
}

func TestComputeRangesEndNeverPrecedesStart(t *testing.T) {
	// Two headings on the same page: the first range would end at page 2,
	// which is before its own start, so it is floored at the start.
	nodes := []Node{
		{Level: 1, Title: "A", Page: 3},
		{Level: 1, Title: "B", Page: 3},
	}
	got := ComputeRanges(nodes, 10)
	if got[0].PageStart != 3 || got[0].PageEnd != 3 {
		t.Errorf("first range [%d,%d], want [3,3]", got[0].PageStart, got[0].PageEnd)
	}
	if got[1].PageEnd != 10 {
		t.Errorf("second range ends at %d, want 10", got[1].PageEnd)
	}
}

func TestBuildForestParentLinkage(t *testing.T) {
	nodes := []Node{
		{Level: 1, Title: "Chapter 1", Page: 1},
		{Level: 2, Title: "Section 1.1", Page: 2},
		{Level: 3, Title: "Sub 1.1.1", Page: 3},
		{Level: 2, Title: "Section 1.2", Page: 5},
		{Level: 1, Title: "Chapter 2", Page: 8},
	}
	got := BuildForest(ComputeRanges(nodes, 12))
	wantParents := []int{-1, 0, 1, 0, -1}
	for i, e := range got {
		if e.ParentIndex != wantParents[i] {
			t.Errorf("%s parent %d, want %d", e.Title, e.ParentIndex, wantParents[i])
		}
		if e.SortOrder != i+1 {
			t.Errorf("%s sort order %d, want %d", e.Title, e.SortOrder, i+1)
		}
	}
}

func TestBuildForestSiblingAtSameLevelPopsStack(t *testing.T) {
	nodes := []Node{
		{Level: 2, Title: "Orphan depth", Page: 1},
		{Level: 2, Title: "Sibling", Page: 3},
	}
	got := BuildForest(ComputeRanges(nodes, 6))
	for i, e := range got {
		if e.ParentIndex != -1 {
			t.Errorf("entry %d parent %d, want -1 (root)", i, e.ParentIndex)
		}
	}
}

func TestBuildPrefersTOC(t *testing.T) {
	toc := []Node{{Level: 1, Title: "From TOC", Page: 1}}
	pages := []string{"Chapter 1\nbody"}
	got := Build(toc, pages, 5)
	if len(got) != 1 || got[0].Title != "From TOC" {
		t.Fatalf("expected TOC entry to win, got %+v", got)
	}
}

func TestBuildFallsBackToHeadings(t *testing.T) {
	got := Build(nil, []string{"Chapter 1\nbody", "plain"}, 2)
	if len(got) != 1 || got[0].Title != "Chapter 1" {
		t.Fatalf("expected inferred heading, got %+v", got)
	}
	if got[0].PageStart != 1 || got[0].PageEnd != 2 {
		t.Errorf("range [%d,%d], want [1,2]", got[0].PageStart, got[0].PageEnd)
	}
}
