package services

import (
	"testing"
)

func TestParseBookmarkJSONFlattensTree(t *testing.T) {
	raw := []byte(`{
		"bookmarks": [
			{"title": "Chapter 1", "page": 1, "kids": [
				{"title": "Section 1.1", "page": 2},
				{"title": "Section 1.2", "page": 5, "kids": [
					{"title": "Subsection 1.2.1", "page": 6}
				]}
			]},
			{"title": "Chapter 2", "page": 10}
		]
	}`)

	nodes, err := ParseBookmarkJSON(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	want := []struct {
		level int
		title string
		page  int
	}{
		{1, "Chapter 1", 1},
		{2, "Section 1.1", 2},
		{2, "Section 1.2", 5},
		{3, "Subsection 1.2.1", 6},
		{1, "Chapter 2", 10},
	}
	if len(nodes) != len(want) {
		t.Fatalf("expected %d nodes, got %d", len(want), len(nodes))
	}
	for i, w := range want {
		if nodes[i].Level != w.level || nodes[i].Title != w.title || nodes[i].Page != w.page {
			t.Errorf("node %d = %+v, want %+v", i, nodes[i], w)
		}
	}
}

func TestParseBookmarkJSONEmpty(t *testing.T) {
	nodes, err := ParseBookmarkJSON([]byte(`{"bookmarks": []}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(nodes) != 0 {
		t.Errorf("expected no nodes, got %d", len(nodes))
	}
}

func TestParseBookmarkJSONInvalid(t *testing.T) {
	if _, err := ParseBookmarkJSON([]byte(`not json`)); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestPDFImagesFilenamePattern(t *testing.T) {
	cases := []struct {
		name string
		page int
		ok   bool
	}{
		{"/tmp/out/img-003-000.png", 3, true},
		{"/tmp/out/img-012-004.png", 12, true},
		{"/tmp/out/img.png", 0, false},
		{"/tmp/out/img-003-000.jpg", 0, false},
	}
	for _, tc := range cases {
		sub := pdfimagesName.FindStringSubmatch(tc.name)
		if tc.ok && sub == nil {
			t.Errorf("%s should match", tc.name)
			continue
		}
		if !tc.ok {
			if sub != nil {
				t.Errorf("%s should not match", tc.name)
			}
			continue
		}
		if sub[1] != "003" && sub[1] != "012" {
			t.Errorf("%s: unexpected page capture %q", tc.name, sub[1])
		}
	}
}
