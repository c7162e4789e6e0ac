package services

import (
	"context"
	"testing"

	"gorm.io/gorm"

	"github.com/pagetone/pagetone-backend/internal/ingestion/outline"
	"github.com/pagetone/pagetone-backend/internal/types"
)

func newIngestionFixture(t *testing.T, db *gorm.DB, docs DocumentService, media MediaToolsService) IngestionService {
	t.Helper()
	log := testLogger(t)
	bookRepo, sectionRepo, assetRepo, _, _, _, progressRepo, _, _ := newTestRepos(db, log)
	return NewIngestionService(log, db, bookRepo, sectionRepo, assetRepo, progressRepo, docs, media, t.TempDir())
}

func TestIngestBuildsTreeFromOutline(t *testing.T) {
	db := newTestDB(t)
	docs := &fakeDocumentService{pages: map[int]string{
		1: "intro", 2: "body", 3: "body", 4: "body", 5: "body", 6: "body",
	}}
	media := &fakeMediaTools{
		outline: []outline.Node{
			{Level: 1, Title: "Chapter 1", Page: 1},
			{Level: 2, Title: "Section 1.1", Page: 2},
			{Level: 1, Title: "Chapter 2", Page: 4},
		},
	}
	svc := newIngestionFixture(t, db, docs, media)
	book := seedBook(t, db, "book.pdf")

	if err := svc.IngestBook(context.Background(), book.ID); err != nil {
		t.Fatalf("ingest: %v", err)
	}

	var sections []*types.Section
	if err := db.Where("book_id = ?", book.ID).Order("sort_order ASC").Find(&sections).Error; err != nil {
		t.Fatalf("load sections: %v", err)
	}
	if len(sections) != 3 {
		t.Fatalf("expected 3 sections, got %d", len(sections))
	}
	if sections[0].PageStart != 1 || sections[0].PageEnd != 3 {
		t.Errorf("chapter 1 range [%d,%d], want [1,3]", sections[0].PageStart, sections[0].PageEnd)
	}
	if sections[1].ParentID == nil || *sections[1].ParentID != sections[0].ID {
		t.Errorf("section 1.1 should be a child of chapter 1")
	}
	if sections[2].PageEnd != 6 {
		t.Errorf("chapter 2 should run to the last page, got %d", sections[2].PageEnd)
	}

	var progress types.ReadingProgress
	if err := db.Where("book_id = ?", book.ID).First(&progress).Error; err != nil {
		t.Fatalf("progress not seeded: %v", err)
	}
	if progress.LastPage != 1 {
		t.Errorf("seeded progress page %d, want 1", progress.LastPage)
	}
}

func TestIngestFallsBackToHeadings(t *testing.T) {
	db := newTestDB(t)
	docs := &fakeDocumentService{pages: map[int]string{
		1: "Chapter 1\nintro text",
		2: "plain body",
	}}
	svc := newIngestionFixture(t, db, docs, &fakeMediaTools{})
	book := seedBook(t, db, "book.pdf")

	if err := svc.IngestBook(context.Background(), book.ID); err != nil {
		t.Fatalf("ingest: %v", err)
	}

	var sections []*types.Section
	if err := db.Where("book_id = ?", book.ID).Find(&sections).Error; err != nil {
		t.Fatalf("load sections: %v", err)
	}
	if len(sections) != 1 || sections[0].Title != "Chapter 1" {
		t.Fatalf("expected single inferred section, got %+v", sections)
	}
}

func TestIngestEmptyDocumentGetsRootSection(t *testing.T) {
	db := newTestDB(t)
	docs := &fakeDocumentService{pages: map[int]string{1: "", 2: ""}}
	svc := newIngestionFixture(t, db, docs, &fakeMediaTools{})
	book := seedBook(t, db, "book.pdf")

	if err := svc.IngestBook(context.Background(), book.ID); err != nil {
		t.Fatalf("ingest: %v", err)
	}
	var sections []*types.Section
	if err := db.Where("book_id = ?", book.ID).Find(&sections).Error; err != nil {
		t.Fatalf("load sections: %v", err)
	}
	if len(sections) != 1 || sections[0].Title != "Full Document" {
		t.Fatalf("expected fallback root section, got %+v", sections)
	}
	if sections[0].PageStart != 1 || sections[0].PageEnd != 2 {
		t.Errorf("fallback range [%d,%d], want [1,2]", sections[0].PageStart, sections[0].PageEnd)
	}
}

func TestIngestAssignsAssetsToDeepestSection(t *testing.T) {
	db := newTestDB(t)
	docs := &fakeDocumentService{pages: map[int]string{1: "a", 2: "b", 3: "c", 4: "d"}}
	media := &fakeMediaTools{
		outline: []outline.Node{
			{Level: 1, Title: "Chapter 1", Page: 1},
			{Level: 2, Title: "Section 1.1", Page: 2},
		},
		images: []ExtractedImage{
			{Page: 1, Path: "img-001-000.png"},
			{Page: 3, Path: "img-003-000.png"},
		},
	}
	svc := newIngestionFixture(t, db, docs, media)
	book := seedBook(t, db, "book.pdf")

	if err := svc.IngestBook(context.Background(), book.ID); err != nil {
		t.Fatalf("ingest: %v", err)
	}

	var sections []*types.Section
	if err := db.Where("book_id = ?", book.ID).Order("sort_order ASC").Find(&sections).Error; err != nil {
		t.Fatalf("load sections: %v", err)
	}
	var assets []*types.SectionAsset
	if err := db.Where("book_id = ?", book.ID).Order("page_num ASC").Find(&assets).Error; err != nil {
		t.Fatalf("load assets: %v", err)
	}
	if len(assets) != 2 {
		t.Fatalf("expected 2 assets, got %d", len(assets))
	}
	// Page 1 is only inside chapter 1; page 3 is inside both, and the
	// deeper section wins.
	if assets[0].SectionID == nil || *assets[0].SectionID != sections[0].ID {
		t.Errorf("page 1 asset should attach to chapter 1")
	}
	if assets[1].SectionID == nil || *assets[1].SectionID != sections[1].ID {
		t.Errorf("page 3 asset should attach to the deeper section")
	}
	if assets[0].Caption != "Page 1 - Figure" {
		t.Errorf("unexpected caption %q", assets[0].Caption)
	}
}
