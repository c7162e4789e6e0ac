package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/pagetone/pagetone-backend/internal/types"
)

func TestGenerateAudioCachesByContentHash(t *testing.T) {
	db := newTestDB(t)
	log := testLogger(t)
	_, sectionRepo, _, summaryRepo, versionRepo, audioRepo, _, _, _ := newTestRepos(db, log)

	book := seedBook(t, db, "book.pdf")
	section := seedSection(t, db, book.ID, nil, 1, 1, 1, 3, "Chapter 1")
	summary := &types.Summary{ID: uuid.New(), SectionID: section.ID, VersionSeq: 1}
	if err := db.Create(summary).Error; err != nil {
		t.Fatalf("seed summary: %v", err)
	}
	version := &types.SummaryVersion{
		ID:            uuid.New(),
		SummaryID:     summary.ID,
		VersionNumber: 1,
		Content:       "hello world",
	}
	if err := db.Create(version).Error; err != nil {
		t.Fatalf("seed version: %v", err)
	}

	synth := &fakeSynthesizer{}
	svc := NewTTSService(log, versionRepo, summaryRepo, sectionRepo, audioRepo, synth, t.TempDir())

	ctx := context.Background()
	first, err := svc.GenerateAudio(ctx, version.ID)
	if err != nil {
		t.Fatalf("first synthesis: %v", err)
	}
	if first.Format != "wav" {
		t.Errorf("expected wav, got %s", first.Format)
	}
	if first.ContentHash == "" || len(first.ContentHash) != 64 {
		t.Errorf("expected sha-256 hex hash, got %q", first.ContentHash)
	}

	second, err := svc.GenerateAudio(ctx, version.ID)
	if err != nil {
		t.Fatalf("second synthesis: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("expected cached asset %s, got %s", first.ID, second.ID)
	}
	if synth.calls != 1 {
		t.Errorf("expected 1 synthesizer call, got %d", synth.calls)
	}

	var count int64
	if err := db.Model(&types.AudioAsset{}).Where("version_id = ?", version.ID).Count(&count).Error; err != nil {
		t.Fatalf("count assets: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 audio row, got %d", count)
	}
}

func TestGenerateAudioUnknownVersion(t *testing.T) {
	db := newTestDB(t)
	log := testLogger(t)
	_, sectionRepo, _, summaryRepo, versionRepo, audioRepo, _, _, _ := newTestRepos(db, log)

	svc := NewTTSService(log, versionRepo, summaryRepo, sectionRepo, audioRepo, &fakeSynthesizer{}, t.TempDir())
	if _, err := svc.GenerateAudio(context.Background(), uuid.New()); err == nil {
		t.Fatal("expected error for unknown version")
	}
}

func TestGetLatestAudioNilWhenNone(t *testing.T) {
	db := newTestDB(t)
	log := testLogger(t)
	_, sectionRepo, _, summaryRepo, versionRepo, audioRepo, _, _, _ := newTestRepos(db, log)

	book := seedBook(t, db, "book.pdf")
	section := seedSection(t, db, book.ID, nil, 1, 1, 1, 1, "Chapter 1")
	summary := &types.Summary{ID: uuid.New(), SectionID: section.ID, VersionSeq: 1}
	if err := db.Create(summary).Error; err != nil {
		t.Fatalf("seed summary: %v", err)
	}
	version := &types.SummaryVersion{ID: uuid.New(), SummaryID: summary.ID, VersionNumber: 1, Content: "text"}
	if err := db.Create(version).Error; err != nil {
		t.Fatalf("seed version: %v", err)
	}

	svc := NewTTSService(log, versionRepo, summaryRepo, sectionRepo, audioRepo, &fakeSynthesizer{}, t.TempDir())
	audio, err := svc.GetLatestAudio(context.Background(), version.ID)
	if err != nil {
		t.Fatalf("get latest: %v", err)
	}
	if audio != nil {
		t.Errorf("expected nil audio, got %+v", audio)
	}
}
