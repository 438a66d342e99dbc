package service

import (
	"errors"
	"strings"
	"testing"

	"github.com/refexsite/internal/db"
)

func TestSavePageCreatesRecord(t *testing.T) {
	svc := NewPageService(setupContentTestDB(t))

	page, err := svc.Save("Privacy-Policy", PageInput{Content: "# Privacy\nWe respect your data."})
	if err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	if page.Slug != "privacy-policy" {
		t.Fatalf("expected slug 'privacy-policy', got %s", page.Slug)
	}
	if page.Title != "Privacy Policy" {
		t.Fatalf("expected title derived from slug, got %s", page.Title)
	}
	if page.Summary != "Privacy We respect your data." {
		t.Fatalf("unexpected summary %q", page.Summary)
	}
}

func TestSavePageUpdatesExisting(t *testing.T) {
	svc := NewPageService(setupContentTestDB(t))
	if _, err := svc.Save("terms", PageInput{Title: "Terms of Use", Content: "initial"}); err != nil {
		t.Fatalf("failed to seed page: %v", err)
	}

	updated, err := svc.Save("terms", PageInput{Content: "updated"})
	if err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if updated.Content != "updated" || updated.Title != "Terms of Use" {
		t.Fatalf("expected content updated and title kept, got %+v", updated)
	}

	var count int64
	svc.db.Model(&db.Page{}).Count(&count)
	if count != 1 {
		t.Fatalf("expected a single page row, got %d", count)
	}
}

func TestSavePageValidation(t *testing.T) {
	svc := NewPageService(setupContentTestDB(t))

	if _, err := svc.Save("terms", PageInput{Content: "\n\t "}); !errors.Is(err, ErrPageContentMissing) {
		t.Fatalf("expected ErrPageContentMissing, got %v", err)
	}
	if _, err := svc.Save("../etc", PageInput{Content: "x"}); !errors.Is(err, ErrPageSlugInvalid) {
		t.Fatalf("expected ErrPageSlugInvalid, got %v", err)
	}
	if _, err := svc.GetBySlug("missing"); !errors.Is(err, ErrPageNotFound) {
		t.Fatalf("expected ErrPageNotFound, got %v", err)
	}
}

func TestRenderMarkdownSanitizes(t *testing.T) {
	html, err := RenderMarkdown("**Refex** wins award\n\n<script>alert(1)</script>")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(html, "<strong>Refex</strong>") {
		t.Fatalf("expected bold text, got %s", html)
	}
	if strings.Contains(html, "<script>") {
		t.Fatalf("expected script to be stripped, got %s", html)
	}
}
