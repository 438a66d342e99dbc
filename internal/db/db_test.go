package db

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
)

func openTestDB(t *testing.T) {
	t.Helper()
	gdb, err := Open(Options{Path: filepath.Join(t.TempDir(), "nested", "refex.db")})
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	if err := Migrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})
	DB = gdb
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open(Options{Driver: "oracle"}); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestVerticalPageFlattensColumns(t *testing.T) {
	openTestDB(t)

	page := EsgPage{VerticalPage: VerticalPage{
		Title:    "ESG",
		Sections: datatypes.JSON(`[{"title":"Environment"}]`),
	}}
	page.IsActive = true
	if err := DB.Create(&page).Error; err != nil {
		t.Fatalf("create esg page: %v", err)
	}
	if page.Base().ID == 0 {
		t.Fatal("expected id to be assigned through embedded section")
	}

	raw, err := json.Marshal(page)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"id", "order", "isActive", "title", "sections"} {
		if _, ok := decoded[key]; !ok {
			t.Fatalf("expected flattened key %q in %s", key, raw)
		}
	}
}

func TestEnsureUserAndSetPassword(t *testing.T) {
	openTestDB(t)

	if err := EnsureUser(DB, "", "secret"); err != nil {
		t.Fatalf("blank username should be ignored, got %v", err)
	}
	if err := EnsureUser(DB, "admin", "first"); err != nil {
		t.Fatalf("ensure user: %v", err)
	}
	if err := EnsureUser(DB, "admin", "second"); err != nil {
		t.Fatalf("ensure user twice: %v", err)
	}

	var user User
	if err := DB.Where("username = ?", "admin").First(&user).Error; err != nil {
		t.Fatalf("load user: %v", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("first")) != nil {
		t.Fatal("EnsureUser must not overwrite an existing password")
	}

	if _, err := SetUserPassword(DB, "admin", "second"); err != nil {
		t.Fatalf("set password: %v", err)
	}
	if err := DB.Where("username = ?", "admin").First(&user).Error; err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("second")) != nil {
		t.Fatal("expected password to be replaced")
	}

	if _, err := SetUserPassword(DB, "admin", " "); err != ErrCredentialsMissing {
		t.Fatalf("expected ErrCredentialsMissing, got %v", err)
	}
}
