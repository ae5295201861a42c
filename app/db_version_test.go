package app

import (
	"os"
	"testing"
)

func TestDatabaseVersion(t *testing.T) {
	dbPath := t.TempDir()
	exists, err := checkDatabaseVersion(dbPath)
	if err != nil || exists {
		t.Fatalf("expected no version file in a new directory, got %t, %+v", exists, err)
	}

	if err := createDatabaseVersionFile(dbPath); err != nil {
		t.Fatalf("createDatabaseVersionFile: %+v", err)
	}
	exists, err = checkDatabaseVersion(dbPath)
	if err != nil || !exists {
		t.Fatalf("expected a valid version file, got %t, %+v", exists, err)
	}

	if err := os.WriteFile(versionFilePath(dbPath), []byte("7"), 0600); err != nil {
		t.Fatalf("WriteFile: %s", err)
	}
	if _, err := checkDatabaseVersion(dbPath); err == nil {
		t.Fatalf("expected an error for an unknown database version")
	}
}
