package storage

import (
	"context"
	"os"
	"strings"
	"testing"
)

func TestLocalUploaderWritesObject(t *testing.T) {
	u, err := NewLocalUploader(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalUploader: %v", err)
	}

	path, err := u.Upload(context.Background(), "projects/demo/transcripts/call.txt", "text/plain", strings.NewReader("[12:00] user: привет\n"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read stored object: %v", err)
	}
	if string(data) != "[12:00] user: привет\n" {
		t.Errorf("stored content = %q", data)
	}
}

func TestLocalUploaderRejectsTraversal(t *testing.T) {
	u, err := NewLocalUploader(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalUploader: %v", err)
	}

	if _, err := u.Upload(context.Background(), "../outside.txt", "text/plain", strings.NewReader("x")); err == nil {
		t.Fatal("expected an error for a key escaping the base dir")
	}
}
