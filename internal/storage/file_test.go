package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	logx "blastbot/pkg/logx"
)

func TestFileStoreAppend(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "history.jsonl")

	st, err := Open(Config{Driver: "file", Path: path}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	entries := []DeliveryEntry{
		{At: time.Now(), Destination: "-1001", Title: "One", MessageID: 7, Outcome: "sent", Permalink: "https://t.me/c/1/7"},
		{At: time.Now(), Destination: "@two", Outcome: "skipped", Error: "CHANNEL_PRIVATE"},
	}
	for _, e := range entries {
		if err := st.AppendDelivery(context.Background(), e); err != nil {
			t.Fatalf("AppendDelivery: %v", err)
		}
	}
	if err := st.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open history: %v", err)
	}
	defer f.Close()

	var got []DeliveryEntry
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var e DeliveryEntry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			t.Fatalf("bad history line: %v", err)
		}
		got = append(got, e)
	}
	if len(got) != 2 {
		t.Fatalf("history lines = %d, want 2", len(got))
	}
	if got[0].Destination != "-1001" || got[0].Outcome != "sent" {
		t.Fatalf("first entry = %+v", got[0])
	}
	if got[1].Error != "CHANNEL_PRIVATE" {
		t.Fatalf("second entry = %+v", got[1])
	}
}

func TestOpenDisabled(t *testing.T) {
	t.Parallel()
	for _, driver := range []string{"", "none", "NONE"} {
		st, err := Open(Config{Driver: driver}, logx.Nop())
		if err != nil || st != nil {
			t.Fatalf("Open(%q) = (%v, %v), want (nil, nil)", driver, st, err)
		}
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	t.Parallel()
	if _, err := Open(Config{Driver: "etcd"}, logx.Nop()); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}
