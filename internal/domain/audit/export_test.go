package audit

import (
	"bytes"
	"context"
	"encoding/csv"
	"strings"
	"testing"
	"time"
)

type fakeNames map[string]string

func (f fakeNames) DisplayName(_ context.Context, id string) string {
	if n, ok := f[id]; ok {
		return n
	}
	return id
}

func TestWriteText(t *testing.T) {
	ts := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	entries := []*Entry{
		{Actor: "0xP", ActionType: ActionAccessGranted, Subject: "0xD", Timestamp: ts},
		{Actor: "0xAdmin", ActionType: ActionPatientRegistered, Subject: "0xUnknown", Timestamp: ts},
	}
	names := fakeNames{"0xP": "Alice", "0xD": "Dr. Bob", "0xAdmin": "Root"}

	var buf bytes.Buffer
	if err := WriteText(context.Background(), &buf, entries, names); err != nil {
		t.Fatal(err)
	}

	want := "Actor: Alice -> Action: ACCESS_GRANTED - Subject: Dr. Bob - Date: 2024-05-06 07:08:09\n" +
		"Actor: Root -> Action: PATIENT_REGISTERED - Date: 2024-05-06 07:08:09\n"
	if buf.String() != want {
		t.Errorf("unexpected export:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestWriteText_NilResolver(t *testing.T) {
	var buf bytes.Buffer
	entries := []*Entry{{Actor: "a", ActionType: "X", Subject: "s", Timestamp: time.Unix(0, 0)}}
	if err := WriteText(context.Background(), &buf, entries, nil); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "Subject:") {
		t.Errorf("raw ids should not render a subject: %q", buf.String())
	}
}

func TestWriteCSV(t *testing.T) {
	entries := []*Entry{
		{Seq: 1, ID: "e1", Actor: "0xD", ActionType: ActionRecordAdded, Subject: "0xP", Details: "Added new medical record: X, Y", Timestamp: time.Unix(0, 0)},
	}
	var buf bytes.Buffer
	if err := WriteCSV(context.Background(), &buf, entries, fakeNames{"0xD": "Dr. Bob"}); err != nil {
		t.Fatal(err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected header + 1 row, got %d", len(rows))
	}
	row := rows[1]
	if row[0] != "1" || row[4] != "Dr. Bob" || row[7] != "0xP" {
		t.Errorf("unexpected row %v", row)
	}
	if row[8] != "Added new medical record: X, Y" {
		t.Errorf("details not preserved: %q", row[8])
	}
}
