package pagination

import (
	"encoding/base64"
	"testing"
	"time"
)

func TestCursorRoundTrip(t *testing.T) {
	at := time.Date(2025, 3, 14, 9, 30, 15, 123456000, time.FixedZone("PDT", -7*3600))
	encoded := EncodeCursor(Cursor{CreatedAt: at, ID: "ord_5d1c"})

	got, err := ParseCursor(encoded)
	if err != nil {
		t.Fatalf("parse cursor: %v", err)
	}
	if !got.CreatedAt.Equal(at) || got.ID != "ord_5d1c" {
		t.Fatalf("unexpected cursor %+v", got)
	}
	if got.CreatedAt.Location() != time.UTC {
		t.Fatalf("expected cursor time in UTC, got %s", got.CreatedAt.Location())
	}
}

func TestParseCursorEmptyIsFirstPage(t *testing.T) {
	got, err := ParseCursor("  ")
	if err != nil || got != nil {
		t.Fatalf("expected nil cursor, got %+v err=%v", got, err)
	}
}

func TestParseCursorRejectsGarbage(t *testing.T) {
	encode := func(s string) string { return base64.RawURLEncoding.EncodeToString([]byte(s)) }
	for _, value := range []string{
		"%%%",
		encode("not-json"),
		encode(`{"id":"ord_1"}`),
		encode(`{"at":"2025-03-14T09:30:00Z"}`),
		encode(`{"at":"yesterday","id":"ord_1"}`),
	} {
		if _, err := ParseCursor(value); err == nil {
			t.Fatalf("expected error for %q", value)
		}
	}
}

func TestNormalizeLimit(t *testing.T) {
	cases := map[int]int{0: DefaultLimit, -3: DefaultLimit, 10: 10, MaxLimit + 1: MaxLimit}
	for in, want := range cases {
		if got := NormalizeLimit(in); got != want {
			t.Fatalf("NormalizeLimit(%d) = %d, want %d", in, got, want)
		}
	}
	if LimitWithBuffer(10) != 11 {
		t.Fatalf("expected buffer of one")
	}
}

func TestTrim(t *testing.T) {
	base := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	type row struct {
		id string
		at time.Time
	}
	rows := []row{{"c", base.Add(2 * time.Minute)}, {"b", base.Add(time.Minute)}, {"a", base}}
	position := func(r row) Cursor { return Cursor{CreatedAt: r.at, ID: r.id} }

	page, next := Trim(rows, 2, position)
	if len(page) != 2 || page[1].id != "b" {
		t.Fatalf("unexpected page %+v", page)
	}
	cursor, err := ParseCursor(next)
	if err != nil || cursor.ID != "b" || !cursor.CreatedAt.Equal(base.Add(time.Minute)) {
		t.Fatalf("unexpected next cursor %+v err=%v", cursor, err)
	}

	page, next = Trim(rows[:2], 2, position)
	if len(page) != 2 || next != "" {
		t.Fatalf("expected last page without cursor, got %d rows next=%q", len(page), next)
	}
}
