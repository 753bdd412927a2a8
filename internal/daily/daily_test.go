package daily

import (
	"testing"
	"time"
)

func TestDateKey(t *testing.T) {
	// 23:30 in UTC-2 is already the next day in UTC.
	loc := time.FixedZone("UTC-2", -2*3600)
	at := time.Date(2024, 3, 1, 23, 30, 0, 0, loc)
	if got := DateKey(at); got != "2024-03-02" {
		t.Fatalf("DateKey = %q, want 2024-03-02", got)
	}
}

func TestBoardSeedDeterministic(t *testing.T) {
	day := time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC)
	later := time.Date(2024, 3, 2, 22, 0, 0, 0, time.UTC)
	next := day.AddDate(0, 0, 1)

	if BoardSeed(day, "salt") != BoardSeed(later, "salt") {
		t.Fatalf("same date produced different seeds")
	}
	if BoardSeed(day, "salt") == BoardSeed(next, "salt") {
		t.Fatalf("consecutive dates produced the same seed")
	}
	if BoardSeed(day, "salt") == BoardSeed(day, "other") {
		t.Fatalf("different salts produced the same seed")
	}
}
