package util

import (
    "strconv"
    "testing"
    "time"
)

func TestParseTimeRFC3339(t *testing.T) {
    s := "2024-10-10T10:10:10Z"
    got, ok := ParseTime(s)
    if !ok {
        t.Fatalf("expected ok")
    }
    if got.UTC().Format(time.RFC3339) != s {
        t.Fatalf("unexpected time %v", got)
    }
}

func TestParseTimeUnix(t *testing.T) {
    ts := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).Unix()
    got, ok := ParseTime(strconv.FormatInt(ts, 10))
    if !ok {
        t.Fatalf("expected ok")
    }
    if got.Unix() != ts {
        t.Fatalf("unexpected unix %v", got.Unix())
    }
}

func TestParseTimeDefault(t *testing.T) {
    def := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC)
    got := ParseTimeDefault("", def)
    if !got.Equal(def) {
        t.Fatalf("expected default")
    }
}

func TestTruncateUTCDay(t *testing.T) {
    loc := time.FixedZone("UTC+7", 7*3600)
    in := time.Date(2024, 10, 10, 2, 30, 0, 0, loc) // 2024-10-09 19:30 UTC
    got := TruncateUTCDay(in)
    want := time.Date(2024, 10, 9, 0, 0, 0, 0, time.UTC)
    if !got.Equal(want) {
        t.Fatalf("got %v, want %v", got, want)
    }
}

func TestDaysBetween(t *testing.T) {
    from := time.Date(2024, 4, 20, 23, 0, 0, 0, time.UTC)
    to := time.Date(2024, 4, 21, 1, 0, 0, 0, time.UTC)
    if d := DaysBetween(from, to); d != 1 {
        t.Fatalf("partial days must count as whole UTC days, got %d", d)
    }
    if d := DaysBetween(to, from); d != -1 {
        t.Fatalf("expected -1 when to precedes from, got %d", d)
    }
    if d := DaysBetween(from, from); d != 0 {
        t.Fatalf("expected 0 for same instant, got %d", d)
    }
}