package model

import (
	"encoding/json"
	"testing"
	"time"
)

func TestDateDaysSince(t *testing.T) {
	a := Date{Year: 2026, Month: time.March, Day: 7}
	b := Date{Year: 2026, Month: time.March, Day: 9} // spans the US DST change
	if got := b.DaysSince(a); got != 2 {
		t.Errorf("DaysSince = %d, want 2", got)
	}
	if got := a.DaysSince(b); got != -2 {
		t.Errorf("DaysSince = %d, want -2", got)
	}
}

func TestDateAddDaysAcrossMonth(t *testing.T) {
	d := Date{Year: 2026, Month: time.January, Day: 31}
	got := d.AddDays(1)
	want := Date{Year: 2026, Month: time.February, Day: 1}
	if got != want {
		t.Errorf("AddDays = %v, want %v", got, want)
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2026-02-05")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if d.String() != "2026-02-05" {
		t.Errorf("String = %q, want %q", d.String(), "2026-02-05")
	}
	if d.Weekday() != time.Thursday {
		t.Errorf("Weekday = %v, want Thursday", d.Weekday())
	}
	if _, err := ParseDate("2026-02-30"); err == nil {
		t.Error("expected error for invalid date")
	}
}

func TestDateJSON(t *testing.T) {
	var v struct {
		D Date `json:"d"`
	}
	if err := json.Unmarshal([]byte(`{"d":"2026-02-05"}`), &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	out, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `{"d":"2026-02-05"}` {
		t.Errorf("marshal = %s", out)
	}
}

func TestParseWeekdays(t *testing.T) {
	w, err := ParseWeekdays("5, 1,3,1")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if w.String() != "1,3,5" {
		t.Errorf("String = %q, want %q", w.String(), "1,3,5")
	}
	if _, err := ParseWeekdays("7"); err == nil {
		t.Error("expected error for weekday 7")
	}
	empty, err := ParseWeekdays("")
	if err != nil || len(empty) != 0 {
		t.Errorf("ParseWeekdays(\"\") = %v, %v", empty, err)
	}
}
