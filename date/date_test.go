package date

import (
	"testing"
	"time"
)

// TestTime assert that the time() is cannonical and gives comparable times.
func TestTime(t *testing.T) {
	d1 := New(2025, 7, 31)
	d2 := New(2025, 7, 31)

	if d1.time() != d2.time() {
		// Note that usually time.Time are not comparable (there is a pointer for the timezone) this
		// tests also checks that the property remain true
		t.Errorf("invalid time() function same day gives two different time")
	}
}

func TestNew_Normalizes(t *testing.T) {
	if got, want := New(2025, time.February, 29), New(2025, time.March, 1); got != want {
		t.Errorf("New(2025-02-29) = %v, want %v", got, want)
	}
}

func TestParse(t *testing.T) {
	testCases := []struct {
		in      string
		want    Date
		wantErr bool
	}{
		{"2025-07-01", New(2025, time.July, 1), false},
		{"2025-7-1", New(2025, time.July, 1), false},
		{" 2014-02-06 ", New(2014, time.February, 6), false},
		{"2014/02/06", Date{}, true},
		{"", Date{}, true},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := Parse(tc.in)
			if (err != nil) != tc.wantErr {
				t.Fatalf("Parse(%q) error = %v, wantErr %v", tc.in, err, tc.wantErr)
			}
			if got != tc.want {
				t.Errorf("Parse(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestParseTime(t *testing.T) {
	testCases := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{"2014-01-01", time.Date(2014, 1, 1, 0, 0, 0, 0, time.UTC), false},
		{"2014-01-01 10:30", time.Date(2014, 1, 1, 10, 30, 0, 0, time.UTC), false},
		{"2014-01-01 10:30:15", time.Date(2014, 1, 1, 10, 30, 15, 0, time.UTC), false},
		{"2014-01-01T10:30:15", time.Date(2014, 1, 1, 10, 30, 15, 0, time.UTC), false},
		{"2014-01-01T10:30:15Z", time.Date(2014, 1, 1, 10, 30, 15, 0, time.UTC), false},
		{"01/01/2014", time.Time{}, true},
		{"yesterday", time.Time{}, true},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseTime(tc.in, time.UTC)
			if (err != nil) != tc.wantErr {
				t.Fatalf("ParseTime(%q) error = %v, wantErr %v", tc.in, err, tc.wantErr)
			}
			if !got.Equal(tc.want) {
				t.Errorf("ParseTime(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestDate_JSON(t *testing.T) {
	d := New(2014, time.February, 10)
	data, err := d.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON() error = %v", err)
	}
	if string(data) != `"2014-02-10"` {
		t.Errorf("MarshalJSON() = %s, want %q", data, `"2014-02-10"`)
	}
	var back Date
	if err := back.UnmarshalJSON(data); err != nil {
		t.Fatalf("UnmarshalJSON() error = %v", err)
	}
	if back != d {
		t.Errorf("UnmarshalJSON() = %v, want %v", back, d)
	}
}

func TestRange(t *testing.T) {
	r := NewRange(MustParse("2014-02-10"), MustParse("2014-02-01"))
	if r.From != MustParse("2014-02-01") {
		t.Errorf("NewRange() did not swap bounds: %v", r)
	}
	if got, want := r.String(), "2014-02-01_2014-02-10"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	for _, tc := range []struct {
		d    string
		want bool
	}{
		{"2014-01-31", false},
		{"2014-02-01", true},
		{"2014-02-10", true},
		{"2014-02-11", false},
	} {
		if got := r.Contains(MustParse(tc.d)); got != tc.want {
			t.Errorf("Contains(%s) = %v, want %v", tc.d, got, tc.want)
		}
	}

	open := NewRange(Date{}, MustParse("2014-02-01"))
	if open.IsOpen() || !(Range{}).IsOpen() {
		t.Errorf("IsOpen() is wrong")
	}
	if !open.Contains(New(1900, time.January, 1)) {
		t.Errorf("an open lower bound must contain any early date")
	}
	if got, want := open.String(), "…_2014-02-01"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
