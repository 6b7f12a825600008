package extract

import (
	"math"
	"testing"
)

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestExtractExperienceYears_patterns(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		low      float64
		high     float64 // -1 when open-ended
		wantPlus bool
	}{
		{"minimum months", "Minimum 6 months of retail experience", 0.5, -1, true},
		{"at least months", "at least 18 months in a call center", 1.5, -1, true},
		{"months range", "6 to 12 months experience", 0.5, 1, false},
		{"plus years", "5+ years of backend development", 5, -1, true},
		{"minimum of years", "Minimum of 3 years managing teams", 3, -1, true},
		{"or more years", "4 or more years in finance", 4, -1, true},
		{"at least years", "At least 2 years with Kubernetes", 2, -1, true},
		{"over years", "over 10 years in the industry", 10, -1, true},
		{"range plus", "3-5+ years of experience", 3, 5, true},
		{"between", "between 2 and 4 years of sales experience", 2, 4, false},
		{"to range", "3 to 5 years of experience", 3, 5, false},
		{"dash range", "3 - 5 years of experience", 3, 5, false},
		{"minimum years", "minimum 7 years", 7, -1, true},
		{"plain years", "7 years of experience with Java", 7, 7, false},
		{"singular year", "1 year of experience", 1, 1, false},
		{"decimal", "2.5 years in QA", 2.5, 2.5, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractExperienceYears(tt.text)
			if got == nil {
				t.Fatalf("ExtractExperienceYears(%q) = nil", tt.text)
			}
			if !approx(got.Low, tt.low) {
				t.Errorf("low = %v, want %v", got.Low, tt.low)
			}
			if tt.high < 0 {
				if got.High != nil {
					t.Errorf("high = %v, want nil", *got.High)
				}
			} else if got.High == nil || !approx(*got.High, tt.high) {
				t.Errorf("high = %v, want %v", got.High, tt.high)
			}
			if got.IsPlus != tt.wantPlus {
				t.Errorf("is_plus = %v, want %v", got.IsPlus, tt.wantPlus)
			}
		})
	}
}

func TestExtractExperienceYears_overlapping(t *testing.T) {
	tests := []struct {
		name string
		text string
		low  float64
		plus bool
	}{
		// "6 months" also matches the month range family; the minimum rule wins.
		{"months before years", "minimum 6 months, ideally 2 years", 0.5, true},
		// "5+ years" also contains "5 years".
		{"plus before plain", "5+ years; 3 years in a lead role", 5, true},
		// "at least 3 years" also contains "3 years".
		{"at least before plain", "at least 3 years, 1 year with Go", 3, true},
		{"between before plain", "between 1 and 3 years", 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractExperienceYears(tt.text)
			if got == nil {
				t.Fatalf("nil for %q", tt.text)
			}
			if !approx(got.Low, tt.low) || got.IsPlus != tt.plus {
				t.Errorf("got %+v, want low=%v plus=%v", got, tt.low, tt.plus)
			}
		})
	}
}

func TestExtractExperienceYears_spelledNumbers(t *testing.T) {
	spelled := ExtractExperienceYears("five years of experience")
	digits := ExtractExperienceYears("5 years of experience")
	if spelled == nil || digits == nil {
		t.Fatal("expected both to parse")
	}
	if spelled.Low != digits.Low || *spelled.High != *digits.High || spelled.IsPlus != digits.IsPlus {
		t.Errorf("spelled %+v != digits %+v", spelled, digits)
	}
	r := ExtractExperienceYears("Two to Four years")
	if r == nil || r.Low != 2 || r.High == nil || *r.High != 4 {
		t.Errorf("Two to Four years = %+v", r)
	}
}

func TestExtractExperienceYears_wordBoundaries(t *testing.T) {
	// "someone" and "often" must not turn into digits.
	if got := ExtractExperienceYears("someone who often mentors others"); got != nil {
		t.Errorf("expected nil, got %+v", got)
	}
	if got := NormalizeNumbers("Someone with ONE skill"); got != "someone with 1 skill" {
		t.Errorf("NormalizeNumbers = %q", got)
	}
}

func TestExtractExperienceYears_noMatch(t *testing.T) {
	for _, text := range []string{"", "Bachelor's degree in Computer Science", "years of experience preferred", "5 projects"} {
		if got := ExtractExperienceYears(text); got != nil {
			t.Errorf("ExtractExperienceYears(%q) = %+v, want nil", text, got)
		}
	}
}

func TestExtractExperienceYears_idempotentOnNormalized(t *testing.T) {
	for _, text := range []string{"Three+ years of Go", "between two and six years", "Minimum 9 months"} {
		a := ExtractExperienceYears(text)
		b := ExtractExperienceYears(NormalizeNumbers(text))
		c := ExtractExperienceYears(NormalizeNumbers(NormalizeNumbers(text)))
		if a == nil || b == nil || c == nil {
			t.Fatalf("expected a match for %q", text)
		}
		if a.Low != b.Low || b.Low != c.Low || a.IsPlus != c.IsPlus {
			t.Errorf("not idempotent for %q: %+v %+v %+v", text, a, b, c)
		}
	}
}

func TestYearsRange_Closed(t *testing.T) {
	if ExtractExperienceYears("3 to 5 years").Closed() != true {
		t.Error("3 to 5 years should be closed")
	}
	if ExtractExperienceYears("3-5+ years").Closed() {
		t.Error("3-5+ years should not be closed")
	}
	if ExtractExperienceYears("5+ years").Closed() {
		t.Error("5+ years should not be closed")
	}
	var nilRange *YearsRange
	if nilRange.Closed() {
		t.Error("nil range should not be closed")
	}
}
