package medicine

import "testing"

func TestExtractDosageLine(t *testing.T) {
	meds := Extract("Paracetamol 500 mg")
	if len(meds) != 1 {
		t.Fatalf("got %d medicines, want 1", len(meds))
	}
	m := meds[0]
	if m.Name != "Paracetamol" {
		t.Errorf("name = %q, want Paracetamol", m.Name)
	}
	if m.Dosage.Amount != "500" || m.Dosage.Unit != "mg" {
		t.Errorf("dosage = %+v, want 500 mg", m.Dosage)
	}
	if m.Frequency.Times != 1 || m.Frequency.Period != "daily" {
		t.Errorf("frequency = %+v, want once daily", m.Frequency)
	}
}

func TestExtractDefaults(t *testing.T) {
	meds := Extract("Paracetamol 500 mg")
	if len(meds) != 1 {
		t.Fatalf("got %d medicines, want 1", len(meds))
	}
	m := meds[0]
	if m.Duration == nil || m.Duration.Value != 7 || m.Duration.Unit != "days" {
		t.Errorf("duration = %+v, want 7 days", m.Duration)
	}
	if m.Instructions != "Take as prescribed" {
		t.Errorf("instructions = %q", m.Instructions)
	}
	if len(m.Timing) != 1 || m.Timing[0].Time != "morning" || m.Timing[0].Instructions != "Take with water" {
		t.Errorf("timing = %+v", m.Timing)
	}
	if m.BeforeMeal || !m.AfterMeal {
		t.Errorf("meal flags = before %v after %v, want false/true", m.BeforeMeal, m.AfterMeal)
	}
}

func TestExtractFrequencyWords(t *testing.T) {
	cases := []struct {
		line  string
		times int
	}{
		{"Amoxicillin once daily", 1},
		{"Amoxicillin twice daily", 2},
		{"Amoxicillin thrice daily", 3},
	}
	for _, tc := range cases {
		meds := Extract(tc.line)
		if len(meds) != 1 {
			t.Fatalf("%q: got %d medicines, want 1", tc.line, len(meds))
		}
		if meds[0].Frequency.Times != tc.times {
			t.Errorf("%q: times = %d, want %d", tc.line, meds[0].Frequency.Times, tc.times)
		}
	}
}

func TestExtractCountedFrequency(t *testing.T) {
	meds := Extract("Ibuprofen 3 times daily")
	if len(meds) != 1 {
		t.Fatalf("got %d medicines, want 1", len(meds))
	}
	if meds[0].Name != "Ibuprofen" {
		t.Errorf("name = %q, want Ibuprofen", meds[0].Name)
	}
	if meds[0].Frequency.Times != 3 {
		t.Errorf("times = %d, want 3", meds[0].Frequency.Times)
	}
}

func TestExtractMultiWordName(t *testing.T) {
	meds := Extract("Folic Acid 5 mg")
	if len(meds) != 1 {
		t.Fatalf("got %d medicines, want 1", len(meds))
	}
	if meds[0].Name != "Folic Acid" {
		t.Errorf("name = %q, want Folic Acid", meds[0].Name)
	}
}

func TestExtractFirstOccurrenceWins(t *testing.T) {
	text := "Paracetamol 500 mg\nsome noise line\nparacetamol 650 mg"
	meds := Extract(text)
	if len(meds) != 1 {
		t.Fatalf("got %d medicines, want 1 (dedupe is case-insensitive)", len(meds))
	}
	if meds[0].Name != "Paracetamol" {
		t.Errorf("name = %q, want first-occurrence casing Paracetamol", meds[0].Name)
	}
	if meds[0].Dosage.Amount != "500" {
		t.Errorf("dosage = %s, want first occurrence 500", meds[0].Dosage.Amount)
	}
	if Confidence(meds, text) <= 0 {
		t.Error("confidence should be positive for a non-empty extraction")
	}
}

func TestExtractPreservesInsertionOrder(t *testing.T) {
	meds := Extract("Paracetamol 500 mg\nAmoxicillin twice daily\nIbuprofen 200 mg")
	if len(meds) != 3 {
		t.Fatalf("got %d medicines, want 3", len(meds))
	}
	want := []string{"Paracetamol", "Amoxicillin", "Ibuprofen"}
	for i, name := range want {
		if meds[i].Name != name {
			t.Errorf("meds[%d] = %s, want %s", i, meds[i].Name, name)
		}
	}
}

func TestExtractNoMatches(t *testing.T) {
	text := "lorem ipsum dolor\n12345\n%%% scanner noise %%%"
	meds := Extract(text)
	if len(meds) != 0 {
		t.Fatalf("got %d medicines, want 0", len(meds))
	}
	if c := Confidence(meds, text); c != 0 {
		t.Errorf("confidence = %d, want 0 for empty extraction", c)
	}
}

func TestExtractEmptyText(t *testing.T) {
	if meds := Extract(""); len(meds) != 0 {
		t.Errorf("got %d medicines from empty text", len(meds))
	}
}

func TestConfidenceCaps(t *testing.T) {
	// Name length dominates the text, so the raw score exceeds 100 and is
	// clamped.
	meds := Extract("Paracetamol 500 mg")
	if c := Confidence(meds, "Paracetamol 500 mg"); c != 100 {
		t.Errorf("confidence = %d, want clamped 100", c)
	}
}

func TestConfidenceScaling(t *testing.T) {
	meds := []Medicine{{Name: "Abcde"}} // 5 chars
	text := make([]byte, 1000)
	for i := range text {
		text[i] = 'x'
	}
	// 1000 * 5 / 1000 = 5
	if c := Confidence(meds, string(text)); c != 5 {
		t.Errorf("confidence = %d, want 5", c)
	}
}
