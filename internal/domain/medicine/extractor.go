package medicine

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// A rule recognizes one medicine line shape. Rules are evaluated in order
// and the first match wins for a line, so more specific shapes must come
// before more general ones.
type rule struct {
	name  string
	re    *regexp.Regexp
	build func(match []string) Medicine
}

const namePattern = `([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*)`

var rules = []rule{
	{
		name: "name-dosage-unit",
		re:   regexp.MustCompile(`(?i)` + namePattern + `\s*(\d+(?:\.\d+)?)\s*(mg|ml|g|tablet|tab|capsule|cap)\b`),
		build: func(m []string) Medicine {
			return newMedicine(m[1], Dosage{Amount: m[2], Unit: strings.ToLower(m[3])}, 1)
		},
	},
	{
		name: "name-frequency-word",
		re:   regexp.MustCompile(`(?i)` + namePattern + `\s*(once|twice|thrice)\s*(daily|weekly)`),
		build: func(m []string) Medicine {
			times := 1
			switch strings.ToLower(m[2]) {
			case "twice":
				times = 2
			case "thrice":
				times = 3
			}
			return newMedicine(m[1], Dosage{}, times)
		},
	},
	{
		name: "name-times-count",
		re:   regexp.MustCompile(`(?i)` + namePattern + `\s*(\d+)\s*times?\s*(daily|weekly)`),
		build: func(m []string) Medicine {
			times, err := strconv.Atoi(m[2])
			if err != nil || times < 1 {
				times = 1
			}
			return newMedicine(m[1], Dosage{}, times)
		},
	},
}

// newMedicine applies the canonical defaults every rule shares.
func newMedicine(name string, dosage Dosage, times int) Medicine {
	return Medicine{
		Name:         strings.TrimSpace(name),
		Dosage:       dosage,
		Frequency:    Frequency{Times: times, Period: "daily"},
		Timing:       []Timing{{Time: "morning", Instructions: "Take with water"}},
		Duration:     &Duration{Value: 7, Unit: "days"},
		Instructions: "Take as prescribed",
		BeforeMeal:   false,
		AfterMeal:    true,
	}
}

// apply attempts the rule against a single line.
func (r rule) apply(line string) (Medicine, bool) {
	m := r.re.FindStringSubmatch(line)
	if m == nil {
		return Medicine{}, false
	}
	return r.build(m), true
}

// Extract parses recognized prescription text into medicine records. Each
// non-empty line is tried against the rule list; the first matching rule
// produces the line's medicine. Names are deduplicated case-insensitively
// with the first occurrence winning, and result order is insertion order.
// Text with no recognizable lines yields an empty list, not an error.
func Extract(text string) []Medicine {
	var medicines []Medicine
	seen := make(map[string]bool)

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		for _, r := range rules {
			med, ok := r.apply(line)
			if !ok {
				continue
			}
			key := strings.ToLower(med.Name)
			if !seen[key] {
				seen[key] = true
				medicines = append(medicines, med)
			}
			break
		}
	}
	return medicines
}

// Confidence scores how much of the recognized text was mapped to medicine
// names, on a 0-100 scale. It is a heuristic plausibility signal only, not
// a correctness guarantee: a high score means the text was name-dense, not
// that the extraction is right. Returns 0 for an empty medicine list.
func Confidence(medicines []Medicine, text string) int {
	if len(medicines) == 0 || len(text) == 0 {
		return 0
	}
	nameLength := 0
	for _, m := range medicines {
		nameLength += len(m.Name)
	}
	score := math.Round(1000 * float64(nameLength) / float64(len(text)))
	if score > 100 {
		return 100
	}
	return int(score)
}
