package ticker

import "strings"

// ParseAndValidate splits a comma-separated list and partitions the
// normalized entries into valid and invalid. Blank entries are dropped.
// Order and duplicates are preserved. The invalid list holds normalized
// forms, so "invalid!" is reported as "INVALID".
func ParseAndValidate(batch string) (valid, invalid []string) {
	valid, invalid = []string{}, []string{}
	if batch == "" {
		return valid, invalid
	}

	for _, piece := range strings.Split(batch, ",") {
		piece = strings.TrimSpace(piece)
		if piece == "" {
			continue
		}

		normalized := Normalize(piece)
		if ok, _ := Validate(normalized); ok {
			valid = append(valid, normalized)
		} else {
			invalid = append(invalid, normalized)
		}
	}

	return valid, invalid
}
