package features

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"FraudDash/internal/domain/models"
)

// ValidationError reports why raw input could not become a FeatureVector.
// Count is the number of numeric tokens that were found.
type ValidationError struct {
	Count int
}

func (e *ValidationError) Error() string {
	if e.Count == 0 {
		return "no valid numeric features"
	}
	return fmt.Sprintf("expected exactly %d features, got %d", models.FeatureCount, e.Count)
}

// Parse turns comma-separated text into a FeatureVector.
// Tokens that are not finite numbers are skipped, so "1,a,2" yields two values.
func Parse(raw string) (models.FeatureVector, error) {
	var v models.FeatureVector

	values := Scan(raw)
	if len(values) != models.FeatureCount {
		return v, &ValidationError{Count: len(values)}
	}
	copy(v[:], values)
	return v, nil
}

// Scan returns every finite number found in raw, in input order.
func Scan(raw string) []float64 {
	tokens := strings.Split(raw, ",")
	out := make([]float64, 0, len(tokens))
	for _, tok := range tokens {
		tok = strings.TrimSpace(tok)
		if tok == "" || isHex(tok) {
			continue
		}
		f, err := strconv.ParseFloat(tok, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			continue
		}
		out = append(out, f)
	}
	return out
}

// isHex reports a hex-float token such as "0x1p4". Those are not decimal
// feature values, so they are dropped like any other non-numeric token.
func isHex(tok string) bool {
	tok = strings.TrimLeft(tok, "+-")
	return len(tok) > 1 && tok[0] == '0' && (tok[1] == 'x' || tok[1] == 'X')
}

// Format renders a vector back into the comma-separated form Parse accepts.
func Format(v models.FeatureVector) string {
	parts := make([]string, len(v))
	for i, f := range v {
		parts[i] = strconv.FormatFloat(f, 'g', -1, 64)
	}
	return strings.Join(parts, ",")
}
