package ticker

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"tickr/pkg/core"
)

// exchangeSuffixes maps a ticker suffix to its market. Order matters only
// for readability; a ticker ends in at most one of them.
var exchangeSuffixes = []struct {
	suffix string
	market core.MarketType
}{
	{".NS", core.MarketNSE},
	{".BO", core.MarketBSE},
}

var (
	canonicalPattern = regexp.MustCompile(canonicalExpr())
	basePattern      = regexp.MustCompile(`^[A-Z0-9]+$`)
	usPattern        = regexp.MustCompile(`^[A-Z]{1,5}$`)
	disallowedChars  = regexp.MustCompile(`[^A-Z0-9.]`)
)

// canonicalExpr builds ^[A-Z0-9]+(\.(NS|BO))?$ from exchangeSuffixes.
func canonicalExpr() string {
	codes := make([]string, 0, len(exchangeSuffixes))
	for _, s := range exchangeSuffixes {
		codes = append(codes, regexp.QuoteMeta(strings.TrimPrefix(s.suffix, ".")))
	}
	return `^[A-Z0-9]+(\.(` + strings.Join(codes, "|") + `))?$`
}

// upper applies full Unicode case mapping, so "ß" becomes "SS" and the
// ligature "ﬁ" becomes "FI". A Caser is stateful and not shared.
func upper(s string) string {
	return cases.Upper(language.Und).String(s)
}

// Normalize trims and uppercases raw. If the result is not already in
// canonical form (BASE, BASE.NS or BASE.BO) every character outside
// [A-Z0-9.] is deleted. The result may still be invalid; use Validate.
func Normalize(raw string) string {
	t := upper(strings.TrimSpace(raw))
	if canonicalPattern.MatchString(t) {
		return t
	}
	return disallowedChars.ReplaceAllString(t, "")
}

// Validate reports whether raw is a well-formed ticker and which market it
// belongs to. Input is trimmed and uppercased first but not otherwise
// normalized, so "INVALID!" is rejected.
//
// Suffixed tickers allow digits in the base (e.g. "500325.BO"); unsuffixed
// US tickers must be 1-5 letters.
func Validate(raw string) (bool, core.MarketType) {
	t := upper(strings.TrimSpace(raw))

	for _, s := range exchangeSuffixes {
		if base, ok := strings.CutSuffix(t, s.suffix); ok && basePattern.MatchString(base) {
			return true, s.market
		}
	}

	if usPattern.MatchString(t) {
		return true, core.MarketUS
	}

	return false, core.MarketUnknown
}

// Market returns the market raw belongs to, or core.MarketUnknown.
func Market(raw string) core.MarketType {
	_, market := Validate(raw)
	return market
}

// IsIndian reports whether raw is an NSE or BSE ticker.
func IsIndian(raw string) bool {
	return Market(raw).IsIndian()
}
