package normalize

import (
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// corporateSuffixes are removed from vendor names as substrings, longest
// first so "corporation" is consumed before "corp". Substring removal (as
// opposed to word-boundary stripping) matches how upstream systems key
// their vendor records, at the cost of eating those letter runs anywhere
// in the name.
var corporateSuffixes = []string{
	"corporation",
	"limited",
	"corp",
	"llc",
	"ltd",
	"inc",
}

var foldDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// VendorKey reduces a raw vendor name to an equality key: two names map to
// the same key iff they are treated as the same vendor. Lowercases, folds
// diacritics, drops everything that is not a letter or digit, then removes
// corporate suffixes until no occurrence remains, so the result is a
// fixpoint and VendorKey is idempotent.
func VendorKey(name string) string {
	s := strings.ToLower(name)

	if folded, _, err := transform.String(foldDiacritics, s); err == nil {
		s = folded
	}

	var b strings.Builder

	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}

	s = b.String()

	for {
		prev := s

		for _, suffix := range corporateSuffixes {
			s = strings.ReplaceAll(s, suffix, "")
		}

		if s == prev {
			return s
		}
	}
}

// PONumber is an extracted purchase-order reference. Raw keeps the token as
// it appeared in the text; Core is the 7-8 digit PO number with any line or
// release suffix ("-1", "-002") removed.
type PONumber struct {
	Raw  string
	Core string
}

var (
	rePOToken = regexp.MustCompile(`\b\d{7,8}(?:-\d{1,3})?\b`)
	rePOCore  = regexp.MustCompile(`^\d{7,8}$`)
)

// ExtractPONumber scans free text for the first token shaped like a PO
// number: 7-8 digits, optionally followed by a dash and a 1-3 digit suffix.
// Later PO references in the same text are ignored.
func ExtractPONumber(text string) (PONumber, bool) {
	raw := rePOToken.FindString(text)
	if raw == "" {
		return PONumber{}, false
	}

	core, _, _ := strings.Cut(raw, "-")
	if !rePOCore.MatchString(core) {
		return PONumber{}, false
	}

	return PONumber{Raw: raw, Core: core}, true
}

// datePatterns are tried in order; the first hit wins. Ambiguous
// day/month-swapped dates are not resolved beyond this precedence.
var datePatterns = []struct {
	re     *regexp.Regexp
	layout string
}{
	{regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`), "2006-01-02"},
	{regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{4}\b`), "1/2/2006"},
	{regexp.MustCompile(`\b\d{1,2}-\d{1,2}-\d{4}\b`), "1-2-2006"},
}

// ParseInvoiceDate finds the first recognizable date in the text, trying
// ISO (YYYY-MM-DD), then MM/DD/YYYY, then MM-DD-YYYY.
func ParseInvoiceDate(text string) (time.Time, bool) {
	for _, p := range datePatterns {
		for _, token := range p.re.FindAllString(text, -1) {
			if t, err := time.Parse(p.layout, token); err == nil {
				return t, true
			}
		}
	}

	return time.Time{}, false
}

// ParseCurrency parses a currency string into integer cents, rounding to
// the nearest cent. Everything except digits, sign, and the decimal point
// is stripped first, so "$1,234.56" and "1234.56 CAD" both parse.
func ParseCurrency(s string) (int64, error) {
	var b strings.Builder

	for _, r := range s {
		if r >= '0' && r <= '9' || r == '-' || r == '+' || r == '.' {
			b.WriteRune(r)
		}
	}

	d, err := decimal.NewFromString(b.String())
	if err != nil {
		return 0, err
	}

	return d.Mul(decimal.NewFromInt(100)).Round(0).IntPart(), nil
}

// FormatCurrency renders integer cents as a dollar amount, e.g. -2550 -> "-$25.50".
func FormatCurrency(cents int64) string {
	d := decimal.NewFromInt(cents).Div(decimal.NewFromInt(100))

	if d.IsNegative() {
		return "-$" + d.Abs().StringFixed(2)
	}

	return "$" + d.StringFixed(2)
}
