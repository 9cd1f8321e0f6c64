package parser

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	// mixed number ("1 1/2", "1-1/2"), fraction ("3/4") or decimal ("2", "2.5", ".5")
	reLeadingQuantity = regexp.MustCompile(`^(?:(\d+)(?:\s+|-)(\d+)/(\d+)|(\d+)/(\d+)|(\d*\.\d+|\d+))`)
	reRangeTail       = regexp.MustCompile(`^\s*(?:-|to|or)\s*(?:(\d+)(?:\s+|-)(\d+)/(\d+)|(\d+)/(\d+)|(\d*\.\d+|\d+))`)
	reDigitHyphenWord = regexp.MustCompile(`(\d)-([A-Za-z])`)
)

// quantityKind records how a quantity was written.
type quantityKind int

const (
	kindNumber quantityKind = iota
	kindFraction
	kindRange
)

type quantity struct {
	Value float64
	Max   float64
	Text  string
	Kind  quantityKind
}

// ExtractQuantity parses the leading quantity of text. Integers, decimals,
// ASCII and Unicode fractions and mixed numbers are recognized; for ranges
// only the first value is returned. Unparseable text yields (0, 0).
func ExtractQuantity(text string) (value float64, confidence float64) {
	q, _, ok := scanQuantity(normalizeText(text))
	if !ok {
		return 0, 0
	}
	return q.Value, 1
}

// ScanQuantity returns the leading quantity of text together with the
// normalized remainder that follows it.
func ScanQuantity(text string) (value float64, rest string, ok bool) {
	q, rest, ok := scanQuantity(normalizeText(text))
	if !ok {
		return 0, normalizeText(text), false
	}
	return q.Value, rest, true
}

// FormatQuantity renders v rounded to three decimals. It is meant for display
// only; parsed values are never rounded.
func FormatQuantity(v float64) string {
	return strconv.FormatFloat(math.Round(v*1000)/1000, 'f', -1, 64)
}

// scanQuantity expects normalized text.
func scanQuantity(s string) (quantity, string, bool) {
	m := reLeadingQuantity.FindStringSubmatch(s)
	if m == nil {
		return quantity{}, s, false
	}
	v, kind, ok := quantityFromMatch(m)
	if !ok {
		return quantity{}, s, false
	}

	q := quantity{Value: v, Max: v, Text: m[0], Kind: kind}
	rest := s[len(m[0]):]

	if r := reRangeTail.FindStringSubmatch(rest); r != nil {
		if maxV, _, ok := quantityFromMatch(r); ok {
			q.Max = maxV
			q.Kind = kindRange
			q.Text += r[0]
			rest = rest[len(r[0]):]
		}
	}

	return q, strings.TrimLeft(rest, " "), true
}

// quantityFromMatch evaluates the submatches of reLeadingQuantity or reRangeTail.
func quantityFromMatch(m []string) (float64, quantityKind, bool) {
	switch {
	case m[1] != "":
		whole, _ := strconv.ParseFloat(m[1], 64)
		frac, ok := divide(m[2], m[3])
		if !ok {
			return 0, 0, false
		}
		return whole + frac, kindFraction, true
	case m[4] != "":
		frac, ok := divide(m[4], m[5])
		return frac, kindFraction, ok
	case m[6] != "":
		v, err := strconv.ParseFloat(m[6], 64)
		if err != nil {
			return 0, 0, false
		}
		return v, kindNumber, true
	}
	return 0, 0, false
}

func divide(num, den string) (float64, bool) {
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, false
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0, false
	}
	return n / d, true
}

// normalizeText rewrites vulgar fraction glyphs to ASCII fractions (padding
// them so "1½" reads as a mixed number), applies NFKC, turns dashes into
// hyphens and collapses whitespace.
func normalizeText(s string) string {
	var b strings.Builder
	for _, r := range s {
		if isVulgarFraction(r) {
			b.WriteRune(' ')
			b.WriteRune(r)
			b.WriteRune(' ')
			continue
		}
		b.WriteRune(r)
	}

	out := norm.NFKC.String(b.String())
	out = strings.NewReplacer("⁄", "/", "–", "-", "—", "-").Replace(out)
	return strings.Join(strings.Fields(out), " ")
}

func isVulgarFraction(r rune) bool {
	return (r >= '¼' && r <= '¾') || (r >= '⅐' && r <= '⅞')
}
