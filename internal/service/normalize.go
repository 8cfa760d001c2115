package service

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"eicr-case-reader/internal/rules"
)

// normalizeFunc canonicalizes a raw captured value. The vocabulary argument
// is only consulted by the code normalizer. Returns false when the value
// cannot be normalized; the caller downgrades the field to ambiguous rather
// than failing the extraction.
type normalizeFunc func(raw string, vocabulary map[string]string) (string, bool)

var normalizerFuncs = map[string]normalizeFunc{
	rules.NormalizerString:     normalizeString,
	rules.NormalizerDate:       normalizeDate,
	rules.NormalizerCode:       normalizeCode,
	rules.NormalizerNumber:     normalizeNumber,
	rules.NormalizerIdentifier: normalizeIdentifier,
	rules.NormalizerPhone:      normalizePhone,
}

// normalizeValue applies the named normalizer to raw.
func normalizeValue(name, raw string, vocabulary map[string]string) (string, bool) {
	fn, ok := normalizerFuncs[name]
	if !ok {
		return "", false
	}
	return fn(raw, vocabulary)
}

// normalizeString trims and collapses internal whitespace.
func normalizeString(raw string, _ map[string]string) (string, bool) {
	s := strings.Join(strings.Fields(raw), " ")
	if s == "" {
		return "", false
	}
	return s, true
}

// dateLayouts lists the input formats seen in case report PDFs, most
// specific first. Output is always ISO 8601.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"01-02-2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"02 Jan 2006",
	"20060102",
}

func normalizeDate(raw string, _ map[string]string) (string, bool) {
	s := strings.Join(strings.Fields(raw), " ")
	if s == "" {
		return "", false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02"), true
		}
	}
	return "", false
}

var codeRe = regexp.MustCompile(`^[A-Z0-9][A-Z0-9.\-]*$`)

// normalizeCode resolves a coded value. With a vocabulary the lookup is
// case-insensitive and a miss fails normalization; without one the code is
// uppercased and checked against the code-system character set.
func normalizeCode(raw string, vocabulary map[string]string) (string, bool) {
	s := strings.Join(strings.Fields(raw), " ")
	if s == "" {
		return "", false
	}
	if len(vocabulary) > 0 {
		if mapped, ok := vocabulary[strings.ToLower(s)]; ok {
			return mapped, true
		}
		return "", false
	}
	s = strings.ToUpper(strings.ReplaceAll(s, " ", ""))
	if !codeRe.MatchString(s) {
		return "", false
	}
	return s, true
}

func normalizeNumber(raw string, _ map[string]string) (string, bool) {
	s := strings.TrimSpace(strings.ReplaceAll(raw, ",", ""))
	if s == "" {
		return "", false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return "", false
	}
	return strconv.FormatFloat(f, 'f', -1, 64), true
}

var identifierRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9./\-]*$`)

func normalizeIdentifier(raw string, _ map[string]string) (string, bool) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), " ", "")
	if !identifierRe.MatchString(s) {
		return "", false
	}
	return s, true
}

// normalizePhone keeps digits and a leading plus. Seven to fifteen digits
// per E.164.
func normalizePhone(raw string, _ map[string]string) (string, bool) {
	var sb strings.Builder
	digits := 0
	for i, r := range raw {
		if r == '+' && i == 0 {
			sb.WriteRune(r)
			continue
		}
		if r >= '0' && r <= '9' {
			sb.WriteRune(r)
			digits++
		}
	}
	if digits < 7 || digits > 15 {
		return "", false
	}
	return sb.String(), true
}
