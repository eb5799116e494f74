// Package normalize produces canonical project and drawing codes from
// free-form label input. Both functions are total: malformed input yields a
// padded placeholder code rather than an error.
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	projectLetterLen = 4
	projectDigitLen  = 4
)

// drawingToken matches a two-letter prefix followed by a digit run, e.g.
// "bl7" or "TR124".
var drawingToken = regexp.MustCompile(`\b([A-Za-z]{2})([0-9]+)\b`)

// titleCase title-cases each word under German rules. A fresh Caser per
// call: Casers are stateful and not safe for concurrent use.
func titleCase(s string) string {
	return cases.Title(language.German).String(s)
}

// Project turns free-form input into a canonical project code of the shape
// LLLLDDDD, optionally followed by a trailing K marker. Letters are padded
// with 'X', digits with leading '0'.
//
//	Project("befr0124") == "BEFR0124"
//	Project("bl22k")    == "BLXX0022K"
func Project(raw string) string {
	var clean []rune
	for _, r := range strings.ToUpper(raw) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			clean = append(clean, r)
		}
	}

	// A trailing K directly after a digit is the marker, not part of the
	// letter run.
	marker := false
	if n := len(clean); n >= 2 && clean[n-1] == 'K' && unicode.IsDigit(clean[n-2]) {
		marker = true
		clean = clean[:n-1]
	}

	var letters, digits []rune
	i := 0
	for i < len(clean) && unicode.IsLetter(clean[i]) {
		letters = append(letters, clean[i])
		i++
	}
	for ; i < len(clean); i++ {
		if unicode.IsDigit(clean[i]) {
			digits = append(digits, clean[i])
		}
	}

	code := padLetters(letters) + padDigits(digits)
	if marker {
		code += "K"
	}
	return code
}

func padLetters(letters []rune) string {
	if len(letters) > projectLetterLen {
		letters = letters[:projectLetterLen]
	}
	s := string(letters)
	for len(s) < projectLetterLen {
		s += "X"
	}
	return s
}

func padDigits(digits []rune) string {
	if len(digits) > projectDigitLen {
		digits = digits[len(digits)-projectDigitLen:]
	}
	s := string(digits)
	for len(s) < projectDigitLen {
		s = "0" + s
	}
	return s
}

// Drawing normalizes a free-form drawing description. Tokens matching a
// two-letter prefix plus digits become prefix + the last two digits,
// zero-padded; free text between tokens is title-cased per word. Results
// are joined with ", " in original order.
//
//	Drawing("tür vorne rechts bl7") == "Tür Vorne Rechts, BL07"
func Drawing(raw string) string {
	matches := drawingToken.FindAllStringSubmatchIndex(raw, -1)
	if len(matches) == 0 {
		return titleCase(strings.TrimSpace(raw))
	}

	var parts []string
	pos := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		if text := strings.TrimSpace(raw[pos:start]); text != "" {
			parts = append(parts, titleCase(text))
		}
		prefix := strings.ToUpper(raw[m[2]:m[3]])
		parts = append(parts, prefix+lastTwoDigits(raw[m[4]:m[5]]))
		pos = end
	}
	if text := strings.TrimSpace(raw[pos:]); text != "" {
		parts = append(parts, titleCase(text))
	}

	return strings.Join(parts, ", ")
}

func lastTwoDigits(digits string) string {
	if len(digits) > 2 {
		digits = digits[len(digits)-2:]
	}
	for len(digits) < 2 {
		digits = "0" + digits
	}
	return digits
}
