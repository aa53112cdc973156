package core

// normalize.go holds the value normalizers. They are total: bad input yields
// the empty value, never an error, and validation decides what that means.

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	isoDateRe   = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})$`)
	slashYMDRe  = regexp.MustCompile(`^(\d{4})/(\d{1,2})/(\d{1,2})$`)
	slashDMYRe  = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)
	excelWrapRe = regexp.MustCompile(`^="(.*)"$`)
)

// NormalizeText trims whitespace and unwraps Excel's ="..." text guard.
// Returns "" for blank input.
func NormalizeText(s string) string {
	s = strings.TrimSpace(s)
	if m := excelWrapRe.FindStringSubmatch(s); m != nil {
		s = strings.TrimSpace(m[1])
	}
	return s
}

// NormalizeDate parses YYYY-MM-DD, YYYY/MM/DD and the two slash forms
// DD/MM/YYYY and MM/DD/YYYY. For the slash forms a first part above 12 means
// day-first, a second part above 12 means month-first, and anything still
// ambiguous is read day-first. Returns nil when the text matches no form or
// names a date that does not exist (31/02/2020).
func NormalizeDate(s string) *time.Time {
	s = NormalizeText(s)
	if s == "" {
		return nil
	}

	var year, month, day int
	switch {
	case isoDateRe.MatchString(s):
		m := isoDateRe.FindStringSubmatch(s)
		year, month, day = atoi(m[1]), atoi(m[2]), atoi(m[3])
	case slashYMDRe.MatchString(s):
		m := slashYMDRe.FindStringSubmatch(s)
		year, month, day = atoi(m[1]), atoi(m[2]), atoi(m[3])
	case slashDMYRe.MatchString(s):
		m := slashDMYRe.FindStringSubmatch(s)
		a, b := atoi(m[1]), atoi(m[2])
		year = atoi(m[3])
		switch {
		case a > 12:
			day, month = a, b
		case b > 12:
			month, day = a, b
		default:
			day, month = a, b
		}
	default:
		return nil
	}

	return calendarDate(year, month, day)
}

// calendarDate builds a UTC midnight date, rejecting combinations that
// time.Date would silently roll over.
func calendarDate(year, month, day int) *time.Time {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return nil
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return nil
	}
	return &t
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

var genderAliases = map[string]string{
	// masculine
	"m": GenderMale, "h": GenderMale, "masculino": GenderMale, "hombre": GenderMale,
	"varon": GenderMale, "male": GenderMale, "man": GenderMale, "homem": GenderMale,
	"masc": GenderMale,
	// feminine
	"f": GenderFemale, "femenino": GenderFemale, "feminino": GenderFemale, "mujer": GenderFemale,
	"female": GenderFemale, "woman": GenderFemale, "mulher": GenderFemale, "fem": GenderFemale,
	// other
	"o": GenderOther, "x": GenderOther, "otro": GenderOther, "otra": GenderOther,
	"other": GenderOther, "outro": GenderOther, "no binario": GenderOther,
	"non binary": GenderOther, "nonbinary": GenderOther, "nao binario": GenderOther,
	"nb": GenderOther,
}

// NormalizeGender maps a free-text gender to masculino, femenino or otro.
// Matching ignores case and accents. Returns "" when nothing matches.
func NormalizeGender(s string) string {
	key := foldDiacritics(strings.ToLower(NormalizeText(s)))
	key = strings.Join(strings.Fields(strings.ReplaceAll(key, "-", " ")), " ")
	if key == "" {
		return ""
	}
	return genderAliases[key]
}
