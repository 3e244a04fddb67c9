package catalog

import (
	"crypto/rand"
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode"
)

const skuSuffixAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

var skuPattern = regexp.MustCompile(`^[A-Z]{3}-[0-9]{2,8}-[A-Z]{3}-[A-Z0-9]{5}$`)

// checked in order; the first contained name wins
var typeCodes = []struct{ name, code string }{
	{"goalkeeper", "GKP"},
	{"training", "TRN"},
	{"fourth", "FRT"},
	{"third", "THR"},
	{"retro", "RET"},
	{"special", "SPC"},
	{"home", "HOM"},
	{"away", "AWY"},
}

// TeamCode returns the first three letters of the team, upper-cased, padded with X
func TeamCode(team string) string {
	return threeLetters(team)
}

// SeasonCode returns the last two digits of every year in the season:
// "2024/25" -> "2425", "2024-2025" -> "2425", "2024" -> "24"
func SeasonCode(season string) string {
	var b strings.Builder
	for _, group := range strings.FieldsFunc(season, func(r rune) bool { return !unicode.IsDigit(r) }) {
		if len(group) > 2 {
			group = group[len(group)-2:]
		}
		b.WriteString(group)
	}
	if b.Len() < 2 {
		return "00"
	}
	return b.String()
}

// TypeCode maps a jersey type to its three-letter code
func TypeCode(jerseyType string) string {
	key := strings.ToLower(strings.TrimSpace(jerseyType))
	for _, tc := range typeCodes {
		if strings.Contains(key, tc.name) {
			return tc.code
		}
	}
	return threeLetters(jerseyType)
}

func threeLetters(s string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(s) {
		if r >= 'A' && r <= 'Z' {
			b.WriteRune(r)
			if b.Len() == 3 {
				break
			}
		}
	}
	for b.Len() < 3 {
		b.WriteByte('X')
	}
	return b.String()
}

// GenerateSKU builds TEAM-SEASON-TYPE-RANDOM5 from the attributes.
// rnd is the randomness source; nil uses crypto/rand.
func GenerateSKU(a Attributes, rnd io.Reader) (string, error) {
	if rnd == nil {
		rnd = rand.Reader
	}
	buf := make([]byte, 5)
	if _, err := io.ReadFull(rnd, buf); err != nil {
		return "", fmt.Errorf("generate sku suffix: %w", err)
	}
	for i, b := range buf {
		buf[i] = skuSuffixAlphabet[int(b)%len(skuSuffixAlphabet)]
	}
	return fmt.Sprintf("%s-%s-%s-%s", TeamCode(a.Team), SeasonCode(a.Season), TypeCode(a.Type), buf), nil
}

// IsGeneratedSKU reports whether sku has the generated shape
func IsGeneratedSKU(sku string) bool {
	return skuPattern.MatchString(sku)
}
