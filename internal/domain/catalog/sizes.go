package catalog

import "strings"

var (
	adultSizes = []string{"S", "M", "L", "XL", "2XL", "3XL", "4XL"}
	kidsSizes  = []string{"16", "18", "20", "22", "24", "26", "28"}

	kidsMarkers = []string{"kid", "child", "youth", "enfant", "kinder"}
)

// IsKidsGender reports whether the gender attribute denotes a kids product
func IsKidsGender(gender string) bool {
	g := strings.ToLower(gender)
	for _, m := range kidsMarkers {
		if strings.Contains(g, m) {
			return true
		}
	}
	return false
}

// SizesFor returns the size ladder for a gender attribute.
// The returned slice is a copy and may be modified by the caller.
func SizesFor(gender string) []string {
	if IsKidsGender(gender) {
		return append([]string(nil), kidsSizes...)
	}
	return append([]string(nil), adultSizes...)
}
