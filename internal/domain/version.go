package domain

import (
	"strconv"
	"strings"
)

// CompareVersions orders normalized version strings.
//
// Dot-separated segments compare component-wise as integers; when one version
// runs out of segments the remaining segments of the other decide (so
// "1.2.1" > "1.2"). A missing version sorts lowest. Segments that are not
// purely numeric compare by their leading digits, then lexically, so tags
// like "2.4.6-stable" still order sensibly.
//
// Returns -1 when a < b, 0 when equal, 1 when a > b.
func CompareVersions(a, b string) int {
	if a == b {
		return 0
	}
	if a == "" {
		return -1
	}
	if b == "" {
		return 1
	}

	as := strings.Split(strings.TrimPrefix(a, "v"), ".")
	bs := strings.Split(strings.TrimPrefix(b, "v"), ".")

	n := len(as)
	if len(bs) > n {
		n = len(bs)
	}
	for i := 0; i < n; i++ {
		var sa, sb string
		if i < len(as) {
			sa = as[i]
		}
		if i < len(bs) {
			sb = bs[i]
		}
		if c := compareSegment(sa, sb); c != 0 {
			return c
		}
	}
	return 0
}

func compareSegment(a, b string) int {
	na, resta := leadingInt(a)
	nb, restb := leadingInt(b)
	switch {
	case na < nb:
		return -1
	case na > nb:
		return 1
	}
	return strings.Compare(resta, restb)
}

// leadingInt splits a segment into its numeric prefix and the remainder.
// "24b" -> (24, "b"), "stable" -> (0, "stable").
func leadingInt(s string) (int, string) {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 0 {
		return 0, s
	}
	n, err := strconv.Atoi(s[:i])
	if err != nil {
		// Overflow on absurdly long numeric runs; treat as equal-weight text.
		return 0, s
	}
	return n, s[i:]
}
