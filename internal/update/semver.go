package update

import (
	"strconv"
	"strings"
)

// CompareVersions compares two dot-separated version strings numerically,
// component by component. Missing components count as 0, so "1.2" equals
// "1.2.0". A leading "v" is ignored. Returns -1, 0 or 1.
func CompareVersions(a, b string) int {
	as := splitVersion(a)
	bs := splitVersion(b)
	n := len(as)
	if len(bs) > n {
		n = len(bs)
	}
	for i := 0; i < n; i++ {
		av, bv := 0, 0
		if i < len(as) {
			av = as[i]
		}
		if i < len(bs) {
			bv = bs[i]
		}
		if av > bv {
			return 1
		}
		if av < bv {
			return -1
		}
	}
	return 0
}

// IsNewer reports whether candidate is strictly newer than current.
func IsNewer(candidate, current string) bool {
	return CompareVersions(candidate, current) > 0
}

func splitVersion(v string) []int {
	v = strings.TrimPrefix(strings.TrimSpace(v), "v")
	parts := strings.Split(v, ".")
	nums := make([]int, len(parts))
	for i, p := range parts {
		// Non-numeric components count as 0.
		n, _ := strconv.Atoi(p)
		nums[i] = n
	}
	return nums
}
