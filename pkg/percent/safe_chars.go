package percent

import (
	"regexp"
	"strings"
)

// SafeCharsMatching returns the printable ASCII characters other than
// letters and digits that re matches, ready to be passed to New. The regexp
// is only run here, never while escaping.
//
// For instance SafeCharsMatching(regexp.MustCompile(`[\w.~-]`)) returns "-._~".
func SafeCharsMatching(re *regexp.Regexp) string {
	var sb strings.Builder
	for c := byte(' '); c < 0x7F; c++ {
		s := string(c)
		if strings.Contains(alphanumerics, s) {
			continue
		}
		if re.MatchString(s) {
			sb.WriteByte(c)
		}
	}
	return sb.String()
}
