// FILE: pattern.go
package auditfile

import (
	"path/filepath"
	"strconv"
	"time"
)

// DeriveFilename renders the filename pattern against a window start and
// joins it under directory. It is a pure function: any two callers with
// the same inputs produce byte-identical paths, which is what lets many
// uncoordinated workers converge on the same file without a handshake.
// It never touches the filesystem; directory creation is the coordinator's
// job.
func DeriveFilename(directory, pattern string, windowStart time.Time) string {
	return filepath.Join(directory, expandPattern(pattern, windowStart))
}

// expandPattern substitutes the conventional strftime-style date/time
// placeholders at minute resolution. Unknown placeholders pass through
// literally.
func expandPattern(pattern string, t time.Time) string {
	buf := make([]byte, 0, len(pattern)+16)

	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		if c != '%' || i+1 >= len(pattern) {
			buf = append(buf, c)
			continue
		}
		i++
		switch pattern[i] {
		case 'Y':
			buf = appendPadded(buf, t.Year(), 4)
		case 'y':
			buf = appendPadded(buf, t.Year()%100, 2)
		case 'm':
			buf = appendPadded(buf, int(t.Month()), 2)
		case 'd':
			buf = appendPadded(buf, t.Day(), 2)
		case 'H':
			buf = appendPadded(buf, t.Hour(), 2)
		case 'M':
			buf = appendPadded(buf, t.Minute(), 2)
		case 'S':
			buf = appendPadded(buf, t.Second(), 2)
		case 'j':
			buf = appendPadded(buf, t.YearDay(), 3)
		case '%':
			buf = append(buf, '%')
		default:
			buf = append(buf, '%', pattern[i])
		}
	}
	return string(buf)
}

// appendPadded appends v as a zero-padded decimal of the given width.
func appendPadded(buf []byte, v, width int) []byte {
	s := strconv.Itoa(v)
	for pad := width - len(s); pad > 0; pad-- {
		buf = append(buf, '0')
	}
	return append(buf, s...)
}
