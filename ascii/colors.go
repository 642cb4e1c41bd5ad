// Package ascii provides terminal ANSI color codes semantic names for
// colors so they can be grouped in themes.
package ascii

import "fmt"

const (
	Reset  = "\033[0m"
	Red    = "\033[1;31m"
	Yellow = "\033[1;33m"
)

func Color(color, format string, args ...any) string {
	return fmt.Sprintf(color+format+Reset, args...)
}
