package console

import "github.com/fatih/color"

// Available ANSI colors
var (
	Yellow = color.New(color.FgYellow).SprintFunc()
	Red    = color.New(color.FgRed).SprintFunc()
	Green  = color.New(color.FgGreen).SprintFunc()
	White  = color.New(color.FgHiWhite).SprintFunc()
)

// Flag renders a status bit green when it has its healthy value, red otherwise.
func Flag(value, healthy bool) string {
	if value == healthy {
		return Green(value)
	}
	return Red(value)
}
