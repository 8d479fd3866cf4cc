package globe

import (
	"strconv"
	"strings"
)

// ExpandTemplate fills a tile URL template for the given tile.
//
// Supported placeholders: {z}, {x}, {y}, {-y} and {reverseY}. The last two
// are the TMS row, counted from the bottom of the tile matrix.
func ExpandTemplate(tmpl string, z, x, y int) string {
	if !strings.Contains(tmpl, "{") {
		return tmpl
	}
	reverseY := strconv.Itoa((1 << z) - 1 - y)
	r := strings.NewReplacer(
		"{z}", strconv.Itoa(z),
		"{x}", strconv.Itoa(x),
		"{y}", strconv.Itoa(y),
		"{-y}", reverseY,
		"{reverseY}", reverseY,
	)
	return r.Replace(tmpl)
}
