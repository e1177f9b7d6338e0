package render

import (
	"fmt"
	"strconv"
	"strings"
)

// Token formats used by TextSurface:
//
//	position  sec:<section>:<offset>
//	range     sec:<section>:<start>-<end>
//
// Offsets count runes within a section's text.
const tokenPrefix = "sec:"

func positionToken(section, offset int) string {
	return fmt.Sprintf("sec:%d:%d", section, offset)
}

func rangeToken(section, start, end int) string {
	return fmt.Sprintf("sec:%d:%d-%d", section, start, end)
}

func parsePosition(token string) (section, offset int, err error) {
	rest, ok := strings.CutPrefix(token, tokenPrefix)
	if !ok {
		return 0, 0, fmt.Errorf("malformed position %q", token)
	}
	sec, off, ok := strings.Cut(rest, ":")
	if !ok {
		return 0, 0, fmt.Errorf("malformed position %q", token)
	}
	if section, err = strconv.Atoi(sec); err != nil {
		return 0, 0, fmt.Errorf("malformed position %q", token)
	}
	if offset, err = strconv.Atoi(off); err != nil {
		return 0, 0, fmt.Errorf("malformed position %q", token)
	}
	return section, offset, nil
}

func parseRange(token string) (section, start, end int, err error) {
	rest, ok := strings.CutPrefix(token, tokenPrefix)
	if !ok {
		return 0, 0, 0, fmt.Errorf("malformed range %q", token)
	}
	sec, span, ok := strings.Cut(rest, ":")
	if !ok {
		return 0, 0, 0, fmt.Errorf("malformed range %q", token)
	}
	from, to, ok := strings.Cut(span, "-")
	if !ok {
		return 0, 0, 0, fmt.Errorf("malformed range %q", token)
	}
	if section, err = strconv.Atoi(sec); err != nil {
		return 0, 0, 0, fmt.Errorf("malformed range %q", token)
	}
	if start, err = strconv.Atoi(from); err != nil {
		return 0, 0, 0, fmt.Errorf("malformed range %q", token)
	}
	if end, err = strconv.Atoi(to); err != nil {
		return 0, 0, 0, fmt.Errorf("malformed range %q", token)
	}
	if start > end {
		return 0, 0, 0, fmt.Errorf("malformed range %q", token)
	}
	return section, start, end, nil
}

// RangeToken builds a TextSurface range token. Exposed for callers that
// simulate selections.
func RangeToken(section, start, end int) string {
	return rangeToken(section, start, end)
}

// PositionToken builds a TextSurface position token.
func PositionToken(section, offset int) string {
	return positionToken(section, offset)
}
