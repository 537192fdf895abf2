// Package timecode parses the time offsets accepted on the command line and in the seek dialog.
package timecode

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrEmpty is returned for blank input
var ErrEmpty = errors.New("empty time")

// MaxSeconds is the largest offset accepted, Kodi takes seek offsets as 32 bit integers
const MaxSeconds = math.MaxInt32

const outOfRange = "out of range"

// SyntaxError describes why a time could not be parsed
type SyntaxError struct {
	Input  string
	Reason string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("invalid time %q: %s", e.Input, e.Reason)
}

// Parse reads a duration written as numbers followed by h, m or s, for example "1h4m3s", "90s" or "2m".  Units may
// repeat and appear in any order.  It returns the total in seconds.
func Parse(s string) (int, error) {
	if s == "" {
		return 0, ErrEmpty
	}

	seconds := 0
	value := 0
	haveValue := false
	for _, r := range s {
		var mul int
		switch {
		case r >= '0' && r <= '9':
			d := int(r - '0')
			if value > (MaxSeconds-d)/10 {
				return 0, &SyntaxError{Input: s, Reason: outOfRange}
			}
			value = value*10 + d
			haveValue = true
			continue
		case r == 'h':
			mul = 3600
		case r == 'm':
			mul = 60
		case r == 's':
			mul = 1
		default:
			return 0, &SyntaxError{Input: s, Reason: fmt.Sprintf("invalid character %q", r)}
		}

		if !haveValue {
			return 0, &SyntaxError{Input: s, Reason: fmt.Sprintf("unit %q without a number", r)}
		}
		if value > (MaxSeconds-seconds)/mul {
			return 0, &SyntaxError{Input: s, Reason: outOfRange}
		}
		seconds += value * mul
		value = 0
		haveValue = false
	}

	if haveValue {
		return 0, &SyntaxError{Input: s, Reason: "expected h, m or s at the end"}
	}
	return seconds, nil
}

// ParseClock reads a signed offset as typed into the seek dialog.  Accepted forms are clock notation ("1:02:03",
// "-5:00"), unit notation ("-1m30s") and bare digits, which fill the clock from the right so "130" is 1:30.
func ParseClock(s string) (int, error) {
	input := s
	s = strings.TrimSpace(s)
	sign := 1
	if rest, ok := strings.CutPrefix(s, "-"); ok {
		sign = -1
		s = rest
	} else {
		s = strings.TrimPrefix(s, "+")
	}
	if s == "" {
		return 0, ErrEmpty
	}

	var seconds int
	var err error
	switch {
	case strings.Contains(s, ":"):
		seconds, err = parseFields(strings.Split(s, ":"))
	case strings.ContainsAny(s, "hms"):
		seconds, err = Parse(s)
	default:
		seconds, err = parseDigits(s)
	}
	if err != nil {
		var syntaxErr *SyntaxError
		if errors.As(err, &syntaxErr) {
			syntaxErr.Input = input
		}
		return 0, err
	}
	return sign * seconds, nil
}

// parseFields reads [[h:]m:]s
func parseFields(fields []string) (int, error) {
	if len(fields) > 3 {
		return 0, &SyntaxError{Reason: "too many fields"}
	}
	seconds := 0
	for _, f := range fields {
		if f == "" {
			return 0, &SyntaxError{Reason: "empty field"}
		}
		v, err := strconv.Atoi(f)
		if err != nil || v < 0 {
			return 0, &SyntaxError{Reason: fmt.Sprintf("invalid field %q", f)}
		}
		if v > MaxSeconds || seconds > (MaxSeconds-v)/60 {
			return 0, &SyntaxError{Reason: outOfRange}
		}
		seconds = seconds*60 + v
	}
	return seconds, nil
}

func parseDigits(s string) (int, error) {
	if len(s) > 6 {
		return 0, &SyntaxError{Reason: "at most six digits"}
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, &SyntaxError{Reason: fmt.Sprintf("invalid character %q", r)}
		}
	}

	var fields []string
	for len(s) > 2 {
		fields = append([]string{s[len(s)-2:]}, fields...)
		s = s[:len(s)-2]
	}
	fields = append([]string{s}, fields...)
	return parseFields(fields)
}

// Format renders seconds as h:mm:ss with a leading minus for negative values
func Format(seconds int) string {
	sign := ""
	if seconds < 0 {
		sign = "-"
		seconds = -seconds
	}
	return fmt.Sprintf("%s%d:%02d:%02d", sign, seconds/3600, seconds/60%60, seconds%60)
}
