// Package chartable implements the fixed Unicode-to-6-bit character
// code table spec.md §6 describes: space=0, digits 39-48, letters
// case-insensitively 13-38, plus punctuation. String literals and
// keyboard input both pass through it (spec.md §2, §4.5).
package chartable

// table maps a rune to its 6-bit code. Built once in init from the
// layout spec.md §6 fixes: it is a compile-time constant, never
// mutated at runtime (spec.md §9 "Global state: None required").
var table map[rune]int

const (
	spaceCode = 0
)

var punctuationLow = []rune{'.', ',', '!', '?', '\'', '"', '-', ':', ';', '(', ')', '/'}
var punctuationHigh = []rune{'=', '+', '*', '%', '<', '>', '&', '|', '^', '~', '@', '#', '$', '\\', '_'}

func init() {
	table = make(map[rune]int)
	table[' '] = spaceCode

	code := 1
	for _, r := range punctuationLow {
		table[r] = code
		code++
	}

	code = 13
	for c := 0; c < 26; c++ {
		lower := rune('a' + c)
		upper := rune('A' + c)
		table[lower] = code
		table[upper] = code
		code++
	}

	code = 39
	for d := 0; d < 10; d++ {
		table[rune('0'+d)] = code
		code++
	}

	code = 49
	for _, r := range punctuationHigh {
		table[r] = code
		code++
	}
}

// Lookup returns the 6-bit code for r and true, or (0, false) if r is
// not in the table — the caller must turn a false into the "character
// not in character table" compile error spec.md §7 names (Layout kind).
func Lookup(r rune) (int, bool) {
	c, ok := table[r]
	return c, ok
}

// MustEncode encodes every rune of s, substituting 0 for any rune not
// present in the table and reporting whether all runes were found.
func MustEncode(s string) (codes []int, allFound bool) {
	allFound = true
	for _, r := range s {
		c, ok := Lookup(r)
		if !ok {
			allFound = false
			c = 0
		}
		codes = append(codes, c)
	}
	return codes, allFound
}
