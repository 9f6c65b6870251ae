// Package suggest finds the closest known word for a mistyped one.
package suggest

// Distance returns the Damerau-Levenshtein distance between a and b:
// insertions, deletions, substitutions and adjacent transpositions each
// count as one edit. Runes are compared, not bytes.
func Distance(a, b string) int {
	if a == b {
		return 0
	}
	ra, rb := []rune(a), []rune(b)
	la, lb := len(ra), len(rb)
	if la == 0 {
		return lb
	}
	if lb == 0 {
		return la
	}

	d := make([][]int, la+1)
	for i := range d {
		d[i] = make([]int, lb+1)
		d[i][0] = i
	}
	for j := 0; j <= lb; j++ {
		d[0][j] = j
	}
	for i := 1; i <= la; i++ {
		for j := 1; j <= lb; j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			d[i][j] = min(d[i-1][j]+1, d[i][j-1]+1, d[i-1][j-1]+cost)
			if i > 1 && j > 1 && ra[i-1] == rb[j-2] && ra[i-2] == rb[j-1] {
				d[i][j] = min(d[i][j], d[i-2][j-2]+cost)
			}
		}
	}
	return d[la][lb]
}

// Closest returns the candidate nearest to word, if it is within maxDistance
// edits. Ties go to the earlier candidate. An exact match is not a suggestion.
func Closest(word string, candidates []string, maxDistance int) (string, bool) {
	best, bestDist := "", maxDistance+1
	for _, c := range candidates {
		if c == word {
			return "", false
		}
		if d := Distance(word, c); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best, best != ""
}

// Hint formats a " (did you mean %q?)" suffix for word, or "" when nothing
// is close enough.
func Hint(word string, candidates []string) string {
	if s, ok := Closest(word, candidates, 2); ok {
		return " (did you mean \"" + s + "\"?)"
	}
	return ""
}
