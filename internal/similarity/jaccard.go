package similarity

// Jaccard returns |A∩B| / |A∪B| over the distinct elements of a and b.
// Two empty sets have similarity 0.
func Jaccard(a, b []string) float64 {
	setA := make(map[string]bool, len(a))
	for _, x := range a {
		setA[x] = true
	}
	setB := make(map[string]bool, len(b))
	for _, x := range b {
		setB[x] = true
	}

	union := len(setA)
	intersection := 0
	for x := range setB {
		if setA[x] {
			intersection++
		} else {
			union++
		}
	}

	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}
