package sim

// A round is best-of-five: the first side to three wins or three losses ends
// it. That leaves exactly 20 distinct flip sequences of length 3 to 5.

var outcomes = enumerateOutcomes()

// Outcomes returns the canonical round-outcome token strings, e.g. "WWW" or
// "WLWLW". Generated once; the slice must be treated as read-only.
func Outcomes() []string { return outcomes }

func enumerateOutcomes() []string {
	var out []string
	for length := 3; length <= 5; length++ {
		for mask := 0; mask < 1<<length; mask++ {
			seq := make([]byte, length)
			wins := 0
			for i := 0; i < length; i++ {
				if mask&(1<<i) != 0 {
					seq[i] = 'W'
					wins++
				} else {
					seq[i] = 'L'
				}
			}
			losses := length - wins
			if wins != 3 && losses != 3 {
				continue
			}
			if endsEarly(seq) {
				continue
			}
			out = append(out, string(seq))
		}
	}
	return out
}

// endsEarly reports whether the match would already be decided before the
// final flip of the sequence.
func endsEarly(seq []byte) bool {
	wins, losses := 0, 0
	for i := 0; i < len(seq)-1; i++ {
		if seq[i] == 'W' {
			wins++
		} else {
			losses++
		}
		if wins == 3 || losses == 3 {
			return true
		}
	}
	return false
}
