package game

// Evaluate scores guess against solution with the two-pass algorithm.
//
// Pass 1:
//   - Count every solution letter.
//   - Mark exact matches Correct and consume one count each.
//
// Pass 2:
//   - For each remaining position: if the letter still has a count left,
//     mark Present and consume it; otherwise mark Absent.
//
// Exact matches must be consumed first, otherwise an early Present could
// use up a letter that a later position needs for Correct.
// Both words are expected to be upper-case A–Z of equal length.
func Evaluate(guess, solution string) Evaluation {
	n := len(guess)
	res := make(Evaluation, n)
	if len(solution) != n {
		for i := range res {
			res[i] = Absent
		}
		return res
	}

	var counts [26]int
	for i := 0; i < n; i++ {
		if j := idx(solution[i]); j >= 0 {
			counts[j]++
		}
	}

	for i := 0; i < n; i++ {
		if guess[i] == solution[i] && idx(guess[i]) >= 0 {
			res[i] = Correct
			counts[idx(guess[i])]--
		}
	}

	for i := 0; i < n; i++ {
		if res[i] == Correct {
			continue
		}
		j := idx(guess[i])
		if j >= 0 && counts[j] > 0 {
			res[i] = Present
			counts[j]--
		} else {
			res[i] = Absent
		}
	}
	return res
}

// idx maps an upper-case ASCII letter to 0..25, or -1.
func idx(b byte) int {
	if b < 'A' || b > 'Z' {
		return -1
	}
	return int(b - 'A')
}
