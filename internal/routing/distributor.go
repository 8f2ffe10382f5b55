package routing

// Candidate is a group member snapshot taken inside the reservation
// transaction. Eligible is false for paused or at-capacity members;
// they are skipped for this round only.
type Candidate struct {
	UserID   string
	Weight   int
	Credits  int
	Eligible bool
}

// NextEqual picks the next member under equal distribution. candidates
// is the ordered active-member list; cursor indexes the next member due.
// Ineligible members are skipped without consuming a cursor slot, so N
// consecutive selections across N eligible members visit each exactly
// once in stable cyclic order. The returned cursor points past the
// chosen member.
func NextEqual(candidates []Candidate, cursor int) (string, int, error) {
	n := len(candidates)
	if n == 0 {
		return "", cursor, ErrNoEligibleMember
	}
	if cursor < 0 || cursor >= n {
		cursor = 0
	}
	for i := 0; i < n; i++ {
		idx := (cursor + i) % n
		if candidates[idx].Eligible {
			return candidates[idx].UserID, (idx + 1) % n, nil
		}
	}
	return "", cursor, ErrNoEligibleMember
}

// NextWeighted picks the next member under weighted distribution via a
// cumulative-credit walk: each member owes Weight selections per round;
// the eligible member with the most remaining credit is chosen and
// decremented, and all credits are replenished by weight once exhausted.
// Selection frequency converges to weight/total-weight. The returned
// slice carries the updated credits to write back.
func NextWeighted(candidates []Candidate) (string, []Candidate, error) {
	out := make([]Candidate, len(candidates))
	copy(out, candidates)

	hasEligible := false
	for _, c := range out {
		if c.Eligible {
			hasEligible = true
			break
		}
	}
	if !hasEligible {
		return "", nil, ErrNoEligibleMember
	}

	best := pickMostCredit(out)
	if best < 0 {
		// Every eligible member's credit is spent; start the next round.
		replenish(out)
		best = pickMostCredit(out)
	}
	if best < 0 {
		return "", nil, ErrNoEligibleMember
	}
	out[best].Credits--
	return out[best].UserID, out, nil
}

func pickMostCredit(candidates []Candidate) int {
	best := -1
	for i, c := range candidates {
		if !c.Eligible || c.Credits <= 0 {
			continue
		}
		if best < 0 || c.Credits > candidates[best].Credits {
			best = i
		}
	}
	return best
}

func replenish(candidates []Candidate) {
	for i := range candidates {
		w := candidates[i].Weight
		if w < 1 {
			w = 1
		}
		candidates[i].Credits += w
	}
}
