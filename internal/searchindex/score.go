package searchindex

// Score returns the relevance of v for q in tenths:
//
//	score = sum over positive lexemes l of q, sum over positions p of l in v, w(p)
//
// with w(A)=1.0, w(B)=0.4, w(C)=0.2, w(D)=0.1. Negated terms never add to
// the score. Integer tenths keep equal scores exactly equal, so ordering by
// score and then id is a total order.
func Score(v Vector, q *Query) int {
	total := 0
	for _, lex := range q.PositiveLexemes() {
		for _, p := range v[lex] {
			total += p.Weight.tenths()
		}
	}
	return total
}

// WeightTenths exposes the per-weight contributions for stores that compute
// the score themselves.
func WeightTenths() map[Weight]int {
	return map[Weight]int{WeightA: 10, WeightB: 4, WeightC: 2, WeightD: 1}
}
