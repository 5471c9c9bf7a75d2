package scoring

// Correctness is the grading state of one response: nil means not graded yet.
type Correctness *bool

// Result is the recomputed aggregate for an attempt.
type Result struct {
	Score        float64 `json:"score"`
	Tier         Tier    `json:"tier"`
	CorrectCount int     `json:"correctCount"`
	TotalGraded  int     `json:"totalGraded"`
	PendingCount int     `json:"pendingCount"`
}

// Aggregate recomputes the score from every response of an attempt. Only graded
// responses count towards the denominator; with nothing graded the score is 0.
func Aggregate(responses []Correctness) Result {
	var res Result
	for _, r := range responses {
		if r == nil {
			res.PendingCount++
			continue
		}
		res.TotalGraded++
		if *r {
			res.CorrectCount++
		}
	}
	if res.TotalGraded > 0 {
		res.Score = Round2(float64(res.CorrectCount) / float64(res.TotalGraded) * 100)
	}
	res.Tier = Classify(res.Score)
	return res
}
