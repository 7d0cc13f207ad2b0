package service

import (
	"math/rand"
	"sort"

	"github.com/acadio/acadio-backend/internal/model"
)

// ShuffleFunc returns a permutation of [0, n). The production shuffle is
// rand.Perm; tests inject a fixed permutation.
type ShuffleFunc func(n int) []int

func defaultShuffle(n int) []int {
	return rand.Perm(n)
}

// canonicalQuestions returns the quiz's questions stable-sorted by their
// display order field. Every consumer of a question bank — order generation,
// display rendering, grading — must start from this sequence so that
// positional order mappings line up.
func canonicalQuestions(questions []model.Question) []model.Question {
	sorted := make([]model.Question, len(questions))
	copy(sorted, questions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Order < sorted[j].Order
	})
	return sorted
}

// buildQuestionOrder produces a session's order mapping over n canonical
// questions. With randomization off this is the identity permutation. The
// mapping is generated exactly once, at session creation, and persisted; it
// is never recomputed for the life of the session.
func buildQuestionOrder(n int, randomize bool, shuffle ShuffleFunc) []model.OrderPair {
	order := make([]model.OrderPair, n)
	if randomize {
		for newIdx, origIdx := range shuffle(n) {
			order[newIdx] = model.OrderPair{OriginalIndex: origIdx, NewIndex: newIdx}
		}
		return order
	}
	for i := range order {
		order[i] = model.OrderPair{OriginalIndex: i, NewIndex: i}
	}
	return order
}

// identityOrder is the fallback for legacy sessions persisted without an
// order mapping.
func identityOrder(n int) []model.OrderPair {
	return buildQuestionOrder(n, false, nil)
}
