package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// QuizPayloadKey returns the cache key for a quiz's student-facing payload
// (display form, no correct answers).
func (r *CacheKeyStruct) QuizPayloadKey(quizID int) string {
	return fmt.Sprintf("quiz:%d:payload", quizID)
}

var CacheKey = NewCacheKeyStruct()
