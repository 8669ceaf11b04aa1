package quiz

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestPGStoreRejectsNonUUIDQuestionID(t *testing.T) {
	store := NewPGStore(nil, nil, nil)

	err := store.AppendUserAnswer(context.Background(), UserAnswer{
		UserID:     uuid.New(),
		QuestionID: "not-a-uuid",
	})
	assert.ErrorContains(t, err, "parse question id")
}
