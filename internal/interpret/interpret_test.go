package interpret

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/tarotgarden/internal/models"
	"github.com/charlesng35/tarotgarden/internal/tarot"
)

func threeCardRequest() Request {
	spread, _ := tarot.LookupSpread(tarot.SpreadThreeCard)
	return Request{
		Spread: spread,
		Theme:  tarot.ThemeLove,
		Cards: []models.DrawnCard{
			{Card: "the_fool"},
			{Card: "the_lovers", Reversed: true},
			{Card: "ace_of_cups", Position: "가까운 미래"},
		},
	}
}

func TestBuildPromptUsesThemeQuestionAndPositions(t *testing.T) {
	prompt := BuildPrompt(threeCardRequest())

	require.Contains(t, prompt.User, "스프레드: 쓰리 카드")
	require.Contains(t, prompt.User, "주제: 연애운")
	require.Contains(t, prompt.User, tarot.QuestionFor(tarot.ThemeLove))
	require.Contains(t, prompt.User, "1. 과거 - 바보 (정방향)")
	require.Contains(t, prompt.User, "2. 현재 - 연인 (역방향)")
	require.Contains(t, prompt.User, "3. 가까운 미래 - ace_of_cups (정방향)")
	require.NotEmpty(t, prompt.System)
}

func TestBuildPromptKeepsCustomQuestion(t *testing.T) {
	req := threeCardRequest()
	req.Question = "  그 사람과 다시 연락이 닿을까요?  "

	prompt := BuildPrompt(req)
	require.Contains(t, prompt.User, "질문: 그 사람과 다시 연락이 닿을까요?\n")
}

func TestInterpretWithMock(t *testing.T) {
	interp, err := New(context.Background(), Config{Provider: "mock"})
	require.NoError(t, err)
	require.Equal(t, "mock", interp.Provider())

	result, err := interp.Interpret(context.Background(), threeCardRequest())
	require.NoError(t, err)
	require.Equal(t, "mock", result.Provider)
	require.Contains(t, result.Text, "과거 자리의 바보 (정방향) 카드")
	require.Contains(t, result.Text, "연인 (역방향)")
}

func TestInterpretPropagatesGeneratorError(t *testing.T) {
	interp, err := NewInterpreter(&MockGenerator{Err: errors.New("quota exhausted")}, time.Second)
	require.NoError(t, err)

	_, err = interp.Interpret(context.Background(), threeCardRequest())
	require.ErrorContains(t, err, "quota exhausted")
}

type blankGenerator struct{}

func (blankGenerator) Name() string { return "blank" }

func (blankGenerator) Generate(context.Context, Prompt) (string, error) { return "  \n", nil }

func TestInterpretRejectsEmptyText(t *testing.T) {
	interp, err := NewInterpreter(blankGenerator{}, 0)
	require.NoError(t, err)

	_, err = interp.Interpret(context.Background(), threeCardRequest())
	require.ErrorIs(t, err, ErrEmptyInterpretation)
}

type slowGenerator struct{}

func (slowGenerator) Name() string { return "slow" }

func (slowGenerator) Generate(ctx context.Context, _ Prompt) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestInterpretAppliesTimeout(t *testing.T) {
	interp, err := NewInterpreter(slowGenerator{}, 10*time.Millisecond)
	require.NoError(t, err)

	_, err = interp.Interpret(context.Background(), threeCardRequest())
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewRejectsUnknownProvider(t *testing.T) {
	_, err := New(context.Background(), Config{Provider: "oracle"})
	require.Error(t, err)

	_, err = New(context.Background(), Config{Provider: "gemini"})
	require.ErrorContains(t, err, "api key is required")
}

func TestNewInterpreterRequiresGenerator(t *testing.T) {
	_, err := NewInterpreter(nil, 0)
	require.Error(t, err)
}
