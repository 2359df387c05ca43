package interpret

import (
	"context"
	"fmt"
	"strings"
)

// MockGenerator returns canned text built from the drawn cards. It is used in
// development and tests where no API key is available.
type MockGenerator struct {
	// Err, when set, is returned instead of text.
	Err error
}

func (m *MockGenerator) Name() string { return "mock" }

func (m *MockGenerator) Generate(ctx context.Context, prompt Prompt) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if m.Err != nil {
		return "", m.Err
	}

	req := prompt.Request
	var b strings.Builder
	for idx, card := range req.Cards {
		fmt.Fprintf(&b, "%s 자리의 %s 카드는 지금의 흐름을 비춰 줍니다.\n", positionName(req, idx), describeCard(card))
	}
	b.WriteString("전체적으로 스스로를 믿고 한 걸음씩 나아가라는 메시지입니다.")
	return b.String(), nil
}
