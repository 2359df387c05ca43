// Package interpret turns a drawn spread into a written reading through a text generator.
package interpret

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/charlesng35/tarotgarden/internal/models"
	"github.com/charlesng35/tarotgarden/internal/tarot"
	"github.com/charlesng35/tarotgarden/pkg/logger"
	"github.com/charlesng35/tarotgarden/pkg/metrics"
)

// Generator produces interpretation text for a prompt.
type Generator interface {
	Name() string
	Generate(ctx context.Context, prompt Prompt) (string, error)
}

// Prompt is the instruction pair sent to a generator, with the request it was built from.
type Prompt struct {
	System  string
	User    string
	Request Request
}

// Request describes one reading to interpret.
type Request struct {
	Spread   tarot.Spread
	Theme    string
	Question string
	Cards    []models.DrawnCard
}

// Result is a generated interpretation.
type Result struct {
	Text     string `json:"text"`
	Provider string `json:"provider"`
}

// ErrEmptyInterpretation is returned when a generator answers with no text.
var ErrEmptyInterpretation = errors.New("interpret: generator returned no text")

const systemPrompt = "당신은 따뜻하고 신중한 타로 리더입니다. 카드의 상징을 바탕으로 질문자에게 구체적이고 희망적인 조언을 한국어로 전해 주세요. 의료, 법률, 투자에 대한 확정적인 판단은 피하세요."

// Interpreter builds prompts and calls a Generator with a deadline.
type Interpreter struct {
	gen     Generator
	timeout time.Duration
	log     *zap.Logger
}

// NewInterpreter wraps gen. A zero timeout means 30 seconds.
func NewInterpreter(gen Generator, timeout time.Duration) (*Interpreter, error) {
	if gen == nil {
		return nil, errors.New("interpret: generator is required")
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Interpreter{gen: gen, timeout: timeout, log: logger.WithModule("interpret")}, nil
}

// Provider names the generator in use.
func (i *Interpreter) Provider() string { return i.gen.Name() }

// Interpret generates the reading text for req.
func (i *Interpreter) Interpret(ctx context.Context, req Request) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	start := time.Now()
	text, err := i.gen.Generate(ctx, BuildPrompt(req))
	if err == nil && strings.TrimSpace(text) == "" {
		err = ErrEmptyInterpretation
	}
	if err != nil {
		metrics.Interpretations.WithLabelValues(i.gen.Name(), "error").Inc()
		i.log.Error("interpretation failed",
			zap.String("provider", i.gen.Name()),
			zap.String("spread", req.Spread.ID),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return Result{}, fmt.Errorf("interpret: %w", err)
	}

	metrics.Interpretations.WithLabelValues(i.gen.Name(), "success").Inc()
	return Result{Text: strings.TrimSpace(text), Provider: i.gen.Name()}, nil
}

// BuildPrompt renders the reading as a numbered card list under the question.
func BuildPrompt(req Request) Prompt {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		question = tarot.QuestionFor(req.Theme)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "스프레드: %s\n", tarot.SpreadName(req.Spread.ID))
	if theme, ok := tarot.LookupTheme(req.Theme); ok {
		fmt.Fprintf(&b, "주제: %s\n", theme.Name)
	}
	fmt.Fprintf(&b, "질문: %s\n\n", question)
	b.WriteString("뽑은 카드:\n")
	for idx, card := range req.Cards {
		fmt.Fprintf(&b, "%d. %s - %s", idx+1, positionName(req, idx), describeCard(card))
		b.WriteByte('\n')
	}
	b.WriteString("\n각 카드의 의미를 위치와 함께 풀이하고, 마지막에 전체 메시지를 한 문단으로 정리해 주세요.")

	return Prompt{System: systemPrompt, User: b.String(), Request: req}
}

func positionName(req Request, idx int) string {
	if p := strings.TrimSpace(req.Cards[idx].Position); p != "" {
		return p
	}
	if idx < len(req.Spread.Positions) {
		return req.Spread.Positions[idx]
	}
	return fmt.Sprintf("%d번째 카드", idx+1)
}

func describeCard(card models.DrawnCard) string {
	name := tarot.CardName(card.Card)
	if card.Reversed {
		return name + " (역방향)"
	}
	return name + " (정방향)"
}
