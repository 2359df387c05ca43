package usage

import (
	"context"
	"fmt"
	"strings"

	"github.com/charlesng35/tarotgarden/internal/tarot"
)

// BuildLimitMessage explains the daily quota. When today's free use is gone it names
// the spread that consumed it and how long until the quota resets.
func (g *Gate) BuildLimitMessage(ctx context.Context) string {
	return g.limitMessage(g.load(ctx))
}

func (g *Gate) limitMessage(rec Record) string {
	if rec.usedOn(g.today()) {
		return fmt.Sprintf(
			"오늘은 이미 %s 스프레드를 사용했어요. %s 후에 다시 이용하거나 프리미엄으로 업그레이드해 무제한으로 이용해 보세요.",
			tarot.SpreadName(rec.UsedSpread),
			g.TimeUntilReset(),
		)
	}

	restricted := tarot.RestrictedSpreads()
	names := make([]string, len(restricted))
	for i, id := range restricted {
		names[i] = tarot.SpreadName(id)
	}
	return fmt.Sprintf(
		"무료 회원은 %s 중 하나를 하루에 한 번 이용할 수 있어요. 프리미엄 회원은 제한 없이 이용할 수 있어요.",
		strings.Join(names, ", "),
	)
}

// Status is a snapshot of the gate for one caller.
type Status struct {
	Premium        bool            `json:"premium"`
	UsedToday      bool            `json:"usedToday"`
	UsedSpread     string          `json:"usedSpread,omitempty"`
	Available      map[string]bool `json:"available"`
	ResetIn        string          `json:"resetIn"`
	ResetInSeconds int64           `json:"resetInSeconds"`
	Message        string          `json:"message"`
}

// Status reads the record once and derives every field from it.
func (g *Gate) Status(ctx context.Context, isPremium bool) Status {
	rec := g.load(ctx)
	used := rec.usedOn(g.today())
	countdown := g.TimeUntilReset()

	st := Status{
		Premium:        isPremium,
		UsedToday:      used,
		Available:      make(map[string]bool),
		ResetIn:        countdown.String(),
		ResetInSeconds: int64(countdown.Duration.Seconds()),
		Message:        g.limitMessage(rec),
	}
	if used {
		st.UsedSpread = rec.UsedSpread
	}
	for _, id := range tarot.RestrictedSpreads() {
		st.Available[id] = isPremium || !used
	}
	return st
}
