// Package tarot holds the static tables the app is built around: the spread
// catalog, the premium spread set and the default question for each theme.
package tarot

import "sort"

// Spread identifiers offered by the app.
const (
	SpreadOneCard           = "one_card"
	SpreadThreeCard         = "three_card"
	SpreadCelticCross       = "celtic_cross"
	SpreadSevenStar         = "seven_star"
	SpreadCupOfRelationship = "cup_of_relationship"
)

// Spread describes a card layout.
type Spread struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	CardCount  int      `json:"card_count"`
	Restricted bool     `json:"restricted"`
	Positions  []string `json:"positions"`
}

var spreads = map[string]Spread{
	SpreadOneCard: {
		ID:        SpreadOneCard,
		Name:      "원 카드",
		CardCount: 1,
		Positions: []string{"오늘의 메시지"},
	},
	SpreadThreeCard: {
		ID:        SpreadThreeCard,
		Name:      "쓰리 카드",
		CardCount: 3,
		Positions: []string{"과거", "현재", "미래"},
	},
	SpreadCelticCross: {
		ID:         SpreadCelticCross,
		Name:       "켈틱 크로스",
		CardCount:  10,
		Restricted: true,
		Positions: []string{
			"현재 상황", "장애물", "의식", "무의식", "과거",
			"가까운 미래", "나 자신", "주변 환경", "희망과 두려움", "결과",
		},
	},
	SpreadSevenStar: {
		ID:         SpreadSevenStar,
		Name:       "세븐스타",
		CardCount:  7,
		Restricted: true,
		Positions:  []string{"과거", "현재", "미래", "조언", "주변", "희망", "결과"},
	},
	SpreadCupOfRelationship: {
		ID:         SpreadCupOfRelationship,
		Name:       "컵 오브 릴레이션쉽",
		CardCount:  11,
		Restricted: true,
		Positions: []string{
			"나", "상대", "관계의 기반", "나의 과거", "상대의 과거", "현재 관계",
			"나의 마음", "상대의 마음", "장애물", "조언", "관계의 미래",
		},
	},
}

// restrictedOrder fixes the order premium spreads are listed in messages.
var restrictedOrder = []string{SpreadCelticCross, SpreadSevenStar, SpreadCupOfRelationship}

// LookupSpread returns the spread registered under id.
func LookupSpread(id string) (Spread, bool) {
	s, ok := spreads[id]
	return s, ok
}

// SpreadName returns the display name for id, or id itself when it is not in the catalog.
func SpreadName(id string) string {
	if s, ok := spreads[id]; ok {
		return s.Name
	}
	return id
}

// IsRestricted reports whether id is one of the premium spreads.
func IsRestricted(id string) bool {
	s, ok := spreads[id]
	return ok && s.Restricted
}

// RestrictedSpreads returns the premium spread ids in display order.
func RestrictedSpreads() []string {
	out := make([]string, len(restrictedOrder))
	copy(out, restrictedOrder)
	return out
}

// Spreads returns the full catalog ordered by card count, then id.
func Spreads() []Spread {
	out := make([]Spread, 0, len(spreads))
	for _, s := range spreads {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CardCount != out[j].CardCount {
			return out[i].CardCount < out[j].CardCount
		}
		return out[i].ID < out[j].ID
	})
	return out
}
