package tarot

// majorArcana maps card ids to their Korean names.
var majorArcana = map[string]string{
	"the_fool":           "바보",
	"the_magician":       "마법사",
	"the_high_priestess": "여사제",
	"the_empress":        "여황제",
	"the_emperor":        "황제",
	"the_hierophant":     "교황",
	"the_lovers":         "연인",
	"the_chariot":        "전차",
	"strength":           "힘",
	"the_hermit":         "은둔자",
	"wheel_of_fortune":   "운명의 수레바퀴",
	"justice":            "정의",
	"the_hanged_man":     "매달린 사람",
	"death":              "죽음",
	"temperance":         "절제",
	"the_devil":          "악마",
	"the_tower":          "탑",
	"the_star":           "별",
	"the_moon":           "달",
	"the_sun":            "태양",
	"judgement":          "심판",
	"the_world":          "세계",
}

// CardName returns the Korean name of a major arcana card, or id for any other card.
func CardName(id string) string {
	if name, ok := majorArcana[id]; ok {
		return name
	}
	return id
}

var (
	suits = []string{"wands", "cups", "swords", "pentacles"}
	ranks = []string{"ace", "two", "three", "four", "five", "six", "seven", "eight", "nine", "ten", "page", "knight", "queen", "king"}
)

// deck holds every card id: the major arcana plus <rank>_of_<suit> minor arcana.
var deck = func() map[string]struct{} {
	ids := make(map[string]struct{}, len(majorArcana)+len(suits)*len(ranks))
	for id := range majorArcana {
		ids[id] = struct{}{}
	}
	for _, suit := range suits {
		for _, rank := range ranks {
			ids[rank+"_of_"+suit] = struct{}{}
		}
	}
	return ids
}()

// IsCard reports whether id names one of the 78 cards.
func IsCard(id string) bool {
	_, ok := deck[id]
	return ok
}

// IsMajorArcana reports whether id names one of the 22 major arcana.
func IsMajorArcana(id string) bool {
	_, ok := majorArcana[id]
	return ok
}
