package tarot

import "sort"

// Theme identifiers.
const (
	ThemeGeneral      = "general"
	ThemeLove         = "love"
	ThemeCareer       = "career"
	ThemeMoney        = "money"
	ThemeHealth       = "health"
	ThemeRelationship = "relationship"
)

// Theme pairs a reading theme with the question asked when the user does not write one.
type Theme struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Question string `json:"question"`
}

var themes = map[string]Theme{
	ThemeGeneral:      {ID: ThemeGeneral, Name: "종합운", Question: "지금 나에게 필요한 메시지는 무엇인가요?"},
	ThemeLove:         {ID: ThemeLove, Name: "연애운", Question: "나의 연애운은 어떻게 흘러가고 있나요?"},
	ThemeCareer:       {ID: ThemeCareer, Name: "직업운", Question: "나의 일과 커리어는 어떤 방향으로 가고 있나요?"},
	ThemeMoney:        {ID: ThemeMoney, Name: "금전운", Question: "앞으로의 금전 흐름은 어떨까요?"},
	ThemeHealth:       {ID: ThemeHealth, Name: "건강운", Question: "몸과 마음의 건강을 위해 무엇을 살펴야 할까요?"},
	ThemeRelationship: {ID: ThemeRelationship, Name: "인간관계", Question: "주변 사람들과의 관계는 어떻게 변해 갈까요?"},
}

// LookupTheme returns the theme registered under id.
func LookupTheme(id string) (Theme, bool) {
	t, ok := themes[id]
	return t, ok
}

// QuestionFor returns the default question for a theme, falling back to the general question.
func QuestionFor(id string) string {
	if t, ok := themes[id]; ok {
		return t.Question
	}
	return themes[ThemeGeneral].Question
}

// Themes returns every theme ordered by id.
func Themes() []Theme {
	out := make([]Theme, 0, len(themes))
	for _, t := range themes {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
