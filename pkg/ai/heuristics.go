package ai

import (
	"sort"
	"strings"
)

// Heuristics is the keyword-based assessment computed locally. It runs
// alongside the model call and is allowed to raise urgency but never to
// lower it.
type Heuristics struct {
	DetectedType    string
	Priority        int
	Severity        string
	RiskLevel       string
	Keywords        []string
	Resources       []string
	ConfidenceBoost float64
}

// Keyword lists are bilingual: Russian dispatch text dominates, English
// markers cover mixed input. Substring matching deliberately uses word
// stems ("кровотеч", "воспламен") to catch inflected forms.
var typeKeywords = map[string][]string{
	"fire": {
		"пожар", "горит", "огонь", "пламя", "дым", "воспламен",
		"fire", "flame", "burn", "smoke",
	},
	"medical": {
		"сердце", "инфаркт", "инсульт", "без сознания", "не дышит",
		"кровотеч", "рана", "перелом", "ожог", "судорога",
		"heart", "stroke", "bleed", "unconscious", "breath",
	},
	"police": {
		"оруж", "драка", "напал", "угроза", "разбой", "ограб",
		"knife", "gun", "violence", "fight",
	},
	"water_rescue": {
		"тонет", "утону", "река", "озеро", "вода", "плот", "лодк",
		"drown", "river", "lake", "water",
	},
	"mountain_rescue": {
		"гора", "склон", "скала", "альп", "лавин", "обрыв",
		"mount", "climb", "rockfall",
	},
	"search_rescue": {
		"пропал", "пропала", "исчез", "не выходит на связь", "поиск",
		"lost", "search", "missing",
	},
	"ecological": {
		"химичес", "утечк", "газ", "радии", "разлив", "токс",
		"chemical", "hazmat", "spill", "radiation",
	},
}

var criticalMarkers = []string{
	"массов", "несколько человек", "много людей", "дети", "ребенок",
	"берем", "не дышит", "остановилось сердце", "massive bleeding",
	"explosion", "обруш", "завалило", "chemical burn",
}

var highMarkers = []string{
	"сильное кровотеч", "ножев", "огнестр", "оруж", "перелом",
	"потерял сознание", "жечь", "удар током", "пожар", "пламя", "gas leak",
}

var lowMarkers = []string{
	"легкая", "небольш", "царап", "ушиб", "без травм", "контроль",
	"столкновение без пострадавших", "minor", "stabilized",
}

var reassuranceMarkers = []string{
	"учения", "тренировка", "ложная тревога", "false alarm", "проверка",
}

var resourcesByType = map[string][]string{
	"fire":            {"Пожарный расчёт", "Автоцистерна", "Пеногенератор"},
	"medical":         {"Бригада СМП", "Реанимационная бригада", "Аптечка расширенная"},
	"police":          {"Наряд полиции", "Группа быстрого реагирования"},
	"water_rescue":    {"Водолазы", "Катер МЧС", "Спасательные круги"},
	"mountain_rescue": {"Горная поисковая группа", "Альпинистское снаряжение"},
	"search_rescue":   {"Поисково-спасательный отряд", "Квадрокоптер", "Кинологи"},
	"ecological":      {"Химическая лаборатория", "Защитные костюмы", "Дезактивация"},
}

var severityToRisk = map[string]string{
	"critical": "life_threatening",
	"high":     "high_risk",
	"medium":   "requires_coordination",
	"low":      "monitoring",
}

var severityOrder = map[string]int{"low": 0, "medium": 1, "high": 2, "critical": 3}

// AnalyzeText runs the keyword heuristic over free text.
func AnalyzeText(description string) Heuristics {
	text := strings.ToLower(description)
	found := map[string]bool{}

	scores := map[string]int{}
	for emergencyType, keywords := range typeKeywords {
		for _, kw := range keywords {
			if strings.Contains(text, kw) {
				scores[emergencyType]++
				found[kw] = true
			}
		}
	}

	detected := "general"
	best := 0
	types := make([]string, 0, len(scores))
	for t := range scores {
		types = append(types, t)
	}
	sort.Strings(types) // deterministic tie break
	for _, t := range types {
		if scores[t] > best {
			best = scores[t]
			detected = t
		}
	}

	priority := 3
	severity := "medium"
	boost := 0.35
	if len(scores) > 0 {
		boost = 0.45
	}

	switch {
	case containsAny(text, criticalMarkers):
		severity = "critical"
		priority = 1
		boost = maxFloat(boost, 0.9)
	case containsAny(text, highMarkers):
		severity = "high"
		priority = 2
		boost = maxFloat(boost, 0.75)
	case containsAny(text, lowMarkers):
		severity = "low"
		priority = 4
		boost = maxFloat(boost, 0.55)
	}

	if severity != "critical" && containsAny(text, reassuranceMarkers) {
		severity = "low"
		priority = 5
		boost = maxFloat(boost, 0.5)
	}

	if strings.Contains(text, "эвакуац") || strings.Contains(text, "evacu") {
		found["эвакуация"] = true
		if priority > 2 {
			priority = 2
		}
	}
	if strings.Contains(text, "взрыв") || strings.Contains(text, "explosion") {
		found["взрыв"] = true
		severity = "critical"
		priority = 1
		boost = maxFloat(boost, 0.9)
	}

	keywords := make([]string, 0, len(found))
	for kw := range found {
		keywords = append(keywords, kw)
	}
	sort.Strings(keywords)

	risk := severityToRisk[severity]
	if risk == "" {
		risk = "requires_verification"
	}

	return Heuristics{
		DetectedType:    detected,
		Priority:        priority,
		Severity:        severity,
		RiskLevel:       risk,
		Keywords:        keywords,
		Resources:       resourcesByType[detected],
		ConfidenceBoost: clampFloat(boost, 0.5),
	}
}

func containsAny(text string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func clampFloat(v, def float64) float64 {
	if v != v { // NaN
		return def
	}
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
