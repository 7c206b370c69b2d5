package ai

import (
	"sort"
	"strconv"
	"strings"
)

// applyClassificationDefaults fills any field the model omitted so the
// payload is always schema complete.
func applyClassificationDefaults(p Payload) {
	setDefault(p, "detected_type", "general")
	setDefault(p, "priority", 3)
	setDefault(p, "severity", "medium")
	setDefault(p, "confidence", 0.5)
	setDefault(p, "risk_level", "requires_verification")
	setDefault(p, "keywords", []interface{}{})
	setDefault(p, "estimated_victims", nil)
	setDefault(p, "location_hints", []interface{}{})
	setDefault(p, "resources", []interface{}{})
	setDefault(p, "guidance", []interface{}{})
	setDefault(p, "warning", nil)
	setDefault(p, "notes", nil)
}

// mergeHeuristics folds the keyword assessment into the model result.
// The heuristic never lowers urgency: priority is clamped to the more
// urgent of the two, severity and confidence take the max, keyword and
// resource lists are unioned.
func mergeHeuristics(p Payload, h Heuristics) {
	if t, _ := p["detected_type"].(string); t == "" || t == "general" {
		if h.DetectedType != "" {
			p["detected_type"] = h.DetectedType
		}
	}

	p["priority"] = normalizePriority(p["priority"], h.Priority)
	p["severity"] = normalizeSeverity(p["severity"], h.Severity)

	conf := clampFloat(toFloat(p["confidence"], 0.5), 0.5)
	if h.ConfidenceBoost > conf {
		conf = h.ConfidenceBoost
	}
	p["confidence"] = conf

	if h.RiskLevel != "" {
		p["risk_level"] = h.RiskLevel
	} else if _, ok := p["risk_level"].(string); !ok {
		p["risk_level"] = "requires_verification"
	}

	p["keywords"] = unionStrings(p["keywords"], h.Keywords)
	p["resources"] = unionStrings(p["resources"], h.Resources)
	p["heuristics"] = Payload{
		"detected_type":    h.DetectedType,
		"priority":         h.Priority,
		"severity":         h.Severity,
		"risk_level":       h.RiskLevel,
		"keywords":         h.Keywords,
		"resources":        h.Resources,
		"confidence_boost": h.ConfidenceBoost,
	}
}

// normalizePriority clamps to 1..5 and takes the more urgent (lower)
// of the model and heuristic values.
func normalizePriority(model interface{}, heuristic int) int {
	fallback := heuristic
	if fallback == 0 {
		fallback = 3
	}
	value := int(toFloat(model, float64(fallback)))
	if value < 1 || value > 5 {
		value = fallback
	}
	if heuristic > 0 && heuristic < value {
		value = heuristic
	}
	if value < 1 {
		value = 1
	}
	if value > 5 {
		value = 5
	}
	return value
}

// normalizeSeverity validates the model severity and escalates to the
// heuristic one when it ranks higher.
func normalizeSeverity(model interface{}, heuristic string) string {
	severity := ""
	if s, ok := model.(string); ok {
		severity = strings.ToLower(strings.TrimSpace(s))
	}
	if _, ok := severityOrder[severity]; !ok {
		severity = heuristic
		if severity == "" {
			severity = "medium"
		}
	}
	if heuristic != "" && severityOrder[heuristic] > severityOrder[severity] {
		severity = heuristic
	}
	return severity
}

func classificationFallback(err error) Payload {
	return Payload{
		"detected_type":     "general",
		"priority":          3,
		"severity":          "medium",
		"confidence":        0.0,
		"risk_level":        "unknown",
		"keywords":          []interface{}{},
		"estimated_victims": nil,
		"location_hints":    []interface{}{},
		"resources":         []interface{}{},
		"guidance":          []interface{}{},
		"warning":           "Не удалось получить анализ от AI-сервиса",
		"error":             err.Error(),
	}
}

func rescuePlanFallback(err error, resources []string) Payload {
	res := make([]interface{}, 0, len(resources))
	for _, r := range resources {
		res = append(res, r)
	}
	return Payload{
		"operation_name": "Стандартная спасательная операция",
		"phases": []interface{}{
			Payload{
				"phase_number":       1,
				"phase_name":         "Оценка ситуации",
				"duration_estimate":  "15 минут",
				"actions":            []interface{}{"Прибыть на место", "Оценить обстановку"},
				"required_personnel": []interface{}{"Руководитель группы"},
				"equipment_needed":   []interface{}{"Средства связи"},
			},
		},
		"team_composition": Payload{
			"team_leader": "Старший спасатель",
			"members":     []interface{}{"Спасатель 1", "Спасатель 2"},
			"specialists": []interface{}{},
		},
		"safety_measures":    []interface{}{"Использовать СИЗ"},
		"communication_plan": "Радиосвязь",
		"evacuation_routes":  []interface{}{"Основной маршрут"},
		"medical_support":    "Базовая первая помощь",
		"contingency_plans":  []interface{}{"Вызвать подкрепление"},
		"estimated_duration": "1-2 часа",
		"success_criteria":   []interface{}{"Все пострадавшие в безопасности"},
		"risks":              []interface{}{"Изменение погоды", "Недостаток ресурсов"},
		"guidance":           []interface{}{},
		"resources":          res,
		"priority":           3,
		"risk_level":         "unknown",
		"error":              err.Error(),
	}
}

func applyPlanDefaults(p Payload, resources []string) {
	setDefault(p, "operation_name", "План спасательной операции")
	setDefault(p, "phases", []interface{}{})
	setDefault(p, "team_composition", Payload{})
	setDefault(p, "safety_measures", []interface{}{})
	setDefault(p, "communication_plan", "")
	setDefault(p, "evacuation_routes", []interface{}{})
	setDefault(p, "medical_support", "")
	setDefault(p, "contingency_plans", []interface{}{})
	setDefault(p, "estimated_duration", "")
	setDefault(p, "success_criteria", []interface{}{})
	setDefault(p, "risks", []interface{}{})
	setDefault(p, "guidance", []interface{}{})
	setDefault(p, "priority", 3)
	setDefault(p, "risk_level", "medium")
	if _, ok := p["resources"]; !ok {
		res := make([]interface{}, 0, len(resources))
		for _, r := range resources {
			res = append(res, r)
		}
		p["resources"] = res
	}
}

func setDefault(p Payload, key string, value interface{}) {
	if _, ok := p[key]; !ok {
		p[key] = value
	}
}

func toFloat(v interface{}, def float64) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return def
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
		return def
	default:
		return def
	}
}

// unionStrings merges a JSON-decoded list with heuristic strings into a
// sorted, de-duplicated slice.
func unionStrings(existing interface{}, extra []string) []string {
	set := map[string]bool{}
	if list, ok := existing.([]interface{}); ok {
		for _, item := range list {
			if s, ok := item.(string); ok {
				if s = strings.TrimSpace(s); s != "" {
					set[s] = true
				}
			}
		}
	}
	if list, ok := existing.([]string); ok {
		for _, s := range list {
			if s = strings.TrimSpace(s); s != "" {
				set[s] = true
			}
		}
	}
	for _, s := range extra {
		if s = strings.TrimSpace(s); s != "" {
			set[s] = true
		}
	}
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
