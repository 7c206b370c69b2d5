package ai

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"RescueHub/pkg/cache"
	"RescueHub/pkg/logger"
)

// Payload is the schema-complete result returned to callers. Failures
// are folded into the payload under an "error" key; the service never
// returns an error for analysis operations.
type Payload = map[string]interface{}

const classifyCacheTTL = 10 * time.Minute

const classifySystemPrompt = "Ты аналитик спасательных служб. На основе описания классифицируй тип ЧС, приоритет, риски и дай рекомендации. " +
	"Верни СТРОГО JSON со следующими полями: detected_type (fire|medical|police|water_rescue|mountain_rescue|search_rescue|ecological|general), " +
	"priority (1-5), severity (low|medium|high|critical), confidence (0-1), risk_level (string), keywords (array of strings), " +
	"estimated_victims (integer или null), location_hints (array), resources (array), guidance (array), warning (string или null), notes (string или null)."

const planSystemPrompt = "Ты координатор спасательных операций. Создай детальный план действий. " +
	"Верни СТРОГО JSON с полями: operation_name (string), phases (array of objects с полями phase_number, phase_name, duration_estimate, actions (array), " +
	"required_personnel (array), equipment_needed (array)), team_composition (object с полями team_leader, members, specialists), safety_measures (array), " +
	"communication_plan (string), evacuation_routes (array), medical_support (string), contingency_plans (array), estimated_duration (string), " +
	"success_criteria (array), risks (array), guidance (array), resources (array), priority (1-5), risk_level (string)."

const reportSystemPrompt = "Ты - аналитик спасательных операций. Проанализируй отчет о ЧС и извлеки ключевую информацию. " +
	"Ответь в JSON с полями: summary (string), key_points (array), current_status (string), challenges (array), progress (string), " +
	"next_steps (array), sentiment (positive/neutral/negative/critical), urgency_level (1-5)."

const imageDescriptionPrompt = "Опиши, что изображено на фотографии с места происшествия: тип чрезвычайной ситуации, " +
	"видимые угрозы, пострадавшие, масштаб. Отвечай кратко на русском языке."

// Service glues a completion provider, the keyword heuristic and the
// result cache into the analysis operations the handlers expose.
type Service struct {
	provider    Provider
	transcriber Transcriber
	vision      VisionAnalyzer
	cache       cache.Cache
}

func NewService(provider Provider, c cache.Cache) *Service {
	s := &Service{provider: provider, cache: c}
	if t, ok := provider.(Transcriber); ok {
		s.transcriber = t
	}
	if v, ok := provider.(VisionAnalyzer); ok {
		s.vision = v
	}
	return s
}

// ProviderName reports the configured backend.
func (s *Service) ProviderName() string {
	if s.provider == nil {
		return "none"
	}
	return s.provider.Name()
}

// ClassifyEmergency classifies free text. The model result is merged
// with the keyword heuristic, which may only raise urgency. Any failure
// yields the fallback payload instead of an error.
func (s *Service) ClassifyEmergency(ctx context.Context, text string) Payload {
	key := "ai:classify:" + hashText(text)
	if s.cache != nil {
		if data, ok := s.cache.Get(ctx, key); ok {
			var cached Payload
			if err := json.Unmarshal(data, &cached); err == nil {
				return cached
			}
		}
	}

	heur := AnalyzeText(text)
	result, err := s.completeJSON(ctx, classifySystemPrompt, "Описание ЧС: "+text, 0.2)
	if err != nil {
		logger.Warnf("classification via %s failed: %v", s.ProviderName(), err)
		result = classificationFallback(err)
		mergeHeuristics(result, heur)
		return result
	}

	applyClassificationDefaults(result)
	mergeHeuristics(result, heur)
	result["generated_at"] = time.Now().UTC().Format(time.RFC3339)
	result["provider"] = s.ProviderName()

	if s.cache != nil {
		if data, err := json.Marshal(result); err == nil {
			_ = s.cache.Set(ctx, key, data, classifyCacheTTL)
		}
	}
	return result
}

// GenerateRescuePlan drafts a multi-phase operation plan. Missing
// fields are filled with placeholders; failures return the standard
// fallback plan with the error embedded.
func (s *Service) GenerateRescuePlan(ctx context.Context, emergencyType, description, location string, resources []string) Payload {
	resourcesStr := "стандартные ресурсы"
	if len(resources) > 0 {
		resourcesStr = strings.Join(resources, ", ")
	}
	if location == "" {
		location = "не указано"
	}
	userPrompt := fmt.Sprintf(
		"Тип ЧС: %s\nОписание: %s\nМестоположение: %s\nДоступные ресурсы: %s",
		emergencyType, description, location, resourcesStr,
	)

	result, err := s.completeJSON(ctx, planSystemPrompt, userPrompt, 0.25)
	if err != nil {
		logger.Warnf("rescue plan via %s failed: %v", s.ProviderName(), err)
		result = rescuePlanFallback(err, resources)
		return result
	}

	applyPlanDefaults(result, resources)
	result["generated_at"] = time.Now().UTC().Format(time.RFC3339)
	result["provider"] = s.ProviderName()
	return result
}

// AnalyzeSituationReport summarizes a free-text progress report.
func (s *Service) AnalyzeSituationReport(ctx context.Context, report string) Payload {
	result, err := s.completeJSON(ctx, reportSystemPrompt, report, 0.2)
	if err != nil {
		logger.Warnf("situation report via %s failed: %v", s.ProviderName(), err)
		return Payload{
			"summary":        "Ошибка анализа",
			"key_points":     []interface{}{},
			"current_status": "Не определен",
			"challenges":     []interface{}{},
			"progress":       "Не определен",
			"next_steps":     []interface{}{},
			"sentiment":      "neutral",
			"urgency_level":  3,
			"error":          err.Error(),
		}
	}
	result["provider"] = s.ProviderName()
	return result
}

// Transcribe converts audio into text. Unlike the analysis operations
// this returns an error, because there is nothing useful to fall back
// to without a transcript.
func (s *Service) Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error) {
	if s.transcriber == nil {
		return "", fmt.Errorf("provider %s does not support transcription", s.ProviderName())
	}
	return s.transcriber.Transcribe(ctx, filename, audio)
}

// AnalyzeVoice transcribes the audio and classifies the transcript.
func (s *Service) AnalyzeVoice(ctx context.Context, filename string, audio io.Reader) (string, Payload, error) {
	transcript, err := s.Transcribe(ctx, filename, audio)
	if err != nil {
		return "", nil, err
	}
	return transcript, s.ClassifyEmergency(ctx, transcript), nil
}

// AnalyzeImage describes the image and classifies the description.
// Vision failures fall back to classifying the caller-supplied context.
func (s *Service) AnalyzeImage(ctx context.Context, imageDataURL, contextText string) Payload {
	description := contextText
	if s.vision != nil {
		if desc, err := s.vision.DescribeImage(ctx, imageDescriptionPrompt, imageDataURL); err == nil {
			description = desc
			if contextText != "" {
				description = contextText + ". " + desc
			}
		} else {
			logger.Warnf("image description via %s failed: %v", s.ProviderName(), err)
		}
	}
	if description == "" {
		description = "фотография с места происшествия без описания"
	}
	result := s.ClassifyEmergency(ctx, description)
	result["image_description"] = description
	return result
}

// Ping verifies the provider answers at all.
func (s *Service) Ping(ctx context.Context) error {
	if s.provider == nil {
		return fmt.Errorf("no provider configured")
	}
	_, err := s.provider.Complete(ctx, []Message{
		{Role: RoleUser, Content: "Ответь строго JSON: {\"status\": \"ok\"}"},
	}, 0)
	return err
}

// completeJSON runs a completion and parses the assistant message as a
// JSON object, tolerating markdown code fences around it.
func (s *Service) completeJSON(ctx context.Context, system, user string, temperature float32) (Payload, error) {
	if s.provider == nil {
		return nil, fmt.Errorf("no provider configured")
	}
	content, err := s.provider.Complete(ctx, []Message{
		{Role: RoleSystem, Content: system},
		{Role: RoleUser, Content: user},
	}, temperature)
	if err != nil {
		return nil, err
	}

	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var result Payload
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &result); err != nil {
		return nil, fmt.Errorf("parse model response: %w", err)
	}
	return result, nil
}

func hashText(text string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(strings.ToLower(text))))
	return hex.EncodeToString(sum[:])
}
