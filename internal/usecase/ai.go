package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rfbooking/rfbooking/internal/ai"
	"github.com/rfbooking/rfbooking/internal/domain"
	"github.com/rfbooking/rfbooking/internal/repository"
)

const (
	maxRecommendations = 5
	maxAvailableSlots  = 5
	availabilityDays   = 14
	fallbackConfidence = 50
)

type AIConfig struct {
	Enabled            bool
	MaxRequestsPer5Min int
}

// chatClient is the LLM surface Analyze needs; satisfied by ai.Client.
type chatClient interface {
	Chat(ctx context.Context, messages []ai.ChatMessage) (*ai.ChatResult, error)
	Model() string
}

type AIUsecase struct {
	repo      repository.AIRepository
	equipment repository.EquipmentRepository
	types     repository.EquipmentTypeRepository
	bookings  repository.BookingRepository
	client    chatClient
	cfg       AIConfig
	logger    *slog.Logger
	now       func() time.Time
}

func NewAIUsecase(
	repo repository.AIRepository,
	equipment repository.EquipmentRepository,
	types repository.EquipmentTypeRepository,
	bookings repository.BookingRepository,
	client chatClient,
	cfg AIConfig,
	logger *slog.Logger,
) *AIUsecase {
	return &AIUsecase{
		repo:      repo,
		equipment: equipment,
		types:     types,
		bookings:  bookings,
		client:    client,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

type AnalyzeInput struct {
	Prompt    string
	StartDate *time.Time
	EndDate   *time.Time
	StartTime string
	EndTime   string
}

// Analyze runs the two-stage matching pipeline: deterministic spec
// extraction narrows the candidate list, then the language model ranks it.
// Every recommendation is annotated with availability for the requested
// range.
func (u *AIUsecase) Analyze(ctx context.Context, actor *domain.User, input AnalyzeInput) ([]domain.Recommendation, error) {
	if !u.cfg.Enabled {
		return nil, domain.ErrAIDisabled
	}

	count, err := u.repo.CountUserQueriesSince(ctx, actor.ID, u.now().Add(-5*time.Minute))
	if err != nil {
		return nil, fmt.Errorf("count recent queries: %w", err)
	}
	if count >= u.cfg.MaxRequestsPer5Min {
		return nil, domain.ErrAIRateLimited
	}

	candidates, err := u.candidateEquipment(ctx, actor, input.Prompt)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return []domain.Recommendation{}, nil
	}

	recs, result, chatErr := u.rank(ctx, input.Prompt, candidates)
	u.record(ctx, actor.ID, input.Prompt, result, chatErr)
	if chatErr != nil {
		return nil, fmt.Errorf("language model request: %w", chatErr)
	}

	for i := range recs {
		u.annotateAvailability(ctx, &recs[i], input)
	}
	return recs, nil
}

// Chat is the admin passthrough to the model, bypassing the equipment
// pipeline. Usage is still accounted.
func (u *AIUsecase) Chat(ctx context.Context, actor *domain.User, messages []ai.ChatMessage) (string, error) {
	if !u.cfg.Enabled {
		return "", domain.ErrAIDisabled
	}
	result, err := u.client.Chat(ctx, messages)
	var prompt string
	if len(messages) > 0 {
		prompt = messages[len(messages)-1].Content
	}
	u.record(ctx, actor.ID, prompt, result, err)
	if err != nil {
		return "", fmt.Errorf("language model request: %w", err)
	}
	return result.Content, nil
}

func (u *AIUsecase) Usage(ctx context.Context, from, to time.Time) ([]*domain.AIUsage, error) {
	return u.repo.UsageRange(ctx, domain.Date(from), domain.Date(to))
}

func (u *AIUsecase) ListRules(ctx context.Context) ([]*domain.AISpecificationRule, error) {
	return u.repo.ListRules(ctx, false)
}

func (u *AIUsecase) CreateRule(ctx context.Context, rule *domain.AISpecificationRule) (*domain.AISpecificationRule, error) {
	return u.repo.CreateRule(ctx, rule)
}

func (u *AIUsecase) UpdateRule(ctx context.Context, rule *domain.AISpecificationRule) (*domain.AISpecificationRule, error) {
	if err := u.repo.UpdateRule(ctx, rule); err != nil {
		return nil, err
	}
	return u.repo.GetRule(ctx, rule.ID)
}

func (u *AIUsecase) DeleteRule(ctx context.Context, id int64) error {
	return u.repo.DeleteRule(ctx, id)
}

// candidateEquipment lists the actor's accessible active equipment, then
// applies stage 1 spec filtering. An empty filtered set falls back to the
// unfiltered list rather than returning nothing.
func (u *AIUsecase) candidateEquipment(ctx context.Context, actor *domain.User, prompt string) ([]*domain.Equipment, error) {
	listInput := repository.ListEquipmentInput{}
	if !actor.IsAdmin() {
		ids, err := u.types.AccessibleTypeIDs(ctx, actor.ID)
		if err != nil {
			return nil, fmt.Errorf("load accessible types: %w", err)
		}
		listInput.AccessibleTypeIDs = ids
	}
	all, err := u.equipment.List(ctx, listInput)
	if err != nil {
		return nil, fmt.Errorf("list equipment: %w", err)
	}

	specs := ai.ExtractSpecs(prompt)
	if len(specs) == 0 {
		return all, nil
	}

	var filtered []*domain.Equipment
	for _, eq := range all {
		if eq.Description == nil {
			continue
		}
		for _, spec := range specs {
			if spec.MatchesDescription(*eq.Description) {
				filtered = append(filtered, eq)
				break
			}
		}
	}
	if len(filtered) == 0 {
		return all, nil
	}
	return filtered, nil
}

func (u *AIUsecase) rank(ctx context.Context, prompt string, candidates []*domain.Equipment) ([]domain.Recommendation, *ai.ChatResult, error) {
	system, err := u.buildSystemPrompt(ctx, candidates)
	if err != nil {
		return nil, nil, err
	}

	result, err := u.client.Chat(ctx, []ai.ChatMessage{
		{Role: "system", Content: system},
		{Role: "user", Content: prompt},
	})
	if err != nil {
		return nil, result, err
	}

	recs := parseRecommendations(result.Content, candidates)
	return recs, result, nil
}

func (u *AIUsecase) buildSystemPrompt(ctx context.Context, candidates []*domain.Equipment) (string, error) {
	rules, err := u.repo.ListRules(ctx, true)
	if err != nil {
		return "", fmt.Errorf("load prompt rules: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("You match user requirements against lab equipment. ")
	sb.WriteString("Respond with only a JSON array of objects with keys ")
	sb.WriteString(`"equipment_id", "name", "reasoning", "confidence" (0-100), best matches first.` + "\n")

	for _, rule := range rules {
		sb.WriteString(rule.PromptText)
		if rule.ParameterName != nil {
			fmt.Fprintf(&sb, " (parameter: %s", *rule.ParameterName)
			if rule.ParameterUnit != nil {
				fmt.Fprintf(&sb, ", unit: %s", *rule.ParameterUnit)
			}
			sb.WriteString(")")
		}
		sb.WriteString("\n")
	}

	sb.WriteString("\nAvailable equipment:\n")
	for _, eq := range candidates {
		fmt.Fprintf(&sb, "- id=%d name=%q", eq.ID, eq.Name)
		if eq.TypeName != nil {
			fmt.Fprintf(&sb, " type=%q", *eq.TypeName)
		}
		if eq.Description != nil {
			fmt.Fprintf(&sb, " description=%q", *eq.Description)
		}
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

// parseRecommendations extracts the JSON array from the model output and
// keeps entries whose id belongs to the candidate set, capped at five. When
// no parseable array is present it falls back to matching candidate names
// as substrings of the response text.
func parseRecommendations(content string, candidates []*domain.Equipment) []domain.Recommendation {
	byID := make(map[int64]*domain.Equipment, len(candidates))
	for _, eq := range candidates {
		byID[eq.ID] = eq
	}

	if start, end := strings.Index(content, "["), strings.LastIndex(content, "]"); start >= 0 && end > start {
		var parsed []domain.Recommendation
		if err := json.Unmarshal([]byte(content[start:end+1]), &parsed); err == nil {
			var recs []domain.Recommendation
			for _, rec := range parsed {
				eq, ok := byID[rec.EquipmentID]
				if !ok {
					continue
				}
				rec.Name = eq.Name
				if rec.Confidence < 0 {
					rec.Confidence = 0
				}
				if rec.Confidence > 100 {
					rec.Confidence = 100
				}
				recs = append(recs, rec)
				if len(recs) == maxRecommendations {
					break
				}
			}
			if len(recs) > 0 {
				return recs
			}
		}
	}

	// heuristic fallback
	lower := strings.ToLower(content)
	var recs []domain.Recommendation
	for _, eq := range candidates {
		if strings.Contains(lower, strings.ToLower(eq.Name)) {
			recs = append(recs, domain.Recommendation{
				EquipmentID: eq.ID,
				Name:        eq.Name,
				Reasoning:   "mentioned in model response",
				Confidence:  fallbackConfidence,
			})
			if len(recs) == maxRecommendations {
				break
			}
		}
	}
	return recs
}

// annotateAvailability checks the requested range for conflicts and, when
// occupied, gap-scans the next two weeks for open full-day slots.
func (u *AIUsecase) annotateAvailability(ctx context.Context, rec *domain.Recommendation, input AnalyzeInput) {
	start := domain.Date(u.now())
	end := start
	if input.StartDate != nil {
		start = domain.Date(*input.StartDate)
	}
	if input.EndDate != nil {
		end = domain.Date(*input.EndDate)
	} else {
		end = start
	}
	startTime, endTime := input.StartTime, input.EndTime
	if startTime == "" {
		startTime = "00:00"
	}
	if endTime == "" {
		endTime = "23:59"
	}

	overlapping, err := u.bookings.ListOverlappingDates(ctx, rec.EquipmentID, start, end, 0)
	if err != nil {
		u.logger.Warn("availability check failed", "equipment_id", rec.EquipmentID, "error", err)
		return
	}

	var conflicts []domain.DateTimeRange
	for _, b := range overlapping {
		if b.Overlaps(start, end, startTime, endTime) {
			conflicts = append(conflicts, domain.DateTimeRange{
				StartDate: b.StartDate.Format("2006-01-02"),
				EndDate:   b.EndDate.Format("2006-01-02"),
				StartTime: b.StartTime,
				EndTime:   b.EndTime,
			})
		}
	}

	available := len(conflicts) == 0
	rec.Available = &available
	rec.Conflicts = conflicts
	if available {
		return
	}
	rec.AvailableSlots = u.openSlots(ctx, rec.EquipmentID, start)
}

// openSlots returns up to five runs of fully free days within the two-week
// horizon after from.
func (u *AIUsecase) openSlots(ctx context.Context, equipmentID int64, from time.Time) []domain.DateRange {
	horizonEnd := from.AddDate(0, 0, availabilityDays-1)
	active, err := u.bookings.ListForEquipmentRange(ctx, equipmentID, from, horizonEnd)
	if err != nil {
		u.logger.Warn("slot scan failed", "equipment_id", equipmentID, "error", err)
		return nil
	}

	busy := make(map[time.Time]bool)
	for _, b := range active {
		for d := b.StartDate; !d.After(b.EndDate); d = d.AddDate(0, 0, 1) {
			busy[d] = true
		}
	}

	var slots []domain.DateRange
	var runStart *time.Time
	flush := func(endDay time.Time) {
		if runStart == nil {
			return
		}
		slots = append(slots, domain.DateRange{
			StartDate: runStart.Format("2006-01-02"),
			EndDate:   endDay.Format("2006-01-02"),
		})
		runStart = nil
	}
	for d := from; !d.After(horizonEnd) && len(slots) < maxAvailableSlots; d = d.AddDate(0, 0, 1) {
		if busy[d] {
			flush(d.AddDate(0, 0, -1))
			continue
		}
		if runStart == nil {
			day := d
			runStart = &day
		}
	}
	if len(slots) < maxAvailableSlots {
		flush(horizonEnd)
	}
	return slots
}

func (u *AIUsecase) record(ctx context.Context, userID int64, prompt string, result *ai.ChatResult, chatErr error) {
	log := &domain.AIQueryLog{
		UserID:  userID,
		Prompt:  prompt,
		Model:   u.client.Model(),
		Success: chatErr == nil,
	}
	var in, out int
	if result != nil {
		in, out = result.InputTokens, result.OutputTokens
		log.InputTokens = in
		log.OutputTokens = out
		if chatErr == nil {
			log.Response = &result.Content
		}
	}
	if chatErr != nil {
		msg := chatErr.Error()
		log.ErrorMessage = &msg
	}

	if err := u.repo.LogQuery(ctx, log); err != nil {
		u.logger.Error("log ai query failed", "user_id", userID, "error", err)
	}
	if err := u.repo.AddUsage(ctx, domain.Date(u.now()), 1, in, out); err != nil {
		u.logger.Error("record ai usage failed", "error", err)
	}
}
