package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rfbooking/rfbooking/internal/ai"
	"github.com/rfbooking/rfbooking/internal/domain"
	"github.com/rfbooking/rfbooking/internal/metrics"
	"github.com/rfbooking/rfbooking/internal/transport/http/middleware"
	"github.com/rfbooking/rfbooking/internal/usecase"
)

type AIHandler struct {
	uc     *usecase.AIUsecase
	logger *slog.Logger
}

func NewAIHandler(uc *usecase.AIUsecase, logger *slog.Logger) *AIHandler {
	return &AIHandler{uc: uc, logger: logger.With("component", "ai_handler")}
}

type analyzeRequest struct {
	Prompt    string  `json:"prompt" binding:"required,min=3,max=2000"`
	StartDate *string `json:"start_date" binding:"omitempty,datetime=2006-01-02"`
	EndDate   *string `json:"end_date"   binding:"omitempty,datetime=2006-01-02"`
	StartTime string  `json:"start_time" binding:"omitempty,datetime=15:04"`
	EndTime   string  `json:"end_time"   binding:"omitempty,datetime=15:04"`
}

// POST /api/ai/analyze
func (h *AIHandler) Analyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	input := usecase.AnalyzeInput{
		Prompt:    req.Prompt,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	}
	if req.StartDate != nil {
		d, _ := time.Parse(dateLayout, *req.StartDate)
		input.StartDate = &d
	}
	if req.EndDate != nil {
		d, _ := time.Parse(dateLayout, *req.EndDate)
		input.EndDate = &d
	}

	start := time.Now()
	recs, err := h.uc.Analyze(c.Request.Context(), middleware.CurrentUser(c), input)
	metrics.AIRequestDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrAIDisabled):
			metrics.AIRequestsTotal.WithLabelValues("disabled").Inc()
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": domain.ErrAIDisabled.Error()})
		case errors.Is(err, domain.ErrAIRateLimited):
			metrics.AIRequestsTotal.WithLabelValues("rate_limited").Inc()
			c.JSON(http.StatusTooManyRequests, gin.H{"error": domain.ErrAIRateLimited.Error()})
		default:
			metrics.AIRequestsTotal.WithLabelValues("error").Inc()
			h.logger.Error("ai analyze", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		}
		return
	}

	metrics.AIRequestsTotal.WithLabelValues("success").Inc()
	c.JSON(http.StatusOK, gin.H{"recommendations": recs})
}

type chatRequest struct {
	Messages []chatMessage `json:"messages" binding:"required,min=1,dive"`
}

type chatMessage struct {
	Role    string `json:"role"    binding:"required,oneof=system user assistant"`
	Content string `json:"content" binding:"required"`
}

// POST /api/admin/ai/chat
func (h *AIHandler) Chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	messages := make([]ai.ChatMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, ai.ChatMessage{Role: m.Role, Content: m.Content})
	}

	reply, err := h.uc.Chat(c.Request.Context(), middleware.CurrentUser(c), messages)
	if err != nil {
		if errors.Is(err, domain.ErrAIDisabled) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": domain.ErrAIDisabled.Error()})
			return
		}
		h.logger.Error("ai chat", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}
	c.JSON(http.StatusOK, gin.H{"response": reply})
}

type aiUsageResponse struct {
	Date         string `json:"date"`
	QueriesCount int    `json:"queries_count"`
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
}

// GET /api/admin/ai/usage?from=&to=
func (h *AIHandler) Usage(c *gin.Context) {
	from, to := queryDate(c, "from"), queryDate(c, "to")
	now := time.Now().UTC()
	if to == nil {
		to = &now
	}
	if from == nil {
		d := now.AddDate(0, 0, -30)
		from = &d
	}

	rows, err := h.uc.Usage(c.Request.Context(), *from, *to)
	if err != nil {
		h.logger.Error("ai usage", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}
	out := make([]aiUsageResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, aiUsageResponse{
			Date:         r.Date.Format(dateLayout),
			QueriesCount: r.QueriesCount,
			InputTokens:  r.InputTokens,
			OutputTokens: r.OutputTokens,
		})
	}
	c.JSON(http.StatusOK, gin.H{"usage": out})
}

type aiRuleRequest struct {
	RuleType      string  `json:"rule_type" binding:"required,oneof=general parameter example"`
	ParameterName *string `json:"parameter_name"`
	ParameterUnit *string `json:"parameter_unit"`
	IsEnabled     *bool   `json:"is_enabled"`
	PromptText    string  `json:"prompt_text" binding:"required,min=1"`
	DisplayOrder  int     `json:"display_order"`
}

type aiRuleResponse struct {
	ID            int64   `json:"id"`
	RuleType      string  `json:"rule_type"`
	ParameterName *string `json:"parameter_name,omitempty"`
	ParameterUnit *string `json:"parameter_unit,omitempty"`
	IsEnabled     bool    `json:"is_enabled"`
	PromptText    string  `json:"prompt_text"`
	DisplayOrder  int     `json:"display_order"`
	CreatedAt     string  `json:"created_at"`
	UpdatedAt     string  `json:"updated_at"`
}

func toAIRuleResponse(r *domain.AISpecificationRule) aiRuleResponse {
	return aiRuleResponse{
		ID:            r.ID,
		RuleType:      string(r.RuleType),
		ParameterName: r.ParameterName,
		ParameterUnit: r.ParameterUnit,
		IsEnabled:     r.IsEnabled,
		PromptText:    r.PromptText,
		DisplayOrder:  r.DisplayOrder,
		CreatedAt:     r.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     r.UpdatedAt.Format(time.RFC3339),
	}
}

// GET /api/admin/ai/rules
func (h *AIHandler) ListRules(c *gin.Context) {
	rules, err := h.uc.ListRules(c.Request.Context())
	if err != nil {
		h.logger.Error("list ai rules", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}
	out := make([]aiRuleResponse, 0, len(rules))
	for _, r := range rules {
		out = append(out, toAIRuleResponse(r))
	}
	c.JSON(http.StatusOK, gin.H{"rules": out})
}

// POST /api/admin/ai/rules
func (h *AIHandler) CreateRule(c *gin.Context) {
	rule, ok := h.bindRule(c)
	if !ok {
		return
	}
	created, err := h.uc.CreateRule(c.Request.Context(), rule)
	if err != nil {
		h.respondRuleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toAIRuleResponse(created))
}

// PUT /api/admin/ai/rules/:id
func (h *AIHandler) UpdateRule(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	rule, ok := h.bindRule(c)
	if !ok {
		return
	}
	rule.ID = id
	updated, err := h.uc.UpdateRule(c.Request.Context(), rule)
	if err != nil {
		h.respondRuleError(c, err)
		return
	}
	c.JSON(http.StatusOK, toAIRuleResponse(updated))
}

// DELETE /api/admin/ai/rules/:id
func (h *AIHandler) DeleteRule(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.uc.DeleteRule(c.Request.Context(), id); err != nil {
		h.respondRuleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Rule deleted"})
}

func (h *AIHandler) bindRule(c *gin.Context) (*domain.AISpecificationRule, bool) {
	var req aiRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}

	rule := &domain.AISpecificationRule{
		RuleType:      domain.AIRuleType(req.RuleType),
		ParameterName: req.ParameterName,
		ParameterUnit: req.ParameterUnit,
		IsEnabled:     true,
		PromptText:    req.PromptText,
		DisplayOrder:  req.DisplayOrder,
	}
	if req.IsEnabled != nil {
		rule.IsEnabled = *req.IsEnabled
	}
	return rule, true
}

func (h *AIHandler) respondRuleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrAIRuleNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": domain.ErrAIRuleNotFound.Error()})
	case errors.Is(err, domain.ErrAIRuleConflict):
		c.JSON(http.StatusConflict, gin.H{"error": domain.ErrAIRuleConflict.Error()})
	default:
		h.logger.Error("ai rule operation", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
	}
}
