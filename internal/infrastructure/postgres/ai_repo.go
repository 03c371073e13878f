package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rfbooking/rfbooking/internal/domain"
)

const aiRuleColumns = `id, rule_type, parameter_name, parameter_unit, is_enabled,
	prompt_text, display_order, created_at, updated_at`

type AIRepository struct {
	pool *pgxpool.Pool
}

func NewAIRepository(pool *pgxpool.Pool) *AIRepository {
	return &AIRepository{pool: pool}
}

func (r *AIRepository) ListRules(ctx context.Context, enabledOnly bool) ([]*domain.AISpecificationRule, error) {
	query := `SELECT ` + aiRuleColumns + ` FROM ai_specification_rules`
	if enabledOnly {
		query += ` WHERE is_enabled`
	}
	query += ` ORDER BY display_order, id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list ai rules: %w", err)
	}
	defer rows.Close()

	var rules []*domain.AISpecificationRule
	for rows.Next() {
		rule, err := scanAIRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

func (r *AIRepository) GetRule(ctx context.Context, id int64) (*domain.AISpecificationRule, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+aiRuleColumns+` FROM ai_specification_rules WHERE id = $1`, id)
	return scanAIRule(row)
}

func (r *AIRepository) CreateRule(ctx context.Context, rule *domain.AISpecificationRule) (*domain.AISpecificationRule, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO ai_specification_rules (rule_type, parameter_name, parameter_unit, is_enabled, prompt_text, display_order)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		rule.RuleType, rule.ParameterName, rule.ParameterUnit, rule.IsEnabled, rule.PromptText, rule.DisplayOrder,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrAIRuleConflict
		}
		return nil, fmt.Errorf("create ai rule: %w", err)
	}
	return r.GetRule(ctx, id)
}

func (r *AIRepository) UpdateRule(ctx context.Context, rule *domain.AISpecificationRule) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE ai_specification_rules
		SET rule_type = $2, parameter_name = $3, parameter_unit = $4,
		    is_enabled = $5, prompt_text = $6, display_order = $7, updated_at = NOW()
		WHERE id = $1`,
		rule.ID, rule.RuleType, rule.ParameterName, rule.ParameterUnit,
		rule.IsEnabled, rule.PromptText, rule.DisplayOrder,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrAIRuleConflict
		}
		return fmt.Errorf("update ai rule: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAIRuleNotFound
	}
	return nil
}

func (r *AIRepository) DeleteRule(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM ai_specification_rules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete ai rule: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAIRuleNotFound
	}
	return nil
}

func (r *AIRepository) AddUsage(ctx context.Context, day time.Time, queries, inputTokens, outputTokens int) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO ai_usage (date, queries_count, input_tokens, output_tokens)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (date) DO UPDATE
		SET queries_count = ai_usage.queries_count + EXCLUDED.queries_count,
		    input_tokens  = ai_usage.input_tokens + EXCLUDED.input_tokens,
		    output_tokens = ai_usage.output_tokens + EXCLUDED.output_tokens,
		    updated_at = NOW()`,
		day, queries, inputTokens, outputTokens,
	)
	if err != nil {
		return fmt.Errorf("add ai usage: %w", err)
	}
	return nil
}

func (r *AIRepository) UsageRange(ctx context.Context, from, to time.Time) ([]*domain.AIUsage, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, date, queries_count, input_tokens, output_tokens
		FROM ai_usage
		WHERE date >= $1 AND date <= $2
		ORDER BY date`, from, to)
	if err != nil {
		return nil, fmt.Errorf("ai usage range: %w", err)
	}
	defer rows.Close()

	var usage []*domain.AIUsage
	for rows.Next() {
		var u domain.AIUsage
		if err := rows.Scan(&u.ID, &u.Date, &u.QueriesCount, &u.InputTokens, &u.OutputTokens); err != nil {
			return nil, fmt.Errorf("scan ai usage: %w", err)
		}
		u.Date = domain.Date(u.Date)
		usage = append(usage, &u)
	}
	return usage, rows.Err()
}

func (r *AIRepository) LogQuery(ctx context.Context, log *domain.AIQueryLog) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO ai_query_log (user_id, prompt, response, input_tokens, output_tokens, model, success, error_message)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		log.UserID, log.Prompt, log.Response, log.InputTokens, log.OutputTokens,
		log.Model, log.Success, log.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("log ai query: %w", err)
	}
	return nil
}

func (r *AIRepository) CountUserQueriesSince(ctx context.Context, userID int64, since time.Time) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM ai_query_log WHERE user_id = $1 AND created_at >= $2`,
		userID, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count ai queries: %w", err)
	}
	return count, nil
}

func (r *AIRepository) DeleteOldQueryLogs(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM ai_query_log WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete old ai query logs: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanAIRule(row rowScanner) (*domain.AISpecificationRule, error) {
	var rule domain.AISpecificationRule
	err := row.Scan(&rule.ID, &rule.RuleType, &rule.ParameterName, &rule.ParameterUnit,
		&rule.IsEnabled, &rule.PromptText, &rule.DisplayOrder, &rule.CreatedAt, &rule.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAIRuleNotFound
		}
		return nil, fmt.Errorf("scan ai rule: %w", err)
	}
	return &rule, nil
}
