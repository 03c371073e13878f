package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Bootstrap creates the schema if it does not exist yet and seeds the role
// rows. Booking clock times are stored as zero-padded "HH:MM" text; that
// keeps SQL range comparisons and Go string comparisons identical.
func Bootstrap(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS roles (
			id   BIGINT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			description TEXT
		)`,
		`INSERT INTO roles (id, name, description) VALUES
			(1, 'admin',   'Full administrative access'),
			(2, 'manager', 'Equipment oversight'),
			(3, 'user',    'Regular user')
		 ON CONFLICT (id) DO NOTHING`,

		`CREATE TABLE IF NOT EXISTS users (
			id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			name  TEXT NOT NULL,
			role_id BIGINT NOT NULL DEFAULT 3 REFERENCES roles(id),
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			email_notifications_enabled BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			last_login_at TIMESTAMPTZ
		)`,

		`CREATE TABLE IF NOT EXISTS auth_tokens (
			id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			token TEXT NOT NULL UNIQUE,
			expires_at TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			last_used_at TIMESTAMPTZ,
			ip_address TEXT,
			user_agent TEXT,
			is_revoked BOOLEAN NOT NULL DEFAULT FALSE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_auth_tokens_user ON auth_tokens (user_id)`,

		`CREATE TABLE IF NOT EXISTS magic_links (
			id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
			email TEXT NOT NULL,
			name  TEXT,
			token TEXT NOT NULL UNIQUE,
			expires_at TIMESTAMPTZ NOT NULL,
			used BOOLEAN NOT NULL DEFAULT FALSE,
			used_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			ip_address TEXT,
			user_id BIGINT REFERENCES users(id) ON DELETE SET NULL,
			last_auth_token_id BIGINT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_magic_links_email ON magic_links (email)`,

		`CREATE TABLE IF NOT EXISTS equipment_types (
			id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			description TEXT,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			manager_notifications_enabled BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS equipment (
			id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT,
			location TEXT,
			type_id BIGINT REFERENCES equipment_types(id),
			next_calibration_date DATE,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS equipment_type_users (
			id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
			type_id BIGINT NOT NULL REFERENCES equipment_types(id) ON DELETE CASCADE,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			granted_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			granted_by BIGINT REFERENCES users(id) ON DELETE SET NULL,
			UNIQUE (type_id, user_id)
		)`,

		`CREATE TABLE IF NOT EXISTS equipment_managers (
			id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
			equipment_id BIGINT NOT NULL REFERENCES equipment(id) ON DELETE CASCADE,
			manager_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			assigned_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			assigned_by BIGINT REFERENCES users(id) ON DELETE SET NULL,
			UNIQUE (equipment_id, manager_id)
		)`,

		`CREATE TABLE IF NOT EXISTS bookings (
			id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			equipment_id BIGINT NOT NULL REFERENCES equipment(id) ON DELETE CASCADE,
			start_date DATE NOT NULL,
			end_date DATE NOT NULL,
			start_time TEXT NOT NULL,
			end_time TEXT NOT NULL,
			description TEXT,
			status TEXT NOT NULL DEFAULT 'active'
				CHECK (status IN ('active', 'cancelled', 'completed')),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_equipment_dates
			ON bookings (equipment_id, start_date, end_date) WHERE status = 'active'`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_user ON bookings (user_id)`,

		`CREATE TABLE IF NOT EXISTS notification_log (
			id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
			notification_type TEXT NOT NULL,
			recipient_user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			reference_id BIGINT,
			reference_type TEXT,
			scheduled_for TIMESTAMPTZ NOT NULL,
			sent_at TIMESTAMPTZ,
			status TEXT NOT NULL DEFAULT 'pending'
				CHECK (status IN ('pending', 'sent', 'failed', 'skipped')),
			error_message TEXT,
			send_attempts INT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (notification_type, recipient_user_id, reference_id, reference_type)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_notification_log_due
			ON notification_log (scheduled_for) WHERE status = 'pending'`,

		`CREATE TABLE IF NOT EXISTS cron_jobs (
			id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
			job_key TEXT NOT NULL UNIQUE,
			job_name TEXT NOT NULL,
			description TEXT NOT NULL,
			cron_schedule TEXT NOT NULL,
			is_enabled BOOLEAN NOT NULL DEFAULT TRUE,
			last_run_at TIMESTAMPTZ,
			last_run_status TEXT,
			last_run_duration_ms BIGINT,
			total_runs INT NOT NULL DEFAULT 0,
			total_errors INT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS ai_specification_rules (
			id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
			rule_type TEXT NOT NULL,
			parameter_name TEXT,
			parameter_unit TEXT,
			is_enabled BOOLEAN NOT NULL DEFAULT TRUE,
			prompt_text TEXT NOT NULL,
			display_order INT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (rule_type, parameter_name)
		)`,

		`CREATE TABLE IF NOT EXISTS ai_usage (
			id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
			date DATE NOT NULL UNIQUE,
			queries_count INT NOT NULL DEFAULT 0,
			input_tokens INT NOT NULL DEFAULT 0,
			output_tokens INT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS ai_query_log (
			id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			prompt TEXT NOT NULL,
			response TEXT,
			input_tokens INT NOT NULL DEFAULT 0,
			output_tokens INT NOT NULL DEFAULT 0,
			model TEXT NOT NULL,
			success BOOLEAN NOT NULL DEFAULT TRUE,
			error_message TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("bootstrap schema: %w", err)
		}
	}
	return nil
}
