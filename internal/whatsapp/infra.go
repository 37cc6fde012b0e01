package whatsapp

import (
	"context"
	"database/sql"
	"fmt"
)

const schema = `
CREATE TABLE IF NOT EXISTS messages (
	id            BIGSERIAL PRIMARY KEY,
	user_id       TEXT NOT NULL,
	wa_message_id TEXT,
	sender        TEXT NOT NULL,
	text          TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_messages_user_created ON messages (user_id, created_at);

CREATE TABLE IF NOT EXISTS prospects (
	user_id              TEXT PRIMARY KEY,
	profile_name         TEXT,
	name                 TEXT,
	city                 TEXT,
	human_help_requested BOOLEAN NOT NULL DEFAULT false,
	survey_completed_at  TIMESTAMPTZ,
	last_interaction     TIMESTAMPTZ NOT NULL DEFAULT now(),
	created_at           TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// PostgresRepo stores chat history and the prospect CRM record.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func (r *PostgresRepo) SaveMessage(ctx context.Context, msg *Message) error {
	var waID *string
	if msg.ID != "" {
		waID = &msg.ID
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO messages (user_id, wa_message_id, sender, text)
		VALUES ($1, $2, $3, $4)
	`,
		msg.User,
		waID,
		string(msg.Sender),
		msg.Text,
	)
	if err != nil {
		return fmt.Errorf("save message: %w", err)
	}
	return nil
}

// GetHistory returns the last limit messages, oldest first.
func (r *PostgresRepo) GetHistory(ctx context.Context, user string, limit int) ([]Message, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, wa_message_id, sender, text, created_at
		FROM (
			SELECT id, user_id, wa_message_id, sender, text, created_at
			FROM messages
			WHERE user_id = $1
			ORDER BY created_at DESC, id DESC
			LIMIT $2
		) recent
		ORDER BY created_at ASC, id ASC
	`, user, limit)
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var (
			m      Message
			id     int64
			waID   sql.NullString
			sender string
		)
		if err := rows.Scan(&id, &m.User, &waID, &sender, &m.Text, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("history scan: %w", err)
		}
		m.ID = waID.String
		m.Sender = Sender(sender)
		m.Type = TypeText
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) Touch(ctx context.Context, user, profileName string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO prospects (user_id, profile_name, last_interaction)
		VALUES ($1, NULLIF($2, ''), now())
		ON CONFLICT (user_id) DO UPDATE SET
			profile_name = COALESCE(NULLIF(EXCLUDED.profile_name, ''), prospects.profile_name),
			last_interaction = now()
	`, user, profileName)
	if err != nil {
		return fmt.Errorf("touch prospect: %w", err)
	}
	return nil
}

func (r *PostgresRepo) RecordFinalizedAnswers(ctx context.Context, user, name, city string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO prospects (user_id, name, city, survey_completed_at, last_interaction)
		VALUES ($1, $2, $3, now(), now())
		ON CONFLICT (user_id) DO UPDATE SET
			name = EXCLUDED.name,
			city = EXCLUDED.city,
			survey_completed_at = now(),
			last_interaction = now()
	`, user, name, city)
	if err != nil {
		return fmt.Errorf("record answers: %w", err)
	}
	return nil
}

func (r *PostgresRepo) SetHumanHelp(ctx context.Context, user string, requested bool) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO prospects (user_id, human_help_requested, last_interaction)
		VALUES ($1, $2, now())
		ON CONFLICT (user_id) DO UPDATE SET
			human_help_requested = EXCLUDED.human_help_requested,
			last_interaction = now()
	`, user, requested)
	if err != nil {
		return fmt.Errorf("set human help: %w", err)
	}
	return nil
}
