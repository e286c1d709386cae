package storage

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/nakharin/nvc-bot/internal/models"
)

//go:embed migrations.sql
var migrations embed.FS

type DatabaseConfig struct {
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	UseInMemory bool
}

type PostgresStorage struct {
	db *sql.DB
}

func NewPostgresStorage(config DatabaseConfig) (*PostgresStorage, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		config.Host, config.Port, config.User, config.Password, config.DBName, config.SSLMode)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %v", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error connecting to the database: %v", err)
	}

	storage := &PostgresStorage{db: db}

	// Initialize database schema
	if err := storage.initializeSchema(); err != nil {
		return nil, fmt.Errorf("error initializing database schema: %v", err)
	}

	return storage, nil
}

func (s *PostgresStorage) initializeSchema() error {
	migrationSQL, err := migrations.ReadFile("migrations.sql")
	if err != nil {
		return fmt.Errorf("error reading migrations file: %v", err)
	}

	_, err = s.db.Exec(string(migrationSQL))
	if err != nil {
		return fmt.Errorf("error executing migrations: %v", err)
	}

	return nil
}

func (s *PostgresStorage) AppendTurn(ctx context.Context, turn *models.Turn) error {
	query := `
		INSERT INTO conversation_turns (id, conversation_id, speaker, text, display_name)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`

	err := s.db.QueryRowContext(
		ctx,
		query,
		turn.ID,
		turn.ConversationID,
		string(turn.Speaker),
		turn.Text,
		turn.DisplayName,
	).Scan(&turn.CreatedAt)

	if err != nil {
		return fmt.Errorf("error appending turn: %v", err)
	}

	return nil
}

func (s *PostgresStorage) RecentTurns(ctx context.Context, conversationID int64, limit int) ([]models.Turn, error) {
	query := `
		SELECT id, conversation_id, speaker, text, display_name, created_at
		FROM conversation_turns
		WHERE conversation_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := s.db.QueryContext(ctx, query, conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("error querying turns: %v", err)
	}
	defer rows.Close()

	var turns []models.Turn
	for rows.Next() {
		var turn models.Turn
		var speaker string
		err := rows.Scan(
			&turn.ID,
			&turn.ConversationID,
			&speaker,
			&turn.Text,
			&turn.DisplayName,
			&turn.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("error scanning turn: %v", err)
		}
		turn.Speaker = models.Speaker(speaker)
		turns = append(turns, turn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating turns: %v", err)
	}

	// Rows come back newest-first; presentation order is oldest-to-newest.
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}

	return turns, nil
}

func (s *PostgresStorage) LookupAnswer(ctx context.Context, question string, maxAge time.Duration) (string, bool, error) {
	normalized := normalizeQuestion(question)

	query := `
		SELECT answer_text
		FROM response_cache
		WHERE question = $1 AND created_at > $2
		ORDER BY created_at DESC
		LIMIT 1`

	var answer string
	err := s.db.QueryRowContext(ctx, query, normalized, time.Now().Add(-maxAge)).Scan(&answer)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("error querying cache: %v", err)
	}

	return answer, true, nil
}

func (s *PostgresStorage) StoreAnswer(ctx context.Context, question, answerText string) error {
	normalized := normalizeQuestion(question)
	if !cacheableQuestion(normalized) {
		return nil
	}

	query := `
		INSERT INTO response_cache (question, answer_text)
		VALUES ($1, $2)`

	if _, err := s.db.ExecContext(ctx, query, normalized, answerText); err != nil {
		return fmt.Errorf("error storing cache entry: %v", err)
	}

	return nil
}

func (s *PostgresStorage) Close() error {
	return s.db.Close()
}
