package upload

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/ielts-tools/ieltscrawl/internal/models"
)

// DBClient inserts tests directly into the backend's Postgres schema,
// bypassing the REST API. Table and column names match the backend's Prisma
// schema, hence the quoted camelCase identifiers.
type DBClient struct {
	db  *sql.DB
	log *slog.Logger
}

// OpenDB connects to the database at databaseURL.
func OpenDB(ctx context.Context, databaseURL string, log *slog.Logger) (*DBClient, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("database URL is required")
	}
	if log == nil {
		log = slog.Default()
	}

	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return &DBClient{db: db, log: log}, nil
}

// Close releases the connection pool.
func (c *DBClient) Close() error { return c.db.Close() }

// getOrCreateAdminUser returns an admin user id, creating a crawler-owned
// admin if none exists.
func (c *DBClient) getOrCreateAdminUser(ctx context.Context, tx *sql.Tx) (string, error) {
	var id string
	err := tx.QueryRowContext(ctx,
		`SELECT "idUser" FROM "User" WHERE role = 'ADMIN' LIMIT 1`).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return "", fmt.Errorf("looking up admin user: %w", err)
	}

	id = uuid.NewString()
	err = tx.QueryRowContext(ctx, `
		INSERT INTO "User" ("idUser", "email", "password", "nameUser", "role", "isActive")
		VALUES ($1, $2, $3, $4, 'ADMIN', true)
		ON CONFLICT (email) DO UPDATE SET email = EXCLUDED.email
		RETURNING "idUser"`,
		id, "crawler@ielts.local", "crawler_password_hash", "IELTS Crawler").Scan(&id)
	if err != nil {
		return "", fmt.Errorf("creating admin user: %w", err)
	}
	return id, nil
}

// Upload is an alias for UploadTest so the client satisfies the crawler's
// Uploader interface.
func (c *DBClient) Upload(ctx context.Context, test *models.TestData) (string, error) {
	return c.UploadTest(ctx, test)
}

// UploadTest inserts the complete test tree in one transaction. All rows
// commit together or none do.
func (c *DBClient) UploadTest(ctx context.Context, test *models.TestData) (string, error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	userID, err := c.getOrCreateAdminUser(ctx, tx)
	if err != nil {
		return "", err
	}

	testID := uuid.NewString()
	now := time.Now()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO "Test" (
			"idTest", "idUser", "title", "testType", "level",
			"duration", "numberQuestion", "createdAt", "updatedAt"
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		testID, userID, test.Title, string(test.TestType), string(test.Level),
		test.Duration, test.NumberQuestion, now, now)
	if err != nil {
		return "", fmt.Errorf("inserting test: %w", err)
	}

	for _, part := range test.Parts {
		partID := uuid.NewString()
		_, err = tx.ExecContext(ctx, `
			INSERT INTO "Part" ("idPart", "idTest", "namePart", "createdAt", "updatedAt")
			VALUES ($1, $2, $3, $4, $5)`,
			partID, testID, part.NamePart, now, now)
		if err != nil {
			return "", fmt.Errorf("inserting part %q: %w", part.NamePart, err)
		}

		if part.Passage != nil {
			title := part.Passage.Title
			if title == "" {
				title = "Untitled"
			}
			_, err = tx.ExecContext(ctx, `
				INSERT INTO "Passage" (
					"idPassage", "idPart", "title", "content",
					"numberParagraph", "createdAt", "updatedAt"
				) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				uuid.NewString(), partID, title, part.Passage.Content,
				countParagraphs(part.Passage.Content), now, now)
			if err != nil {
				return "", fmt.Errorf("inserting passage: %w", err)
			}
		}

		for _, group := range part.Groups {
			groupID := uuid.NewString()
			groupTitle := group.Title
			if groupTitle == "" {
				groupTitle = "Questions"
			}
			_, err = tx.ExecContext(ctx, `
				INSERT INTO "GroupOfQuestions" (
					"idGroupOfQuestions", "idTest", "idPart", "title",
					"typeQuestion", "quantity", "createdAt", "updatedAt"
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				groupID, testID, partID, groupTitle,
				string(group.TypeQuestion), group.Quantity, now, now)
			if err != nil {
				return "", fmt.Errorf("inserting group %q: %w", groupTitle, err)
			}

			for _, q := range group.Questions {
				questionID := uuid.NewString()
				_, err = tx.ExecContext(ctx, `
					INSERT INTO "Question" (
						"idQuestion", "idGroupOfQuestions", "idPart",
						"numberQuestion", "content", "createdAt", "updatedAt"
					) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
					questionID, groupID, partID, q.NumberQuestion, q.Content, now, now)
				if err != nil {
					return "", fmt.Errorf("inserting question %d: %w", q.NumberQuestion, err)
				}

				for _, a := range q.Answers {
					_, err = tx.ExecContext(ctx, `
						INSERT INTO "Answer" (
							"idAnswer", "idQuestion", "answer_text",
							"matching_key", "matching_value", "createdAt", "updatedAt"
						) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
						uuid.NewString(), questionID,
						nullable(a.AnswerText), nullable(a.MatchingKey), nullable(a.MatchingValue),
						now, now)
					if err != nil {
						return "", fmt.Errorf("inserting answer for question %d: %w", q.NumberQuestion, err)
					}
				}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing test: %w", err)
	}

	c.log.Info("inserted test", "idTest", testID, "parts", len(test.Parts), "questions", test.NumberQuestion)
	return testID, nil
}

// countParagraphs counts non-empty blocks separated by blank lines.
func countParagraphs(content string) int {
	n := 0
	for _, block := range strings.Split(content, "\n\n") {
		if strings.TrimSpace(block) != "" {
			n++
		}
	}
	return n
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
