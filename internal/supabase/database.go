package supabase

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"fundraising-backend/internal/models"
)

type DatabaseClient struct {
	db *sql.DB
}

func NewDatabaseClient(connectionString string) (*DatabaseClient, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DatabaseClient{db: db}, nil
}

const projectColumns = `id, owner_id, name, description, bitcoin_address, goal_amount, goal_currency,
	legacy_raised_amount, bitcoin_balance_btc, bitcoin_balance_updated_at, created_at, updated_at`

func scanProject(row *sql.Row) (*models.Project, error) {
	var p models.Project
	err := row.Scan(
		&p.ID, &p.OwnerID, &p.Name, &p.Description, &p.BitcoinAddress,
		&p.GoalAmount, &p.GoalCurrency, &p.LegacyRaisedAmount,
		&p.BitcoinBalanceBTC, &p.BitcoinBalanceUpdatedAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan project: %w", err)
	}
	return &p, nil
}

func (d *DatabaseClient) CreateProject(p *models.Project) (*models.Project, error) {
	row := d.db.QueryRow(`
		INSERT INTO projects (owner_id, name, description, bitcoin_address, goal_amount, goal_currency, legacy_raised_amount)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+projectColumns,
		p.OwnerID, p.Name, p.Description, p.BitcoinAddress, p.GoalAmount, p.GoalCurrency, p.LegacyRaisedAmount,
	)
	created, err := scanProject(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	return created, nil
}

func (d *DatabaseClient) GetProject(projectID uuid.UUID) (*models.Project, error) {
	row := d.db.QueryRow(`
		SELECT `+projectColumns+`
		FROM projects
		WHERE id = $1
	`, projectID)
	return scanProject(row)
}

func (d *DatabaseClient) ListProjects(ownerID uuid.UUID) ([]models.Project, error) {
	rows, err := d.db.Query(`
		SELECT `+projectColumns+`
		FROM projects
		WHERE owner_id = $1
		ORDER BY created_at DESC
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []models.Project
	for rows.Next() {
		var p models.Project
		err := rows.Scan(
			&p.ID, &p.OwnerID, &p.Name, &p.Description, &p.BitcoinAddress,
			&p.GoalAmount, &p.GoalCurrency, &p.LegacyRaisedAmount,
			&p.BitcoinBalanceBTC, &p.BitcoinBalanceUpdatedAt, &p.CreatedAt, &p.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, p)
	}

	return projects, rows.Err()
}

// DeleteProject removes the project row; media_attachments rows go
// with it via the foreign key cascade.
func (d *DatabaseClient) DeleteProject(projectID uuid.UUID) error {
	res, err := d.db.Exec(`
		DELETE FROM projects
		WHERE id = $1
	`, projectID)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return models.ErrNotFound
	}
	return nil
}

// UpdateProjectBalanceCAS persists a freshly fetched balance only if the
// stored bitcoin_balance_updated_at still matches the value observed
// before the external fetch. Returns false when a concurrent refresh
// won the race; the caller is expected to re-read and use the winner's
// values.
func (d *DatabaseClient) UpdateProjectBalanceCAS(projectID uuid.UUID, balance decimal.Decimal, fetchedAt time.Time, expected sql.NullTime) (bool, error) {
	res, err := d.db.Exec(`
		UPDATE projects
		SET bitcoin_balance_btc = $1, bitcoin_balance_updated_at = $2, updated_at = NOW()
		WHERE id = $3 AND bitcoin_balance_updated_at IS NOT DISTINCT FROM $4
	`, balance, fetchedAt, projectID, expected)
	if err != nil {
		return false, fmt.Errorf("failed to update balance: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return affected == 1, nil
}

func (d *DatabaseClient) CountMedia(projectID uuid.UUID) (int, error) {
	var count int
	err := d.db.QueryRow(`
		SELECT COUNT(*) FROM media_attachments WHERE project_id = $1
	`, projectID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count media: %w", err)
	}
	return count, nil
}

func (d *DatabaseClient) ListMedia(projectID uuid.UUID) ([]models.MediaAttachment, error) {
	rows, err := d.db.Query(`
		SELECT id, project_id, storage_path, position, alt_text, created_at
		FROM media_attachments
		WHERE project_id = $1
		ORDER BY position ASC
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list media: %w", err)
	}
	defer rows.Close()

	var media []models.MediaAttachment
	for rows.Next() {
		var m models.MediaAttachment
		if err := rows.Scan(&m.ID, &m.ProjectID, &m.StoragePath, &m.Position, &m.AltText, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan media: %w", err)
		}
		media = append(media, m)
	}

	return media, rows.Err()
}

// InsertMediaAt inserts an attachment at a specific position. A lost
// race against a concurrent insert on the same (project_id, position)
// surfaces as models.ErrConflict via the store's uniqueness constraint.
func (d *DatabaseClient) InsertMediaAt(projectID uuid.UUID, storagePath string, position int, altText string) (*models.MediaAttachment, error) {
	var m models.MediaAttachment
	err := d.db.QueryRow(`
		INSERT INTO media_attachments (project_id, storage_path, position, alt_text)
		VALUES ($1, $2, $3, $4)
		RETURNING id, project_id, storage_path, position, alt_text, created_at
	`, projectID, storagePath, position, altText).Scan(
		&m.ID, &m.ProjectID, &m.StoragePath, &m.Position, &m.AltText, &m.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, models.ErrConflict
		}
		return nil, fmt.Errorf("failed to insert media: %w", err)
	}
	return &m, nil
}

func (d *DatabaseClient) GetMedia(projectID, mediaID uuid.UUID) (*models.MediaAttachment, error) {
	var m models.MediaAttachment
	err := d.db.QueryRow(`
		SELECT id, project_id, storage_path, position, alt_text, created_at
		FROM media_attachments
		WHERE id = $1 AND project_id = $2
	`, mediaID, projectID).Scan(
		&m.ID, &m.ProjectID, &m.StoragePath, &m.Position, &m.AltText, &m.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get media: %w", err)
	}
	return &m, nil
}

// DeleteMedia removes the row only; remaining positions are not
// renumbered, so the freed slot becomes available to the next confirm.
func (d *DatabaseClient) DeleteMedia(projectID, mediaID uuid.UUID) error {
	res, err := d.db.Exec(`
		DELETE FROM media_attachments
		WHERE id = $1 AND project_id = $2
	`, mediaID, projectID)
	if err != nil {
		return fmt.Errorf("failed to delete media: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (d *DatabaseClient) UpdateMediaAltText(projectID, mediaID uuid.UUID, altText string) error {
	res, err := d.db.Exec(`
		UPDATE media_attachments
		SET alt_text = $1
		WHERE id = $2 AND project_id = $3
	`, altText, mediaID, projectID)
	if err != nil {
		return fmt.Errorf("failed to update alt text: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (d *DatabaseClient) Close() error {
	return d.db.Close()
}
