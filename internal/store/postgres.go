package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/contentradar/contentradar/pkg/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements the Store interface using pgx/v5.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// --- API Keys ---

func (s *PostgresStore) GetAPIKeyByPrefix(ctx context.Context, prefix string) ([]*models.APIKey, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, name, key_hash, key_prefix, scopes, last_used_at, deleted_at, created_at, updated_at
		 FROM api_keys WHERE key_prefix = $1 AND deleted_at IS NULL`, prefix)
	if err != nil {
		return nil, fmt.Errorf("get api key by prefix: %w", err)
	}
	defer rows.Close()

	var keys []*models.APIKey
	for rows.Next() {
		var k models.APIKey
		if err := rows.Scan(&k.ID, &k.UserID, &k.Name, &k.KeyHash, &k.KeyPrefix, &k.Scopes,
			&k.LastUsedAt, &k.DeletedAt, &k.CreatedAt, &k.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan api key: %w", err)
		}
		keys = append(keys, &k)
	}
	return keys, rows.Err()
}

func (s *PostgresStore) UpdateAPIKeyLastUsed(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE api_keys SET last_used_at = NOW(), updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("update api key last used: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateAPIKey(ctx context.Context, key *models.APIKey) error {
	now := time.Now().UTC()
	key.CreatedAt = now
	key.UpdatedAt = now
	_, err := s.pool.Exec(ctx,
		`INSERT INTO api_keys (id, user_id, name, key_hash, key_prefix, scopes, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		key.ID, key.UserID, key.Name, key.KeyHash, key.KeyPrefix, key.Scopes, key.CreatedAt, key.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create api key: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListAPIKeys(ctx context.Context, userID string) ([]*models.APIKey, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, name, key_hash, key_prefix, scopes, last_used_at, deleted_at, created_at, updated_at
		 FROM api_keys WHERE user_id = $1 AND deleted_at IS NULL ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list api keys: %w", err)
	}
	defer rows.Close()

	var keys []*models.APIKey
	for rows.Next() {
		var k models.APIKey
		if err := rows.Scan(&k.ID, &k.UserID, &k.Name, &k.KeyHash, &k.KeyPrefix, &k.Scopes,
			&k.LastUsedAt, &k.DeletedAt, &k.CreatedAt, &k.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan api key: %w", err)
		}
		keys = append(keys, &k)
	}
	return keys, rows.Err()
}

func (s *PostgresStore) RevokeAPIKey(ctx context.Context, id uuid.UUID, userID string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE api_keys SET deleted_at = NOW(), updated_at = NOW()
		 WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL`, id, userID)
	if err != nil {
		return fmt.Errorf("revoke api key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Projects ---

const projectColumns = `id, user_id, name, description, status, client, deadline, tags, created_at, updated_at`

func scanProject(row pgx.Row) (*models.Project, error) {
	var p models.Project
	err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.Description, &p.Status, &p.Client,
		&p.Deadline, &p.Tags, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *PostgresStore) CreateProject(ctx context.Context, p *models.Project) error {
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	_, err := s.pool.Exec(ctx,
		`INSERT INTO projects (id, user_id, name, description, status, client, deadline, tags, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		p.ID, p.UserID, p.Name, p.Description, p.Status, p.Client, p.Deadline, p.Tags,
		p.CreatedAt, p.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create project: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetProject(ctx context.Context, id uuid.UUID, userID string) (*models.Project, error) {
	p, err := scanProject(s.pool.QueryRow(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = $1 AND user_id = $2`, id, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) ListProjects(ctx context.Context, userID string) ([]*models.Project, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []*models.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (s *PostgresStore) UpdateProject(ctx context.Context, id uuid.UUID, userID string, opts ...ProjectUpdateOption) error {
	params := &projectUpdateParams{}
	for _, opt := range opts {
		opt(params)
	}

	query := `UPDATE projects SET updated_at = $3`
	args := []any{id, userID, time.Now().UTC()}
	argIdx := 4

	if params.Name != nil {
		query += fmt.Sprintf(", name = $%d", argIdx)
		args = append(args, *params.Name)
		argIdx++
	}
	if params.Description != nil {
		query += fmt.Sprintf(", description = $%d", argIdx)
		args = append(args, *params.Description)
		argIdx++
	}
	if params.Status != nil {
		query += fmt.Sprintf(", status = $%d", argIdx)
		args = append(args, *params.Status)
		argIdx++
	}
	if params.Client != nil {
		query += fmt.Sprintf(", client = $%d", argIdx)
		args = append(args, *params.Client)
		argIdx++
	}
	if params.Deadline != nil {
		query += fmt.Sprintf(", deadline = $%d", argIdx)
		args = append(args, *params.Deadline)
		argIdx++
	}
	if params.Tags != nil {
		query += fmt.Sprintf(", tags = $%d", argIdx)
		args = append(args, params.Tags)
		argIdx++
	}

	query += " WHERE id = $1 AND user_id = $2"

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteProject(ctx context.Context, id uuid.UUID, userID string) error {
	// captures.project_id and briefs.project_id are ON DELETE SET NULL, so
	// the content survives the project.
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM projects WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Captures ---

const captureColumns = `id, user_id, project_id, title, url, content, platform, tags, summary,
	 analysis_status, analysis, embedding, viral_score, created_at, updated_at`

func scanCapture(row pgx.Row) (*models.Capture, error) {
	var c models.Capture
	err := row.Scan(&c.ID, &c.UserID, &c.ProjectID, &c.Title, &c.URL, &c.Content, &c.Platform,
		&c.Tags, &c.Summary, &c.AnalysisStatus, &c.Analysis, &c.Embedding, &c.ViralScore,
		&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *PostgresStore) CreateCapture(ctx context.Context, c *models.Capture) error {
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	_, err := s.pool.Exec(ctx,
		`INSERT INTO captures (id, user_id, project_id, title, url, content, platform, tags, summary, analysis_status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		c.ID, c.UserID, c.ProjectID, c.Title, c.URL, c.Content, c.Platform, c.Tags, c.Summary,
		c.AnalysisStatus, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create capture: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetCapture(ctx context.Context, id uuid.UUID, userID string) (*models.Capture, error) {
	c, err := scanCapture(s.pool.QueryRow(ctx,
		`SELECT `+captureColumns+` FROM captures WHERE id = $1 AND user_id = $2`, id, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get capture: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) ListCaptures(ctx context.Context, filter CaptureFilter) ([]*models.Capture, int, error) {
	// Build WHERE clause dynamically
	conditions := []string{"user_id = $1"}
	args := []any{filter.UserID}
	argIdx := 2

	if filter.ProjectID != nil {
		conditions = append(conditions, fmt.Sprintf("project_id = $%d", argIdx))
		args = append(args, *filter.ProjectID)
		argIdx++
	}
	if filter.Platform != "" {
		conditions = append(conditions, fmt.Sprintf("platform = $%d", argIdx))
		args = append(args, filter.Platform)
		argIdx++
	}
	if filter.AnalysisStatus != "" {
		conditions = append(conditions, fmt.Sprintf("analysis_status = $%d", argIdx))
		args = append(args, filter.AnalysisStatus)
		argIdx++
	}
	if filter.Tag != "" {
		conditions = append(conditions, fmt.Sprintf("$%d = ANY(tags)", argIdx))
		args = append(args, filter.Tag)
		argIdx++
	}
	if !filter.Since.IsZero() {
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", argIdx))
		args = append(args, filter.Since)
		argIdx++
	}

	queryIdx := 0
	if filter.Query != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(title ILIKE '%%' || $%d || '%%' OR content ILIKE '%%' || $%d || '%%' OR summary ILIKE '%%' || $%d || '%%')",
			argIdx, argIdx, argIdx))
		args = append(args, filter.Query)
		queryIdx = argIdx
		argIdx++
	}

	where := strings.Join(conditions, " AND ")

	orderBy := "created_at DESC"
	switch filter.Sort {
	case SortViralScore:
		orderBy = "viral_score DESC NULLS LAST, created_at DESC"
	case SortRelevance:
		if queryIdx > 0 {
			orderBy = fmt.Sprintf(
				"ts_rank(to_tsvector('english', title || ' ' || content), plainto_tsquery('english', $%d)) DESC, created_at DESC",
				queryIdx)
		}
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM captures WHERE " + where
	if err := s.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count captures: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * limit

	dataQuery := fmt.Sprintf(
		`SELECT `+captureColumns+` FROM captures WHERE %s ORDER BY %s LIMIT $%d OFFSET $%d`,
		where, orderBy, argIdx, argIdx+1)
	args = append(args, limit, offset)

	rows, err := s.pool.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list captures: %w", err)
	}
	defer rows.Close()

	var captures []*models.Capture
	for rows.Next() {
		c, err := scanCapture(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan capture: %w", err)
		}
		captures = append(captures, c)
	}
	return captures, total, rows.Err()
}

func (s *PostgresStore) UpdateCapture(ctx context.Context, id uuid.UUID, userID string, opts ...CaptureUpdateOption) error {
	params := &captureUpdateParams{}
	for _, opt := range opts {
		opt(params)
	}

	query := `UPDATE captures SET updated_at = $3`
	args := []any{id, userID, time.Now().UTC()}
	argIdx := 4

	if params.Title != nil {
		query += fmt.Sprintf(", title = $%d", argIdx)
		args = append(args, *params.Title)
		argIdx++
	}
	if params.Content != nil {
		query += fmt.Sprintf(", content = $%d", argIdx)
		args = append(args, *params.Content)
		argIdx++
	}
	if params.Tags != nil {
		query += fmt.Sprintf(", tags = $%d", argIdx)
		args = append(args, params.Tags)
		argIdx++
	}
	if params.Summary != nil {
		query += fmt.Sprintf(", summary = $%d", argIdx)
		args = append(args, *params.Summary)
		argIdx++
	}
	if params.AnalysisStatus != nil {
		query += fmt.Sprintf(", analysis_status = $%d", argIdx)
		args = append(args, *params.AnalysisStatus)
		argIdx++
	}
	if params.Analysis != nil {
		query += fmt.Sprintf(", analysis = $%d", argIdx)
		args = append(args, params.Analysis)
		argIdx++
	}
	if params.Embedding != nil {
		query += fmt.Sprintf(", embedding = $%d", argIdx)
		args = append(args, params.Embedding)
		argIdx++
	}
	if params.ViralScore != nil {
		query += fmt.Sprintf(", viral_score = $%d", argIdx)
		args = append(args, *params.ViralScore)
		argIdx++
	}

	query += " WHERE id = $1 AND user_id = $2"

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update capture: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteCapture(ctx context.Context, id uuid.UUID, userID string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM captures WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete capture: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Briefs ---

func (s *PostgresStore) CreateBrief(ctx context.Context, b *models.Brief) error {
	now := time.Now().UTC()
	b.CreatedAt = now
	b.UpdatedAt = now
	_, err := s.pool.Exec(ctx,
		`INSERT INTO briefs (id, user_id, project_id, title, description, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		b.ID, b.UserID, b.ProjectID, b.Title, b.Description, b.Status, b.CreatedAt, b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create brief: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetBrief(ctx context.Context, id uuid.UUID, userID string) (*models.Brief, error) {
	var b models.Brief
	err := s.pool.QueryRow(ctx,
		`SELECT id, user_id, project_id, title, description, status, created_at, updated_at
		 FROM briefs WHERE id = $1 AND user_id = $2`, id, userID,
	).Scan(&b.ID, &b.UserID, &b.ProjectID, &b.Title, &b.Description, &b.Status, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get brief: %w", err)
	}
	return &b, nil
}

func (s *PostgresStore) ListBriefs(ctx context.Context, userID string, page, limit int) ([]*models.Brief, int, error) {
	var total int
	if err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM briefs WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count briefs: %w", err)
	}

	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * limit

	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, project_id, title, description, status, created_at, updated_at
		 FROM briefs WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list briefs: %w", err)
	}
	defer rows.Close()

	var briefs []*models.Brief
	for rows.Next() {
		var b models.Brief
		if err := rows.Scan(&b.ID, &b.UserID, &b.ProjectID, &b.Title, &b.Description, &b.Status,
			&b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan brief: %w", err)
		}
		briefs = append(briefs, &b)
	}
	return briefs, total, rows.Err()
}

func (s *PostgresStore) DeleteBrief(ctx context.Context, id uuid.UUID, userID string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM briefs WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete brief: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) AddBriefSlide(ctx context.Context, slide *models.BriefSlide) error {
	slide.CreatedAt = time.Now().UTC()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO brief_slides (id, brief_id, capture_id, section, position, notes, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		slide.ID, slide.BriefID, slide.CaptureID, slide.Section, slide.Position, slide.Notes, slide.CreatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("add brief slide: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListBriefSlides(ctx context.Context, briefID uuid.UUID) ([]*models.BriefSlide, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, brief_id, capture_id, section, position, notes, created_at
		 FROM brief_slides WHERE brief_id = $1 ORDER BY section, position`, briefID)
	if err != nil {
		return nil, fmt.Errorf("list brief slides: %w", err)
	}
	defer rows.Close()

	var slides []*models.BriefSlide
	for rows.Next() {
		var sl models.BriefSlide
		if err := rows.Scan(&sl.ID, &sl.BriefID, &sl.CaptureID, &sl.Section, &sl.Position,
			&sl.Notes, &sl.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan brief slide: %w", err)
		}
		slides = append(slides, &sl)
	}
	return slides, rows.Err()
}

func (s *PostgresStore) RemoveBriefSlide(ctx context.Context, briefID, slideID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM brief_slides WHERE id = $1 AND brief_id = $2`, slideID, briefID)
	if err != nil {
		return fmt.Errorf("remove brief slide: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Moments ---

func (s *PostgresStore) UpsertMoment(ctx context.Context, m *models.Moment) (*models.Moment, error) {
	var result models.Moment
	err := s.pool.QueryRow(ctx,
		`INSERT INTO moments (id, title, description, intensity, platforms, first_seen_at, last_seen_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (title) DO UPDATE SET
		   intensity = moments.intensity + EXCLUDED.intensity,
		   platforms = ARRAY(SELECT DISTINCT unnest(moments.platforms || EXCLUDED.platforms)),
		   last_seen_at = GREATEST(moments.last_seen_at, EXCLUDED.last_seen_at),
		   updated_at = NOW()
		 RETURNING id, title, description, intensity, platforms, first_seen_at, last_seen_at, created_at, updated_at`,
		m.ID, m.Title, m.Description, m.Intensity, m.Platforms, m.FirstSeenAt, m.LastSeenAt,
		m.CreatedAt, m.UpdatedAt,
	).Scan(&result.ID, &result.Title, &result.Description, &result.Intensity, &result.Platforms,
		&result.FirstSeenAt, &result.LastSeenAt, &result.CreatedAt, &result.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("upsert moment: %w", err)
	}
	return &result, nil
}

func (s *PostgresStore) ListMoments(ctx context.Context, since time.Time, limit int) ([]*models.Moment, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, title, description, intensity, platforms, first_seen_at, last_seen_at, created_at, updated_at
		 FROM moments WHERE last_seen_at >= $1 ORDER BY intensity DESC, last_seen_at DESC LIMIT $2`,
		since, limit)
	if err != nil {
		return nil, fmt.Errorf("list moments: %w", err)
	}
	defer rows.Close()

	var moments []*models.Moment
	for rows.Next() {
		var m models.Moment
		if err := rows.Scan(&m.ID, &m.Title, &m.Description, &m.Intensity, &m.Platforms,
			&m.FirstSeenAt, &m.LastSeenAt, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan moment: %w", err)
		}
		moments = append(moments, &m)
	}
	return moments, rows.Err()
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}
