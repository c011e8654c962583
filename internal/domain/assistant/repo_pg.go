package assistant

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const linkCols = `id, patient_id, assistant_email, assistant_name, active, created_at`

func (r *repoPG) scan(row pgx.Row) (*Link, error) {
	var l Link
	err := row.Scan(&l.ID, &l.PatientID, &l.AssistantEmail, &l.AssistantName, &l.Active, &l.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrLinkNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *repoPG) Create(ctx context.Context, l *Link) error {
	l.ID = uuid.New()
	return r.pool.QueryRow(ctx, `
		INSERT INTO assistant_link (id, patient_id, assistant_email, assistant_name, active)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING created_at`,
		l.ID, l.PatientID, l.AssistantEmail, l.AssistantName, l.Active).Scan(&l.CreatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Link, error) {
	return r.scan(r.pool.QueryRow(ctx, `SELECT `+linkCols+` FROM assistant_link WHERE id = $1`, id))
}

func (r *repoPG) GetByEmail(ctx context.Context, email string) (*Link, error) {
	return r.scan(r.pool.QueryRow(ctx,
		`SELECT `+linkCols+` FROM assistant_link WHERE assistant_email = $1 AND active`, email))
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Link, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+linkCols+` FROM assistant_link WHERE patient_id = $1 ORDER BY created_at`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var links []*Link
	for rows.Next() {
		l, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		links = append(links, l)
	}
	return links, rows.Err()
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM assistant_link WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrLinkNotFound
	}
	return nil
}
