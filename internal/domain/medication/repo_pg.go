package medication

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

const medCols = `id, owner_id, name, form, doses_per_day, first_dose_time,
	condition, initial_stock, current_stock, treatment_days, is_chronic,
	expiry_date, color, details, alarms_active, active,
	calendar_event_ids, dose_log, created_at, updated_at`

func (r *repoPG) scan(row pgx.Row) (*Medication, error) {
	var m Medication
	err := row.Scan(&m.ID, &m.OwnerID, &m.Name, &m.Form, &m.DosesPerDay, &m.FirstDoseTime,
		&m.Condition, &m.InitialStock, &m.CurrentStock, &m.TreatmentDays, &m.IsChronic,
		&m.ExpiryDate, &m.Color, &m.Details, &m.AlarmsActive, &m.Active,
		&m.CalendarEventIDs, &m.DoseLog, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *repoPG) Create(ctx context.Context, m *Medication) error {
	m.ID = uuid.New()
	if m.DoseLog == nil {
		m.DoseLog = []DoseEntry{}
	}
	if m.CalendarEventIDs == nil {
		m.CalendarEventIDs = []string{}
	}
	return r.pool.QueryRow(ctx, `
		INSERT INTO medication (id, owner_id, name, form, doses_per_day, first_dose_time,
			condition, initial_stock, current_stock, treatment_days, is_chronic,
			expiry_date, color, details, alarms_active, active,
			calendar_event_ids, dose_log)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
		RETURNING created_at, updated_at`,
		m.ID, m.OwnerID, m.Name, m.Form, m.DosesPerDay, m.FirstDoseTime,
		m.Condition, m.InitialStock, m.CurrentStock, m.TreatmentDays, m.IsChronic,
		m.ExpiryDate, m.Color, m.Details, m.AlarmsActive, m.Active,
		m.CalendarEventIDs, m.DoseLog).Scan(&m.CreatedAt, &m.UpdatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Medication, error) {
	return r.scan(r.pool.QueryRow(ctx, `SELECT `+medCols+` FROM medication WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, m *Medication) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE medication SET name=$2, form=$3, doses_per_day=$4, first_dose_time=$5,
			condition=$6, initial_stock=$7, current_stock=$8, treatment_days=$9,
			is_chronic=$10, expiry_date=$11, color=$12, details=$13,
			alarms_active=$14, active=$15, calendar_event_ids=$16, dose_log=$17,
			updated_at=NOW()
		WHERE id = $1`,
		m.ID, m.Name, m.Form, m.DosesPerDay, m.FirstDoseTime,
		m.Condition, m.InitialStock, m.CurrentStock, m.TreatmentDays,
		m.IsChronic, m.ExpiryDate, m.Color, m.Details,
		m.AlarmsActive, m.Active, m.CalendarEventIDs, m.DoseLog)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM medication WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]*Medication, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM medication WHERE owner_id = $1`, ownerID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+medCols+` FROM medication
		WHERE owner_id = $1
		ORDER BY first_dose_time, name
		LIMIT $2 OFFSET $3`, ownerID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Medication
	for rows.Next() {
		m, err := r.scan(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, m)
	}
	return items, total, rows.Err()
}

func (r *repoPG) DistinctOwners(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT owner_id FROM medication`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var owners []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		owners = append(owners, id)
	}
	return owners, rows.Err()
}
