package store

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Activation is one played jutsu.
type Activation struct {
	ID             string     `json:"id"`
	ComboID        string     `json:"combo_id"`
	Name           string     `json:"name"`
	DurationFrames int        `json:"duration_frames"`
	StartedAt      time.Time  `json:"started_at"`
	EndedAt        *time.Time `json:"ended_at,omitempty"`
	EndReason      string     `json:"end_reason,omitempty"`
}

// ActivationRepository records activation history.
type ActivationRepository struct {
	db *sql.DB
}

// Activations returns the activation repository for this store.
func (s *Store) Activations() *ActivationRepository {
	return &ActivationRepository{db: s.db}
}

// Create inserts an activation, filling in the id and start time if unset.
func (r *ActivationRepository) Create(a *Activation) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.StartedAt.IsZero() {
		a.StartedAt = time.Now()
	}

	_, err := r.db.Exec(
		`INSERT INTO activations (id, combo_id, name, duration_frames, started_at)
		 VALUES (?, ?, ?, ?, ?)`,
		a.ID, a.ComboID, a.Name, a.DurationFrames, a.StartedAt,
	)
	return err
}

// Finish marks an activation as ended now with the given reason.
func (r *ActivationRepository) Finish(id, reason string) error {
	result, err := r.db.Exec(
		`UPDATE activations SET ended_at = ?, end_reason = ? WHERE id = ? AND ended_at IS NULL`,
		time.Now(), reason, id,
	)
	if err != nil {
		return err
	}
	return rowsAffectedOrNotFound(result)
}

// List returns the most recent activations first. A non-positive limit
// returns all of them.
func (r *ActivationRepository) List(limit int) ([]*Activation, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.Query(
		`SELECT id, combo_id, name, duration_frames, started_at, ended_at, end_reason
		 FROM activations ORDER BY started_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Activation
	for rows.Next() {
		a := &Activation{}
		var ended sql.NullTime
		if err := rows.Scan(&a.ID, &a.ComboID, &a.Name, &a.DurationFrames, &a.StartedAt, &ended, &a.EndReason); err != nil {
			return nil, err
		}
		if ended.Valid {
			t := ended.Time
			a.EndedAt = &t
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
