package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ayusman/jutsu/internal/gesture"
)

// ComboRepository provides CRUD operations for the combo library.
type ComboRepository struct {
	db *sql.DB
}

// Combos returns the combo repository for this store.
func (s *Store) Combos() *ComboRepository {
	return &ComboRepository{db: s.db}
}

func encodeSequence(seq []gesture.Gesture) string {
	names := make([]string, len(seq))
	for i, g := range seq {
		names[i] = g.String()
	}
	return strings.Join(names, ",")
}

func decodeSequence(s string) ([]gesture.Gesture, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	seq := make([]gesture.Gesture, len(parts))
	for i, p := range parts {
		g, err := gesture.ParseGesture(p)
		if err != nil {
			return nil, err
		}
		seq[i] = g
	}
	return seq, nil
}

func nullableDuration(d int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(d), Valid: d > 0}
}

// Create validates and inserts a combo at the end of the list.
func (r *ComboRepository) Create(c gesture.ComboDefinition) error {
	if err := c.Validate(); err != nil {
		return err
	}

	now := time.Now()
	_, err := r.db.Exec(
		`INSERT INTO combos (id, name, sequence, duration_frames, position, created_at, updated_at)
		 VALUES (?, ?, ?, ?, (SELECT COALESCE(MAX(position), -1) + 1 FROM combos), ?, ?)`,
		c.ID, c.Name, encodeSequence(c.Sequence), nullableDuration(c.Duration), now, now,
	)
	if err != nil {
		return fmt.Errorf("insert combo %s: %w", c.ID, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCombo(row rowScanner) (gesture.ComboDefinition, error) {
	var (
		c        gesture.ComboDefinition
		sequence string
		duration sql.NullInt64
	)
	if err := row.Scan(&c.ID, &c.Name, &sequence, &duration); err != nil {
		return c, err
	}
	seq, err := decodeSequence(sequence)
	if err != nil {
		return c, fmt.Errorf("combo %s: %w", c.ID, err)
	}
	c.Sequence = seq
	if duration.Valid {
		c.Duration = int(duration.Int64)
	}
	return c, nil
}

// GetByID retrieves a combo by its id.
func (r *ComboRepository) GetByID(id string) (gesture.ComboDefinition, error) {
	c, err := scanCombo(r.db.QueryRow(
		`SELECT id, name, sequence, duration_frames FROM combos WHERE id = ?`, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return c, ErrNotFound
	}
	return c, err
}

// List returns every combo in list order.
func (r *ComboRepository) List() ([]gesture.ComboDefinition, error) {
	rows, err := r.db.Query(
		`SELECT id, name, sequence, duration_frames FROM combos ORDER BY position, id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var combos []gesture.ComboDefinition
	for rows.Next() {
		c, err := scanCombo(rows)
		if err != nil {
			return nil, err
		}
		combos = append(combos, c)
	}
	return combos, rows.Err()
}

// Update replaces a combo's name, sequence and duration.
func (r *ComboRepository) Update(c gesture.ComboDefinition) error {
	if err := c.Validate(); err != nil {
		return err
	}

	result, err := r.db.Exec(
		`UPDATE combos SET name = ?, sequence = ?, duration_frames = ?, updated_at = ? WHERE id = ?`,
		c.Name, encodeSequence(c.Sequence), nullableDuration(c.Duration), time.Now(), c.ID,
	)
	if err != nil {
		return err
	}
	return rowsAffectedOrNotFound(result)
}

// Delete removes a combo by id.
func (r *ComboRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM combos WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return rowsAffectedOrNotFound(result)
}

// Count returns the number of stored combos.
func (r *ComboRepository) Count() (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM combos`).Scan(&n)
	return n, err
}

// SeedCombos inserts defaults when the library is empty. It reports whether
// anything was inserted.
func (r *ComboRepository) SeedCombos(defaults []gesture.ComboDefinition) (bool, error) {
	n, err := r.Count()
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	for _, c := range defaults {
		if err := r.Create(c); err != nil {
			return false, err
		}
	}
	return len(defaults) > 0, nil
}
