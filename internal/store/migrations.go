package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Combo library; sequence is a comma-separated list of seal names.
		`CREATE TABLE IF NOT EXISTS combos (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			sequence TEXT NOT NULL,
			duration_frames INTEGER,
			position INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		// Activation history. combo_id is kept even if the combo is later deleted.
		`CREATE TABLE IF NOT EXISTS activations (
			id TEXT PRIMARY KEY,
			combo_id TEXT NOT NULL,
			name TEXT NOT NULL,
			duration_frames INTEGER NOT NULL,
			started_at DATETIME NOT NULL,
			ended_at DATETIME,
			end_reason TEXT NOT NULL DEFAULT ''
		)`,

		`CREATE INDEX IF NOT EXISTS idx_combos_position ON combos(position)`,
		`CREATE INDEX IF NOT EXISTS idx_activations_started_at ON activations(started_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}
	return nil
}
