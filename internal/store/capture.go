package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Capture is one exported gesture file.
type Capture struct {
	ID           string    `json:"id"`
	GestureName  string    `json:"gesture_name"`
	GestureIndex int       `json:"gesture_index"`
	Path         string    `json:"path"`
	Frames       int       `json:"frames"`
	Rows         int       `json:"rows"`
	CreatedAt    time.Time `json:"created_at"`
}

// CaptureRepository provides access to the capture journal.
type CaptureRepository struct {
	db *sql.DB
}

// Captures returns the capture repository for this store.
func (s *Store) Captures() *CaptureRepository {
	return &CaptureRepository{db: s.db}
}

// Create inserts a capture. An empty ID is filled with a new UUID.
func (r *CaptureRepository) Create(c *Capture) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}

	_, err := r.db.Exec(
		`INSERT INTO captures (id, gesture_name, gesture_index, path, frames, rows, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.GestureName, c.GestureIndex, c.Path, c.Frames, c.Rows, c.CreatedAt,
	)
	return err
}

// GetByID retrieves a capture by its ID.
func (r *CaptureRepository) GetByID(id string) (*Capture, error) {
	c := &Capture{}
	err := r.db.QueryRow(
		`SELECT id, gesture_name, gesture_index, path, frames, rows, created_at
		 FROM captures WHERE id = ?`,
		id,
	).Scan(&c.ID, &c.GestureName, &c.GestureIndex, &c.Path, &c.Frames, &c.Rows, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

// List returns captures newest first. A limit of 0 or less returns all of them.
func (r *CaptureRepository) List(limit int) ([]*Capture, error) {
	if limit <= 0 {
		limit = -1
	}
	return r.query(
		`SELECT id, gesture_name, gesture_index, path, frames, rows, created_at
		 FROM captures ORDER BY created_at DESC, gesture_index DESC LIMIT ?`,
		limit,
	)
}

// ListByGesture returns the captures of one gesture in index order.
func (r *CaptureRepository) ListByGesture(name string) ([]*Capture, error) {
	return r.query(
		`SELECT id, gesture_name, gesture_index, path, frames, rows, created_at
		 FROM captures WHERE gesture_name = ? ORDER BY gesture_index, created_at`,
		name,
	)
}

// Delete removes a capture from the journal. The file itself is left alone.
func (r *CaptureRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM captures WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *CaptureRepository) query(q string, args ...any) ([]*Capture, error) {
	rows, err := r.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var captures []*Capture
	for rows.Next() {
		c := &Capture{}
		if err := rows.Scan(&c.ID, &c.GestureName, &c.GestureIndex, &c.Path, &c.Frames, &c.Rows, &c.CreatedAt); err != nil {
			return nil, err
		}
		captures = append(captures, c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return captures, nil
}
