package drafts

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"
)

// ErrInvalidFile is returned by Import when the input is not a well-formed
// draft export. Existing drafts are left untouched in that case.
var ErrInvalidFile = errors.New("invalid draft file")

// Export writes all draft bodies as a JSON array of strings, the portable
// interchange format also accepted by Import.
func (s *Store) Export(w io.Writer) error {
	drafts, err := s.List()
	if err != nil {
		return err
	}

	bodies := make([]string, 0, len(drafts))
	for _, d := range drafts {
		bodies = append(bodies, d.Body)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(bodies)
}

// Import replaces all drafts with the contents of a previously exported
// file. The input is validated in full before any write: malformed data
// fails with ErrInvalidFile and leaves the current drafts unchanged. The
// replacement happens in one transaction.
func (s *Store) Import(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	var bodies []string
	if err := json.Unmarshal(data, &bodies); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}
	if bodies == nil {
		return fmt.Errorf("%w: expected a JSON array of strings", ErrInvalidFile)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM drafts`); err != nil {
		return err
	}

	now := time.Now().UTC()
	for _, body := range bodies {
		if _, err := tx.Exec(`INSERT INTO drafts (body, updated_at) VALUES (?, ?)`, body, now); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	logger.Info("imported drafts", "count", len(bodies))
	return nil
}
