package store

import "fmt"

// AuditEntry is one append-only row of the audit trail.
type AuditEntry struct {
	ID        int64
	Command   string
	Result    string
	RiskLevel string
	Timestamp string
}

// LogAction appends an entry to the audit trail. Entries are never mutated.
func (s *Store) LogAction(command, result, riskLevel string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO audit_trail (command, result, risk_level)
		VALUES (?, ?, ?)`, command, result, riskLevel)
	if err != nil {
		return fmt.Errorf("failed to log action: %w", err)
	}
	return nil
}

// RecentAudit returns the most recent n audit entries, newest first.
func (s *Store) RecentAudit(n int) ([]AuditEntry, error) {
	rows, err := s.db.Query(`
		SELECT id, command, COALESCE(result, ''), COALESCE(risk_level, ''), timestamp
		FROM audit_trail ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit trail: %w", err)
	}
	defer rows.Close()

	var entries []AuditEntry
	for rows.Next() {
		var e AuditEntry
		if err := rows.Scan(&e.ID, &e.Command, &e.Result, &e.RiskLevel, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
