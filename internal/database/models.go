package database

import "time"

// DefaultTableName is the table the importer writes and the server reads
// when no other name is given.
const DefaultTableName = "vsop87d-earth"

// CoefficientTable describes one imported table.
type CoefficientTable struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	Source    string     `json:"source"`
	TermCount int        `json:"term_count"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}
