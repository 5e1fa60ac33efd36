// Package species serves the reference list the checklist form offers.
package species

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

// List returns species names, optionally filtered by a case-insensitive
// contains search, name-ordered.
func (r *Repo) List(ctx context.Context, search string) ([]string, error) {
	sqlStr := `SELECT name FROM species`
	var args []any
	if s := strings.TrimSpace(search); s != "" {
		sqlStr += ` WHERE LOWER(name) LIKE ?`
		args = append(args, "%"+strings.ToLower(s)+"%")
	}
	sqlStr += ` ORDER BY name ASC`

	rows, err := r.DB.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("list species: %w", err)
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan species: %w", err)
		}
		out = append(out, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}
