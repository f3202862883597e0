package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/turtacn/molgen/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molgen/pkg/errors"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLSource reads training examples from one table, one row per molecule.
type SQLSource struct {
	db             *sql.DB
	table          string
	numAtomsColumn string
	logger         logging.Logger
}

// SQLOption configures a SQLSource.
type SQLOption func(*SQLSource)

// WithTable sets the table name (default "molecules").
func WithTable(name string) SQLOption {
	return func(s *SQLSource) { s.table = name }
}

// WithNumAtomsColumn sets the node-count column (default "num_atoms").
func WithNumAtomsColumn(name string) SQLOption {
	return func(s *SQLSource) { s.numAtomsColumn = name }
}

// WithSQLLogger sets the logger.
func WithSQLLogger(l logging.Logger) SQLOption {
	return func(s *SQLSource) { s.logger = logging.OrNop(l) }
}

// NewSQLSource builds a source over db.  The database must use a driver that
// accepts double-quoted identifiers (PostgreSQL, SQLite).
func NewSQLSource(db *sql.DB, opts ...SQLOption) (*SQLSource, error) {
	s := &SQLSource{
		db:             db,
		table:          "molecules",
		numAtomsColumn: "num_atoms",
		logger:         logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if db == nil {
		return nil, errors.ConfigurationError("dataset database handle is required")
	}
	for _, id := range []string{s.table, s.numAtomsColumn} {
		if !identifierPattern.MatchString(id) {
			return nil, errors.ConfigurationError("invalid SQL identifier").WithDetail(id)
		}
	}
	return s, nil
}

func quote(id string) string { return `"` + id + `"` }

// Load reads num_atoms and the given property columns into a Table.  Rows
// with a NULL in any selected column are skipped.
func (s *SQLSource) Load(ctx context.Context, properties []string) (*Table, error) {
	cols := []string{quote(s.numAtomsColumn)}
	for _, p := range properties {
		if !identifierPattern.MatchString(p) {
			return nil, errors.ConfigurationError("invalid SQL identifier").WithDetail(p)
		}
		cols = append(cols, quote(p))
	}
	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(cols, ", "), quote(s.table))

	start := time.Now()
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to query training dataset").WithDetail(s.table)
	}
	defer rows.Close()

	var numAtoms []int
	columns := make(map[string][]float64, len(properties))
	skipped := 0

	atoms := sql.NullInt64{}
	values := make([]sql.NullFloat64, len(properties))
	dest := make([]any, 0, len(properties)+1)
	dest = append(dest, &atoms)
	for i := range values {
		dest = append(dest, &values[i])
	}

	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDataSourceParseError, "failed to scan training row")
		}
		if !atoms.Valid || !allValid(values) {
			skipped++
			continue
		}
		numAtoms = append(numAtoms, int(atoms.Int64))
		for i, p := range properties {
			columns[p] = append(columns[p], values[i].Float64)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to iterate training rows")
	}

	s.logger.Info("Loaded training dataset",
		logging.String("table", s.table),
		logging.Int("rows", len(numAtoms)),
		logging.Int("skipped", skipped),
		logging.Duration("elapsed", time.Since(start)),
	)
	return NewTable(numAtoms, columns)
}

// NodeCountHistogram counts rows per node count with a GROUP BY.
func (s *SQLSource) NodeCountHistogram(ctx context.Context) (map[int]int, error) {
	col := quote(s.numAtomsColumn)
	query := fmt.Sprintf("SELECT %s, COUNT(*) FROM %s WHERE %s IS NOT NULL GROUP BY %s",
		col, quote(s.table), col, col)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to query node count histogram").WithDetail(s.table)
	}
	defer rows.Close()

	out := make(map[int]int)
	for rows.Next() {
		var n, c int64
		if err := rows.Scan(&n, &c); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDataSourceParseError, "failed to scan histogram row")
		}
		out[int(n)] = int(c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to iterate histogram rows")
	}
	if len(out) == 0 {
		return nil, errors.ConfigurationError("training table is empty").WithDetail(s.table)
	}
	return out, nil
}

func allValid(values []sql.NullFloat64) bool {
	for _, v := range values {
		if !v.Valid {
			return false
		}
	}
	return true
}

//Personal.AI order the ending
