// Package store is the concrete binding of the relational image: a
// single-file SQLite database created once from a dump and thereafter
// opened read-only.
package store

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
	"os"
	"regexp"

	"github.com/sirupsen/logrus"
	"modernc.org/sqlite"

	"github.com/ccm-backup-reader/ccmbackup/dump"
)

// statusLogRE extracts the "Status set to '<name>' by" transitions from a
// status_log textval; compiled once.
var statusLogRE = regexp.MustCompile(`Status set to '(\w+)' by`)

// ccmStatus is the ccm_status(status_log_text) -> string scalar function
// registered on every opened image: it returns the last "Status set to
// '<name>' by" match in the text, or "" when there isn't one.
func ccmStatus(ctx *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	if len(args) != 1 || args[0] == nil {
		return "", nil
	}
	text, ok := args[0].(string)
	if !ok {
		return "", nil
	}
	matches := statusLogRE.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return "", nil
	}
	return matches[len(matches)-1][1], nil
}

func init() {
	if err := sqlite.RegisterDeterministicScalarFunction("ccm_status", 1, ccmStatus); err != nil {
		panic(fmt.Sprintf("store: register ccm_status: %v", err))
	}
}

// Store wraps the read-only relational image.
type Store struct {
	log *logrus.Entry
	db  *sql.DB
}

// Open connects to an existing image file read-only and registers
// ccm_status at open time. Use Ingest to build one from a dump first.
func Open(log *logrus.Logger, imagePath string) (*Store, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	db, err := sql.Open("sqlite", "file:"+imagePath+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", imagePath, err)
	}
	return &Store{log: log.WithField("image", imagePath), db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying connection for packages (object, query) that
// need to run their own parameterised statements.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Ingest creates a fresh image file at imagePath from the dump at
// dumpPath, refusing to overwrite an existing file. It commits once per
// table_end event, bounding transaction size.
func Ingest(log *logrus.Logger, dumpPath, imagePath string) (*Store, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if _, err := os.Stat(imagePath); err == nil {
		return nil, fmt.Errorf("store: refusing to overwrite existing image %s", imagePath)
	}

	db, err := sql.Open("sqlite", imagePath)
	if err != nil {
		return nil, fmt.Errorf("store: create %s: %w", imagePath, err)
	}

	entry := log.WithField("image", imagePath)
	s := &Store{log: entry, db: db}

	lr, err := dump.OpenDumpFile(dumpPath)
	if err != nil {
		db.Close()
		os.Remove(imagePath)
		return nil, err
	}
	defer lr.Close()

	if err := s.ingestDump(dump.NewParser(lr)); err != nil {
		db.Close()
		os.Remove(imagePath)
		return nil, err
	}

	entry.Info("ingest complete")
	return s, nil
}

func (s *Store) ingestDump(p *dump.Parser) error {
	var tx *sql.Tx
	var stmt *sql.Stmt

	closeTable := func() error {
		if stmt != nil {
			stmt.Close()
			stmt = nil
		}
		if tx != nil {
			if err := tx.Commit(); err != nil {
				return fmt.Errorf("store: commit table: %w", err)
			}
			tx = nil
		}
		return nil
	}

	err := dump.Drain(p, func(ev dump.Event) error {
		switch ev.Kind {
		case dump.EventSchemaVersion:
			statements, err := schemaStatements(ev.SchemaVersion)
			if err != nil {
				return err
			}
			for _, ddl := range statements {
				if _, err := s.db.Exec(ddl); err != nil {
					return fmt.Errorf("store: create schema: %w", err)
				}
			}
			s.log.WithField("schemaversion", ev.SchemaVersion).Info("schema created")

		case dump.EventTableStart:
			columns, ok := tableColumns[ev.Table.Name]
			if !ok {
				return fmt.Errorf("store: unknown table %q", ev.Table.Name)
			}
			var err error
			tx, err = s.db.Begin()
			if err != nil {
				return fmt.Errorf("store: begin table %s: %w", ev.Table.Name, err)
			}
			stmt, err = tx.Prepare(insertStatement(ev.Table.Name, columns))
			if err != nil {
				return fmt.Errorf("store: prepare insert for %s: %w", ev.Table.Name, err)
			}

		case dump.EventTableRecord:
			if stmt == nil {
				return fmt.Errorf("store: table_record outside of a table")
			}
			if _, err := stmt.Exec(ev.Record...); err != nil {
				return fmt.Errorf("store: insert into %s: %w", ev.Table.Name, err)
			}

		case dump.EventTableEnd:
			if err := closeTable(); err != nil {
				return err
			}
			s.log.WithFields(logrus.Fields{"table": ev.Table.Name, "records": ev.Table.RecordCount}).Debug("table loaded")
		}
		return nil
	})
	if err != nil {
		return err
	}
	return closeTable()
}

func insertStatement(table string, columns []string) string {
	placeholders := make([]byte, 0, len(columns)*2)
	for i := range columns {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return fmt.Sprintf("INSERT INTO %s VALUES (%s)", table, string(placeholders))
}

// Query runs a parameterised SELECT and scans every row into a map keyed
// by column name, in the shape callers like object and query.Compiled
// consume.
func (s *Store) Query(sqlText string, args ...interface{}) ([]map[string]interface{}, error) {
	rows, err := s.db.Query(sqlText, args...)
	if err != nil {
		return nil, fmt.Errorf("store: query: %w", err)
	}
	defer rows.Close()
	return scanRows(rows)
}

func scanRows(rows *sql.Rows) ([]map[string]interface{}, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []map[string]interface{}
	for rows.Next() {
		values := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(map[string]interface{}, len(cols))
		for i, c := range cols {
			row[c] = values[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Delim returns the system-wide four-part-name delimiter, stored as the
// "delimiter" attribute on the distinguished object base~1:model:base.
func (s *Store) Delim() (string, error) {
	rows, err := s.Query(
		`SELECT attrib.strval FROM compver INNER JOIN attrib ON compver.id = attrib.is_attr_of
		 WHERE compver.name = 'base' AND compver.version = '1' AND compver.cvtype = 'model' AND compver.subsystem = 'base' AND attrib.name = 'delimiter'`,
	)
	if err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "", fmt.Errorf("store: delimiter attribute not found on base~1:model:base")
	}
	delim, _ := rows[0]["strval"].(string)
	return delim, nil
}
