// Package datarecording stores flat Go structs as rows of SQLite tables.
package datarecording

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"sync"

	"github.com/fatih/structs"

	// Registers the sqlite3 driver.
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/xid"
	"github.com/tebeka/atexit"
)

// ErrInvalidEntry is returned for entries that cannot become a table row.
var ErrInvalidEntry = errors.New("datarecording: entry is invalid")

// DataRecorder is a backend that can record and store data
type DataRecorder interface {
	// CreateTable creates a new table whose columns are the fields of
	// sampleEntry.
	CreateTable(tableName string, sampleEntry any)

	// InsertData buffers an entry of a table that already exists.
	InsertData(tableName string, entry any)

	// ListTables returns a slice containing names of all tables
	ListTables() []string

	// Flush writes all the buffered entries into the database.
	Flush()

	// Close flushes and closes the database.
	Close() error
}

// defaultBatchSize is the number of buffered rows that triggers a flush.
const defaultBatchSize = 100000

// New creates a DataRecorder writing to path.sqlite3. An empty path picks a
// unique name. The file must not exist yet.
func New(path string) DataRecorder {
	if path == "" {
		path = "idma_recording_" + xid.New().String()
	}

	filename := path + ".sqlite3"
	if _, err := os.Stat(filename); err == nil {
		panic(fmt.Errorf("datarecording: file %s already exists", filename))
	}

	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		panic(err)
	}

	fmt.Fprintf(os.Stderr, "Database created for recording: %s\n", filename)

	return NewWithDB(db)
}

// NewWithDB creates a DataRecorder writing to db. Buffered rows are flushed
// when the program exits through atexit.
func NewWithDB(db *sql.DB) DataRecorder {
	w := &sqliteWriter{
		db:        db,
		batchSize: defaultBatchSize,
		tables:    make(map[string]*schema),
	}
	atexit.Register(w.Flush)

	return w
}

// schema is a table of the writer and the rows waiting for a flush.
type schema struct {
	name     string
	rowType  reflect.Type
	insert   string
	buffered [][]any
}

func newSchema(name string, sample any) (*schema, error) {
	rowType := reflect.TypeOf(sample)
	if rowType == nil || rowType.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %T is not a struct", ErrInvalidEntry, sample)
	}

	for i := 0; i < rowType.NumField(); i++ {
		f := rowType.Field(i)
		if !columnKinds[f.Type.Kind()] {
			return nil, fmt.Errorf("%w: field %s of kind %s",
				ErrInvalidEntry, f.Name, f.Type.Kind())
		}
	}

	marks := strings.TrimSuffix(strings.Repeat("?, ", rowType.NumField()), ", ")

	return &schema{
		name:    name,
		rowType: rowType,
		insert:  fmt.Sprintf("INSERT INTO %s VALUES (%s)", name, marks),
	}, nil
}

func (s *schema) createStatement(sample any) string {
	return fmt.Sprintf("CREATE TABLE %s (\n\t%s\n);",
		s.name, strings.Join(structs.Names(sample), ",\n\t"))
}

var columnKinds = map[reflect.Kind]bool{
	reflect.Bool:    true,
	reflect.Int:     true,
	reflect.Int8:    true,
	reflect.Int16:   true,
	reflect.Int32:   true,
	reflect.Int64:   true,
	reflect.Uint:    true,
	reflect.Uint8:   true,
	reflect.Uint16:  true,
	reflect.Uint32:  true,
	reflect.Uint64:  true,
	reflect.Float32: true,
	reflect.Float64: true,
	reflect.String:  true,
}

type sqliteWriter struct {
	db *sql.DB

	mu        sync.Mutex
	tables    map[string]*schema
	batchSize int
	buffered  int
}

func (w *sqliteWriter) CreateTable(tableName string, sampleEntry any) {
	s, err := newSchema(tableName, sampleEntry)
	if err != nil {
		panic(err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := w.db.Exec(s.createStatement(sampleEntry)); err != nil {
		panic(fmt.Errorf("datarecording: creating %s: %w", tableName, err))
	}

	w.tables[tableName] = s
}

func (w *sqliteWriter) InsertData(tableName string, entry any) {
	w.mu.Lock()
	defer w.mu.Unlock()

	s, ok := w.tables[tableName]
	if !ok {
		panic(fmt.Sprintf("datarecording: table %s does not exist", tableName))
	}

	if reflect.TypeOf(entry) != s.rowType {
		panic(fmt.Sprintf("datarecording: table %s stores %s, got %T",
			tableName, s.rowType, entry))
	}

	s.buffered = append(s.buffered, structs.Values(entry))
	w.buffered++

	if w.buffered >= w.batchSize {
		w.flush()
	}
}

func (w *sqliteWriter) ListTables() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	names := make([]string, 0, len(w.tables))
	for name := range w.tables {
		names = append(names, name)
	}

	return names
}

func (w *sqliteWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.flush()
}

func (w *sqliteWriter) flush() {
	if w.buffered == 0 {
		return
	}

	tx, err := w.db.Begin()
	if err != nil {
		panic(err)
	}

	for _, s := range w.tables {
		if err := insertAll(tx, s); err != nil {
			_ = tx.Rollback()
			panic(fmt.Errorf("datarecording: writing %s: %w", s.name, err))
		}
	}

	if err := tx.Commit(); err != nil {
		panic(err)
	}

	w.buffered = 0
}

func insertAll(tx *sql.Tx, s *schema) error {
	if len(s.buffered) == 0 {
		return nil
	}

	stmt, err := tx.Prepare(s.insert)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, row := range s.buffered {
		if _, err := stmt.Exec(row...); err != nil {
			return err
		}
	}

	s.buffered = nil

	return nil
}

func (w *sqliteWriter) Close() error {
	w.Flush()

	return w.db.Close()
}
