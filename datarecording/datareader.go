package datarecording

import (
	"context"
	"database/sql"
	"fmt"
	"reflect"
	"strings"
)

// QueryParams narrows and orders a query.
type QueryParams struct {
	// Where is a condition without the WHERE keyword, for example
	// "Mismatches > ? AND Core = ?". Args fill its placeholders.
	Where string
	Args  []any

	// Limit caps the number of rows; 0 means no cap.
	Limit int

	// OrderBy is an ordering without the ORDER BY keywords.
	OrderBy string
}

func (p QueryParams) sql(table string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "SELECT * FROM %s", table)

	if p.Where != "" {
		fmt.Fprintf(&b, " WHERE %s", p.Where)
	}

	if p.OrderBy != "" {
		fmt.Fprintf(&b, " ORDER BY %s", p.OrderBy)
	}

	if p.Limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", p.Limit)
	}

	return b.String()
}

// DataReader reads tables written by a DataRecorder.
type DataReader interface {
	// MapTable tells the reader which struct a table's rows decode into.
	// Tables must be mapped before they are queried.
	MapTable(tableName string, sampleEntry any)

	// ListTables returns the tables present in the database.
	ListTables(ctx context.Context) ([]string, error)

	// Query returns the rows of a mapped table as values of its struct type.
	Query(ctx context.Context, tableName string, params QueryParams) (
		[]any, error)

	// Close closes the database.
	Close() error
}

// NewReader opens the SQLite file dbFilename.
func NewReader(dbFilename string) DataReader {
	db, err := sql.Open("sqlite3", dbFilename)
	if err != nil {
		panic(err)
	}

	return NewReaderWithDB(db)
}

// NewReaderWithDB creates a DataReader on an open database.
func NewReaderWithDB(db *sql.DB) DataReader {
	return &sqliteReader{
		db:      db,
		rowType: make(map[string]reflect.Type),
	}
}

type sqliteReader struct {
	db      *sql.DB
	rowType map[string]reflect.Type
}

func (r *sqliteReader) MapTable(tableName string, sampleEntry any) {
	r.rowType[tableName] = reflect.TypeOf(sampleEntry)
}

func (r *sqliteReader) ListTables(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT name FROM sqlite_master WHERE type='table' ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}

		names = append(names, name)
	}

	return names, rows.Err()
}

func (r *sqliteReader) Query(
	ctx context.Context,
	tableName string,
	params QueryParams,
) ([]any, error) {
	rowType, ok := r.rowType[tableName]
	if !ok {
		return nil, fmt.Errorf("datarecording: table %s is not mapped",
			tableName)
	}

	rows, err := r.db.QueryContext(ctx, params.sql(tableName), params.Args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return decodeRows(rows, rowType)
}

// decodeRows fills one rowType value per row, matching columns to fields by
// name. Columns without a field are skipped.
func decodeRows(rows *sql.Rows, rowType reflect.Type) ([]any, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var (
		results []any
		skip    any
	)

	for rows.Next() {
		row := reflect.New(rowType).Elem()
		dest := make([]any, len(columns))

		for i, col := range columns {
			if f := row.FieldByName(col); f.IsValid() && f.CanSet() {
				dest[i] = f.Addr().Interface()
			} else {
				dest[i] = &skip
			}
		}

		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}

		results = append(results, row.Interface())
	}

	return results, rows.Err()
}

func (r *sqliteReader) Close() error {
	return r.db.Close()
}
