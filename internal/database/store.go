package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"maps"
	"math"
	"slices"
	"strings"
	"time"

	"chatapp-client/internal/chaterr"
	"chatapp-client/internal/entities"
	"chatapp-client/internal/snowflake"

	"go.uber.org/zap"
)

// Store is the SQL backed entities.Store. Identifiers come from a snowflake
// generator, so a record's identifier also orders it by creation.
type Store struct {
	db    *sql.DB
	ids   *snowflake.Generator
	sugar *zap.SugaredLogger
}

var _ entities.Store = (*Store)(nil)

func NewStore(db *sql.DB, ids *snowflake.Generator, sugar *zap.SugaredLogger) *Store {
	return &Store{db: db, ids: ids, sugar: sugar}
}

func lookupTable(kind entities.Kind) (table, error) {
	t, ok := tables[kind]
	if !ok {
		return table{}, chaterr.Invalid("unknown kind %q", kind)
	}
	return t, nil
}

// value converts v into the form kept in a Record and the form sent to
// the driver.
func (c column) value(v any) (recordValue any, arg any, err error) {
	switch c.typ {
	case colInt:
		switch n := v.(type) {
		case int64:
			return n, n, nil
		case int:
			return int64(n), int64(n), nil
		case int32:
			return int64(n), int64(n), nil
		case float64:
			if n != math.Trunc(n) {
				break
			}
			return int64(n), int64(n), nil
		}
	case colText:
		if s, ok := v.(string); ok {
			return s, s, nil
		}
	case colBool:
		if b, ok := v.(bool); ok {
			return b, b, nil
		}
	case colTime:
		if t, ok := v.(time.Time); ok {
			t = t.UTC().Truncate(time.Millisecond)
			return t, t.UnixMilli(), nil
		}
	}
	return nil, nil, chaterr.Invalid("field %s: unsupported value %v (%T)", c.name, v, v)
}

func (s *Store) Get(ctx context.Context, kind entities.Kind, id int64) (entities.Record, error) {
	t, err := lookupTable(kind)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = ?", strings.Join(t.columnNames(), ", "), t.name)

	row := s.db.QueryRowContext(ctx, query, id)
	rec, err := scanRecord(t, row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s %d: %w", kind, id, chaterr.ErrNotFound)
	} else if err != nil {
		return nil, chaterr.Unavailable(err)
	}

	return rec, nil
}

func (s *Store) Filter(ctx context.Context, kind entities.Kind, q entities.Query) ([]entities.Record, error) {
	t, err := lookupTable(kind)
	if err != nil {
		return nil, err
	}

	var where []string
	var args []any

	// sorted keys keep the generated statement stable
	for _, key := range slices.Sorted(maps.Keys(q.Where)) {
		c, ok := t.column(key)
		if !ok {
			return nil, chaterr.Invalid("unknown field %s on %s", key, kind)
		}
		_, arg, err := c.value(q.Where[key])
		if err != nil {
			return nil, err
		}
		where = append(where, key+" = ?")
		args = append(args, arg)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s", strings.Join(t.columnNames(), ", "), t.name)
	if len(where) > 0 {
		fmt.Fprintf(&b, " WHERE %s", strings.Join(where, " AND "))
	}

	order, err := orderClause(t, q.OrderBy)
	if err != nil {
		return nil, err
	}
	b.WriteString(order)

	if q.Limit > 0 {
		b.WriteString(" LIMIT ?")
		args = append(args, q.Limit)
	}

	rows, err := s.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, chaterr.Unavailable(err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			s.sugar.Error(err)
		}
	}()

	records := []entities.Record{}
	for rows.Next() {
		rec, err := scanRecord(t, rows.Scan)
		if err != nil {
			return nil, chaterr.Unavailable(err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, chaterr.Unavailable(err)
	}

	return records, nil
}

func (s *Store) List(ctx context.Context, kind entities.Kind, orderBy string) ([]entities.Record, error) {
	return s.Filter(ctx, kind, entities.Query{OrderBy: orderBy})
}

func (s *Store) Create(ctx context.Context, kind entities.Kind, fields entities.Fields) (entities.Record, error) {
	t, err := lookupTable(kind)
	if err != nil {
		return nil, err
	}

	query, args, rec, err := s.prepareInsert(t, fields)
	if err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, chaterr.Unavailable(err)
	}

	s.sugar.Debugf("Created %s %d", kind, rec.ID())

	return rec, nil
}

func (s *Store) BulkCreate(ctx context.Context, kind entities.Kind, fields []entities.Fields) ([]entities.Record, error) {
	t, err := lookupTable(kind)
	if err != nil {
		return nil, err
	}

	type insert struct {
		query string
		args  []any
	}

	inserts := make([]insert, 0, len(fields))
	records := make([]entities.Record, 0, len(fields))
	for _, f := range fields {
		query, args, rec, err := s.prepareInsert(t, f)
		if err != nil {
			return nil, err
		}
		inserts = append(inserts, insert{query, args})
		records = append(records, rec)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, chaterr.Unavailable(err)
	}

	for _, in := range inserts {
		_, err = tx.ExecContext(ctx, in.query, in.args...)
		if err != nil {
			rollbackErr := tx.Rollback()
			if rollbackErr != nil {
				s.sugar.Error(rollbackErr)
			}
			return nil, chaterr.Unavailable(err)
		}
	}

	err = tx.Commit()
	if err != nil {
		return nil, chaterr.Unavailable(err)
	}

	s.sugar.Debugf("Created %d %s records", len(records), kind)

	return records, nil
}

// UpdateUser overwrites the given user fields. Only the identity provider
// uses it; records are otherwise immutable.
func (s *Store) UpdateUser(ctx context.Context, id int64, fields entities.Fields) (entities.Record, error) {
	t := tables[entities.KindUser]

	_, err := s.Get(ctx, entities.KindUser, id)
	if err != nil {
		return nil, err
	}

	var set []string
	var args []any
	for _, key := range slices.Sorted(maps.Keys(fields)) {
		c, ok := t.column(key)
		if !ok || key == entities.FieldID || key == entities.FieldCreatedDate {
			return nil, chaterr.Invalid("field %s can't be updated", key)
		}
		_, arg, err := c.value(fields[key])
		if err != nil {
			return nil, err
		}
		set = append(set, key+" = ?")
		args = append(args, arg)
	}

	if len(set) > 0 {
		args = append(args, id)
		_, err = s.db.ExecContext(ctx, fmt.Sprintf("UPDATE %s SET %s WHERE id = ?", t.name, strings.Join(set, ", ")), args...)
		if err != nil {
			return nil, chaterr.Unavailable(err)
		}
	}

	return s.Get(ctx, entities.KindUser, id)
}

func (s *Store) prepareInsert(t table, fields entities.Fields) (string, []any, entities.Record, error) {
	id, createdAt, err := s.ids.Generate()
	if err != nil {
		return "", nil, nil, chaterr.Unavailable(err)
	}

	rec := entities.Record{
		entities.FieldID:          id,
		entities.FieldCreatedDate: createdAt,
	}
	names := []string{entities.FieldID, entities.FieldCreatedDate}
	args := []any{id, createdAt.UnixMilli()}

	for _, key := range slices.Sorted(maps.Keys(fields)) {
		if key == entities.FieldID || key == entities.FieldCreatedDate {
			return "", nil, nil, chaterr.Invalid("field %s is assigned by the store", key)
		}
		c, ok := t.column(key)
		if !ok {
			return "", nil, nil, chaterr.Invalid("unknown field %s on %s", key, t.name)
		}
		recordValue, arg, err := c.value(fields[key])
		if err != nil {
			return "", nil, nil, err
		}
		rec[key] = recordValue
		names = append(names, key)
		args = append(args, arg)
	}

	// columns the caller left out come back with their stored defaults
	for _, c := range t.columns {
		if _, ok := rec[c.name]; ok {
			continue
		}
		switch c.typ {
		case colInt:
			rec[c.name] = int64(0)
		case colBool:
			rec[c.name] = false
		}
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(names)), ", ")
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", t.name, strings.Join(names, ", "), placeholders)

	return query, args, rec, nil
}

func orderClause(t table, orderBy string) (string, error) {
	if orderBy == "" {
		return " ORDER BY id ASC", nil
	}

	field, desc := entities.ParseOrder(orderBy)
	if _, ok := t.column(field); !ok {
		return "", chaterr.Invalid("unknown order field %s on %s", field, t.name)
	}

	direction := "ASC"
	if desc {
		direction = "DESC"
	}

	if field == entities.FieldID {
		return fmt.Sprintf(" ORDER BY id %s", direction), nil
	}
	return fmt.Sprintf(" ORDER BY %s %s, id %s", field, direction, direction), nil
}

func scanRecord(t table, scan func(dest ...any) error) (entities.Record, error) {
	dest := make([]any, len(t.columns))
	for i, c := range t.columns {
		switch c.typ {
		case colText:
			dest[i] = new(sql.NullString)
		case colBool:
			dest[i] = new(sql.NullBool)
		default:
			dest[i] = new(sql.NullInt64)
		}
	}

	err := scan(dest...)
	if err != nil {
		return nil, err
	}

	rec := make(entities.Record, len(t.columns))
	for i, c := range t.columns {
		switch v := dest[i].(type) {
		case *sql.NullString:
			if v.Valid {
				rec[c.name] = v.String
			}
		case *sql.NullBool:
			if v.Valid {
				rec[c.name] = v.Bool
			}
		case *sql.NullInt64:
			if !v.Valid {
				continue
			}
			if c.typ == colTime {
				rec[c.name] = time.UnixMilli(v.Int64).UTC()
			} else {
				rec[c.name] = v.Int64
			}
		}
	}

	return rec, nil
}
