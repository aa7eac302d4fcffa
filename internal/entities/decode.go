package entities

import (
	"context"
	"encoding/json"

	"chatapp-client/internal/chaterr"
	"chatapp-client/internal/validator"
)

type normalizer interface {
	Normalize()
}

// Decode converts a raw record into T, applies T's normalization and
// validates it. It is the only place raw records become typed values.
func Decode[T any](rec Record) (T, error) {
	var out T

	bytes, err := json.Marshal(rec)
	if err != nil {
		return out, chaterr.Invalid("record %d: %v", rec.ID(), err)
	}

	err = json.Unmarshal(bytes, &out)
	if err != nil {
		return out, chaterr.Invalid("record %d: %v", rec.ID(), err)
	}

	if n, ok := any(&out).(normalizer); ok {
		n.Normalize()
	}

	err = validator.Struct(out)
	if err != nil {
		return out, err
	}

	return out, nil
}

// DecodeAll decodes every record and fails on the first bad one.
func DecodeAll[T any](recs []Record) ([]T, error) {
	out := make([]T, 0, len(recs))
	for _, rec := range recs {
		v, err := Decode[T](rec)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// DecodeEach decodes what it can and reports the rest.
func DecodeEach[T any](recs []Record) ([]T, []error) {
	out := make([]T, 0, len(recs))
	var errs []error
	for _, rec := range recs {
		v, err := Decode[T](rec)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, v)
	}
	return out, errs
}

func GetAs[T any](ctx context.Context, s Store, kind Kind, id int64) (T, error) {
	rec, err := s.Get(ctx, kind, id)
	if err != nil {
		var zero T
		return zero, err
	}
	return Decode[T](rec)
}

func FilterAs[T any](ctx context.Context, s Store, kind Kind, q Query) ([]T, error) {
	recs, err := s.Filter(ctx, kind, q)
	if err != nil {
		return nil, err
	}
	return DecodeAll[T](recs)
}

func ListAs[T any](ctx context.Context, s Store, kind Kind, orderBy string) ([]T, error) {
	recs, err := s.List(ctx, kind, orderBy)
	if err != nil {
		return nil, err
	}
	return DecodeAll[T](recs)
}

func CreateAs[T any](ctx context.Context, s Store, kind Kind, fields Fields) (T, error) {
	rec, err := s.Create(ctx, kind, fields)
	if err != nil {
		var zero T
		return zero, err
	}
	return Decode[T](rec)
}

func BulkCreateAs[T any](ctx context.Context, s Store, kind Kind, fields []Fields) ([]T, error) {
	recs, err := s.BulkCreate(ctx, kind, fields)
	if err != nil {
		return nil, err
	}
	return DecodeAll[T](recs)
}
