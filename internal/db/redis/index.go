package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/scopeq/internal/db"
	"github.com/kailas-cloud/scopeq/internal/domain/resource"
)

// keyNamespace prefixes every key and index the store reads.
const keyNamespace = "scopeq"

// KeyPrefix returns the hash key prefix records of source are stored under.
func KeyPrefix(source string) string {
	return keyNamespace + ":" + source + ":"
}

// IndexName returns the FT index name of source.
func IndexName(source string) string {
	return keyNamespace + ":" + source + ":idx"
}

// IndexFor derives the FT index of def: strings and uuids become
// case-sensitive TAG fields, every other type a NUMERIC field.
func IndexFor(def *resource.Definition) (*db.IndexDefinition, error) {
	b := db.NewIndex(IndexName(def.Source), KeyPrefix(def.Source))
	for _, c := range def.Columns {
		b.Column(c.Name, c.Type)
	}
	return b.Build()
}

func isTag(t resource.ValueType) bool {
	return db.IndexFieldTypeFor(t) == db.IndexFieldTag
}

// Migrate creates the FT index of every configured resource. Existing indexes are kept.
func (s *Store) Migrate(ctx context.Context) error {
	for i := range s.resources {
		if err := s.EnsureIndex(ctx, &s.resources[i]); err != nil {
			return err
		}
	}
	return nil
}

// EnsureIndex creates the FT index of def unless it already exists.
func (s *Store) EnsureIndex(ctx context.Context, def *resource.Definition) error {
	idx, err := IndexFor(def)
	if err != nil {
		return fmt.Errorf("index for %s: %w", def.Name, err)
	}
	if err := s.CreateIndex(ctx, idx); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return err
	}
	return nil
}

// Reindex drops the index of every configured resource and creates it
// again, so RediSearch rescans the hashes under its prefix.
func (s *Store) Reindex(ctx context.Context) error {
	for i := range s.resources {
		name := IndexName(s.resources[i].Source)
		exists, err := s.IndexExists(ctx, name)
		if err != nil {
			return err
		}
		if exists {
			if err := s.DropIndex(ctx, name); err != nil {
				return err
			}
		}
		if err := s.EnsureIndex(ctx, &s.resources[i]); err != nil {
			return err
		}
	}
	return nil
}

const (
	replyIndexExists  = "index already exists"
	replyUnknownIndex = "unknown index name"
)

// CreateIndex runs FT.CREATE for def. An existing index yields db.ErrIndexExists.
func (s *Store) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	args, err := buildCreateArgs(def)
	if err != nil {
		return err
	}
	switch err := s.ft(ctx, "FT.CREATE", args...).Error(); {
	case err == nil:
		return nil
	case isRedisErr(err, replyIndexExists):
		return db.ErrIndexExists
	default:
		return &db.Error{Op: db.OpCreateIndex, Err: err}
	}
}

// DropIndex runs FT.DROPINDEX. Indexed hashes are kept.
func (s *Store) DropIndex(ctx context.Context, name string) error {
	switch err := s.ft(ctx, "FT.DROPINDEX", name).Error(); {
	case err == nil:
		return nil
	case isRedisErr(err, replyUnknownIndex):
		return db.ErrIndexNotFound
	default:
		return &db.Error{Op: db.OpDropIndex, Err: err}
	}
}

// IndexExists probes the index with FT.INFO.
func (s *Store) IndexExists(ctx context.Context, name string) (bool, error) {
	switch err := s.ft(ctx, "FT.INFO", name).Error(); {
	case err == nil:
		return true, nil
	case isRedisErr(err, replyUnknownIndex):
		return false, nil
	default:
		return false, &db.Error{Op: db.OpIndexInfo, Err: err}
	}
}

// buildCreateArgs renders the FT.CREATE arguments of idx over HASH keys.
func buildCreateArgs(idx *db.IndexDefinition) ([]string, error) {
	if err := idx.Validate(); err != nil {
		return nil, err
	}

	args := []string{idx.Name, "ON", "HASH", "PREFIX", "1", idx.Prefix, "SCHEMA"}
	for i := range idx.Fields {
		fieldArgs, err := buildFieldArgs(&idx.Fields[i])
		if err != nil {
			return nil, err
		}
		args = append(args, fieldArgs...)
	}
	return args, nil
}

// buildFieldArgs renders one SCHEMA entry. Option order follows FT.CREATE:
// type options first, then INDEXMISSING, then SORTABLE.
func buildFieldArgs(f *db.IndexField) ([]string, error) {
	if f.Name == "" {
		return nil, errors.New("field name is required")
	}

	args := []string{f.Name}
	switch f.Type {
	case db.IndexFieldNumeric:
		args = append(args, "NUMERIC")
	case db.IndexFieldTag:
		args = append(args, "TAG")
		if f.CaseSensitive {
			args = append(args, "CASESENSITIVE")
		}
	default:
		return nil, fmt.Errorf("field %s: unknown type %s", f.Name, f.Type)
	}

	if f.IndexMissing {
		args = append(args, "INDEXMISSING")
	}
	if f.Sortable {
		args = append(args, "SORTABLE")
	}
	return args, nil
}
