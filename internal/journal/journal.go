// Copyright 2025 Skiff Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package journal records transfer progress in a SQLite database so that
// interrupted downloads and uploads can be resumed. A file lock beside the
// database keeps concurrent skiff invocations from corrupting each other's
// resume state.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	_ "github.com/tursodatabase/go-libsql"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"skiff/internal/util"
)

// Journal is an open transfer journal. Holds an advisory file lock for its
// whole lifetime.
type Journal struct {
	db   *bun.DB
	sql  *sql.DB
	lock *flock.Flock
}

// Open opens (or creates) the journal database at path, guarded by the lock
// file at lockPath. Fails immediately if another process holds the lock.
func Open(path, lockPath string) (*Journal, error) {
	lock := flock.New(lockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock journal: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("journal is locked by another process")
	}

	sqlDB, err := sql.Open("libsql", BuildDSN(path))
	if err != nil {
		lock.Unlock()
		return nil, fmt.Errorf("open journal database: %w", err)
	}
	if err := applyPragmas(sqlDB); err != nil {
		sqlDB.Close()
		lock.Unlock()
		return nil, err
	}
	if err := execStatements(sqlDB, journalSchema); err != nil {
		sqlDB.Close()
		lock.Unlock()
		return nil, fmt.Errorf("create journal schema: %w", err)
	}
	if err := execStatements(sqlDB, initSchemaInfo, SchemaVersion); err != nil {
		sqlDB.Close()
		lock.Unlock()
		return nil, fmt.Errorf("initialize journal schema: %w", err)
	}

	return &Journal{
		db:   bun.NewDB(sqlDB, sqlitedialect.New()),
		sql:  sqlDB,
		lock: lock,
	}, nil
}

// Close releases the database and the advisory lock.
func (j *Journal) Close() error {
	err := j.sql.Close()
	if uerr := j.lock.Unlock(); err == nil {
		err = uerr
	}
	return err
}

// Begin records a new active transfer and returns it.
// Uses retry logic to handle transient "database is locked" errors.
func (j *Journal) Begin(ctx context.Context, direction, remotePath, localPath string, size int64) (*TransferModel, error) {
	return util.RetryWithResult(
		func() (*TransferModel, error) {
			return j.beginInternal(ctx, direction, remotePath, localPath, size)
		},
		util.DatabaseRetryOptions(ctx)...)
}

func (j *Journal) beginInternal(ctx context.Context, direction, remotePath, localPath string, size int64) (*TransferModel, error) {
	now := time.Now().Unix()
	model := &TransferModel{
		ID:         uuid.NewString(),
		Direction:  direction,
		RemotePath: remotePath,
		LocalPath:  localPath,
		Size:       size,
		BytesDone:  0,
		Status:     StatusActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if _, err := j.db.NewInsert().Model(model).Exec(ctx); err != nil {
		return nil, err
	}
	return model, nil
}

// Progress updates the byte count of an active transfer.
func (j *Journal) Progress(ctx context.Context, id string, bytesDone int64) error {
	return util.Retry(func() error {
		_, err := j.db.NewUpdate().
			Model((*TransferModel)(nil)).
			Set("bytes_done = ?", bytesDone).
			Set("updated_at = ?", time.Now().Unix()).
			Where("id = ?", id).
			Exec(ctx)
		return err
	}, util.DatabaseRetryOptions(ctx)...)
}

// Complete marks a transfer as finished.
func (j *Journal) Complete(ctx context.Context, id string) error {
	return j.setStatus(ctx, id, StatusComplete, "")
}

// Fail marks a transfer as failed, keeping the byte count for resume.
func (j *Journal) Fail(ctx context.Context, id string, msg string) error {
	return j.setStatus(ctx, id, StatusFailed, msg)
}

// Resume reactivates an incomplete transfer record, clearing its error.
func (j *Journal) Resume(ctx context.Context, id string) error {
	return j.setStatus(ctx, id, StatusActive, "")
}

func (j *Journal) setStatus(ctx context.Context, id, status, msg string) error {
	return util.Retry(func() error {
		_, err := j.db.NewUpdate().
			Model((*TransferModel)(nil)).
			Set("status = ?", status).
			Set("error = ?", msg).
			Set("updated_at = ?", time.Now().Unix()).
			Where("id = ?", id).
			Exec(ctx)
		return err
	}, util.DatabaseRetryOptions(ctx)...)
}

// FindResumable returns the most recent incomplete transfer for the given
// endpoint pair, or nil if there is nothing to resume.
func (j *Journal) FindResumable(ctx context.Context, direction, remotePath, localPath string) (*TransferModel, error) {
	var model TransferModel
	err := j.db.NewSelect().
		Model(&model).
		Where("direction = ?", direction).
		Where("remote_path = ?", remotePath).
		Where("local_path = ?", localPath).
		Where("status != ?", StatusComplete).
		Order("created_at DESC").
		Limit(1).
		Scan(ctx)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &model, nil
}

// Get retrieves a transfer by ID.
func (j *Journal) Get(ctx context.Context, id string) (*TransferModel, error) {
	var model TransferModel
	err := j.db.NewSelect().
		Model(&model).
		Where("id = ?", id).
		Scan(ctx)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("transfer %q not found", id)
	}
	if err != nil {
		return nil, err
	}
	return &model, nil
}

// List retrieves all transfers ordered by creation time (newest first).
func (j *Journal) List(ctx context.Context) ([]TransferModel, error) {
	var models []TransferModel
	err := j.db.NewSelect().
		Model(&models).
		Order("created_at DESC").
		Scan(ctx)
	return models, err
}

// Prune deletes completed transfer records and returns how many were removed.
func (j *Journal) Prune(ctx context.Context) (int64, error) {
	result, err := j.db.NewDelete().
		Model((*TransferModel)(nil)).
		Where("status = ?", StatusComplete).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
