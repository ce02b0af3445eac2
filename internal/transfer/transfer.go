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

// Package transfer streams file contents between local and remote
// storage. The local side goes through a billy filesystem so tests run
// against memfs and production against osfs. A non-zero byte offset
// resumes a partial transfer: bytes before the offset are left untouched
// on the destination and the stream restarts from that position.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-git/go-billy/v5"
	log "github.com/sirupsen/logrus"

	"skiff/internal/sftp"
)

// defaultChunkSize is the per-request payload size. 32 KiB stays under
// every server's packet limit.
const defaultChunkSize = 32 * 1024

// Transfer is the transfer engine behind sftp.Client's Download/Upload.
type Transfer struct {
	engine    sftp.Engine
	fs        billy.Filesystem
	log       *log.Entry
	chunkSize int
}

// Option configures a Transfer.
type Option func(*Transfer)

// WithChunkSize overrides the per-request payload size.
func WithChunkSize(n int) Option {
	return func(t *Transfer) {
		if n > 0 {
			t.chunkSize = n
		}
	}
}

// WithLogger injects the logging entry.
func WithLogger(entry *log.Entry) Option {
	return func(t *Transfer) { t.log = entry }
}

// New builds a transfer engine over a protocol engine and a local
// filesystem.
func New(engine sftp.Engine, fs billy.Filesystem, opts ...Option) *Transfer {
	t := &Transfer{
		engine:    engine,
		fs:        fs,
		chunkSize: defaultChunkSize,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.log == nil {
		t.log = log.NewEntry(log.StandardLogger())
	}
	return t
}

var _ sftp.TransferEngine = (*Transfer)(nil)

// Download streams a remote file into localPath starting at offset. With
// offset 0 the destination is truncated first; otherwise its first offset
// bytes are preserved and anything past the final write is trimmed.
func (t *Transfer) Download(ctx context.Context, remotePath, localPath string, offset uint64) error {
	flags := os.O_RDWR | os.O_CREATE
	if offset == 0 {
		flags |= os.O_TRUNC
	}
	f, err := t.fs.OpenFile(localPath, flags, 0o644)
	if err != nil {
		return fmt.Errorf("open local destination: %w", err)
	}
	dst := &seekDest{f: f, name: localPath}
	end, dlErr := t.downloadTo(ctx, remotePath, dst, offset)
	if dlErr == nil && offset > 0 {
		// Drop stale bytes a longer previous file may have past the end
		// of this transfer.
		dlErr = f.Truncate(int64(end))
	}
	if closeErr := f.Close(); dlErr == nil {
		dlErr = closeErr
	}
	return dlErr
}

// DownloadTo streams a remote file into an already-opened destination.
func (t *Transfer) DownloadTo(ctx context.Context, remotePath string, dst sftp.LocalDest, offset uint64) error {
	_, err := t.downloadTo(ctx, remotePath, dst, offset)
	return err
}

func (t *Transfer) downloadTo(ctx context.Context, remotePath string, dst sftp.LocalDest, offset uint64) (uint64, error) {
	src, err := t.engine.Open(ctx, remotePath, sftp.OpenRead, sftp.EmptyAttributes)
	if err != nil {
		return 0, err
	}
	defer src.Close()

	t.log.Debugf("downloading %q to %q at offset %d", remotePath, dst.Name(), offset)

	buf := make([]byte, t.chunkSize)
	pos := offset
	for {
		n, readErr := src.ReadAt(ctx, buf, pos)
		if n > 0 {
			if _, writeErr := dst.WriteAt(buf[:n], int64(pos)); writeErr != nil {
				return pos, fmt.Errorf("write local destination: %w", writeErr)
			}
			pos += uint64(n)
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) || sftp.IsStatus(readErr, sftp.StatusEOF) {
				return pos, nil
			}
			return pos, readErr
		}
	}
}

// Upload streams localPath to a remote file starting at offset. With
// offset 0 the remote file is truncated first.
func (t *Transfer) Upload(ctx context.Context, localPath, remotePath string, offset uint64) error {
	f, err := t.fs.OpenFile(localPath, os.O_RDONLY, 0)
	if err != nil {
		return fmt.Errorf("open local source: %w", err)
	}
	src := &fileSource{f: f, name: localPath, fs: t.fs}
	upErr := t.UploadFrom(ctx, src, remotePath, offset)
	if closeErr := f.Close(); upErr == nil {
		upErr = closeErr
	}
	return upErr
}

// UploadFrom streams an already-opened local source to a remote file
// starting at offset.
func (t *Transfer) UploadFrom(ctx context.Context, src sftp.LocalSource, remotePath string, offset uint64) error {
	mode := sftp.OpenWrite | sftp.OpenCreate
	if offset == 0 {
		mode |= sftp.OpenTruncate
	}
	dst, err := t.engine.Open(ctx, remotePath, mode, sftp.EmptyAttributes)
	if err != nil {
		return err
	}
	defer dst.Close()

	t.log.Debugf("uploading %q to %q at offset %d", src.Name(), remotePath, offset)

	buf := make([]byte, t.chunkSize)
	pos := offset
	for {
		n, readErr := src.ReadAt(buf, int64(pos))
		if n > 0 {
			if _, writeErr := dst.WriteAt(ctx, buf[:n], pos); writeErr != nil {
				return writeErr
			}
			pos += uint64(n)
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				return nil
			}
			return fmt.Errorf("read local source: %w", readErr)
		}
	}
}
