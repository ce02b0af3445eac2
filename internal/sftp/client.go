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

// Package sftp provides a path-semantic client facade over an SFTP
// protocol engine: existence-aware directory creation, attribute
// mutation, filtered directory listing, and resumable transfers.
//
// Every operation is a bounded sequence of independent protocol round
// trips. The facade performs no retries, caches no directory state, and
// offers no multi-step atomicity.
package sftp

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// LocalSource is an already-opened local file usable as an upload source.
type LocalSource interface {
	io.ReaderAt
	Name() string
	Size() (uint64, error)
}

// LocalDest is an already-opened local file usable as a download
// destination.
type LocalDest interface {
	io.WriterAt
	Name() string
}

// TransferEngine streams file contents between local and remote storage.
// A non-zero offset resumes a partially completed transfer at that byte
// position. Chunking, flow control and integrity are the engine's
// business, not the facade's.
type TransferEngine interface {
	Download(ctx context.Context, remotePath, localPath string, offset uint64) error
	DownloadTo(ctx context.Context, remotePath string, dst LocalDest, offset uint64) error
	Upload(ctx context.Context, localPath, remotePath string, offset uint64) error
	UploadFrom(ctx context.Context, src LocalSource, remotePath string, offset uint64) error
}

// ErrNoTransfer is returned by transfer operations on a Client built
// without a transfer engine.
var ErrNoTransfer = errors.New("no transfer engine configured")

// Client is the outward-facing facade. It owns no remote state, only the
// two collaborator handles; it adds no synchronization of its own, so
// concurrent use requires collaborators that tolerate it.
type Client struct {
	engine Engine
	xfer   TransferEngine
	log    *log.Entry
}

// Option configures a Client.
type Option func(*Client)

// WithLogger injects the logging entry the client tags its output with.
func WithLogger(entry *log.Entry) Option {
	return func(c *Client) { c.log = entry }
}

// NewClient builds a facade over an established protocol engine. xfer may
// be nil for callers that never transfer file contents. The caller keeps
// ownership of the engine's connection; Close releases it.
func NewClient(engine Engine, xfer TransferEngine, opts ...Option) *Client {
	c := &Client{
		engine: engine,
		xfer:   xfer,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = log.NewEntry(log.StandardLogger())
	}
	c.log = c.log.WithField("session", uuid.NewString()[:8])
	return c
}

// Engine returns the underlying protocol engine.
func (c *Client) Engine() Engine { return c.engine }

// List enumerates the entries of a directory in server order, consulting
// selector per entry. A nil selector selects everything. Wrap a plain
// predicate with SelectorFrom.
func (c *Client) List(ctx context.Context, path string, selector Selector) ([]RemoteResourceInfo, error) {
	dir, err := c.engine.OpenDir(ctx, path)
	if err != nil {
		return nil, err
	}
	entries, scanErr := scanDir(ctx, dir, selector)
	if closeErr := dir.Close(); scanErr == nil {
		scanErr = closeErr
	}
	if scanErr != nil {
		return nil, scanErr
	}
	return entries, nil
}

// Open opens a remote file read-only.
func (c *Client) Open(ctx context.Context, path string) (FileHandle, error) {
	return c.OpenFile(ctx, path, OpenRead, EmptyAttributes)
}

// OpenFile opens a remote file with explicit access intents and, for
// creating opens, initial attributes.
func (c *Client) OpenFile(ctx context.Context, path string, mode OpenMode, attrs FileAttributes) (FileHandle, error) {
	c.log.Debugf("opening %q", path)
	return c.engine.Open(ctx, path, mode, attrs)
}

// MakeDirectory creates a single directory. It fails if the path already
// exists or an ancestor is missing.
func (c *Client) MakeDirectory(ctx context.Context, path string) error {
	return c.engine.MakeDir(ctx, path, EmptyAttributes)
}

// MakeDirectories ensures the full directory path exists, creating only
// the missing suffix of ancestors, topmost first. An ancestor that exists
// as a non-directory fails with *WrongTypeError before anything is
// created. A concurrent external create between probe and create surfaces
// as the create call's error; there is no retry.
func (c *Client) MakeDirectories(ctx context.Context, path string) error {
	var toMake []string // LIFO: deepest missing path first
	for cur := SplitPath(path); ; cur = SplitPath(cur.Parent) {
		attrs, err := c.StatExistence(ctx, cur.Path)
		if err != nil {
			return err
		}
		if attrs == nil {
			if cur.IsRoot() {
				// Fixed point reached while still absent: the namespace
				// has no existing ancestor to build from.
				return fmt.Errorf("%s: no existing ancestor to create directories under", cur.Path)
			}
			toMake = append(toMake, cur.Path)
			continue
		}
		if attrs.Type() != TypeDirectory {
			return &WrongTypeError{Path: cur.Path, Type: attrs.Type()}
		}
		break // deepest already-satisfied ancestor
	}
	if len(toMake) > 0 {
		c.log.Debugf("creating %d missing directories for %q", len(toMake), path)
	}
	for i := len(toMake) - 1; i >= 0; i-- {
		if err := c.MakeDirectory(ctx, toMake[i]); err != nil {
			return err
		}
	}
	return nil
}

// StatExistence probes a path. A missing entry returns (nil, nil):
// absence is data here, not an error. Every other failure, permission
// denied included, is returned unchanged.
func (c *Client) StatExistence(ctx context.Context, path string) (*FileAttributes, error) {
	attrs, err := c.engine.Stat(ctx, path)
	if err != nil {
		if IsStatus(err, StatusNoSuchFile) {
			return nil, nil
		}
		return nil, err
	}
	return &attrs, nil
}

// Stat returns the attributes of the entry at path, following symlinks.
func (c *Client) Stat(ctx context.Context, path string) (FileAttributes, error) {
	return c.engine.Stat(ctx, path)
}

// LStat is Stat without following a final symlink.
func (c *Client) LStat(ctx context.Context, path string) (FileAttributes, error) {
	return c.engine.LStat(ctx, path)
}

// SetAttributes applies the set fields of attrs to the entry at path.
func (c *Client) SetAttributes(ctx context.Context, path string, attrs FileAttributes) error {
	return c.engine.SetStat(ctx, path, attrs)
}

// Chown changes the owning user, preserving the current group. The
// protocol transmits uid and gid as a pair, so this is a read-modify-write
// across two round trips: a concurrent external change of the group
// between them can be lost. That race is accepted, not masked.
func (c *Client) Chown(ctx context.Context, path string, uid uint32) error {
	attrs, err := c.Stat(ctx, path)
	if err != nil {
		return err
	}
	_, gid, ok := attrs.UIDGID()
	if !ok {
		return fmt.Errorf("%s: server did not report ownership", path)
	}
	return c.SetAttributes(ctx, path, EmptyAttributes.WithUIDGID(uid, gid))
}

// Chgrp changes the owning group, preserving the current user. Same
// read-modify-write window as Chown.
func (c *Client) Chgrp(ctx context.Context, path string, gid uint32) error {
	attrs, err := c.Stat(ctx, path)
	if err != nil {
		return err
	}
	uid, _, ok := attrs.UIDGID()
	if !ok {
		return fmt.Errorf("%s: server did not report ownership", path)
	}
	return c.SetAttributes(ctx, path, EmptyAttributes.WithUIDGID(uid, gid))
}

// Chmod sets the permission bits. Nothing is read first: the update
// carries only the permissions field.
func (c *Client) Chmod(ctx context.Context, path string, perms uint32) error {
	return c.SetAttributes(ctx, path, EmptyAttributes.WithPermissions(perms))
}

// Truncate sets the file size.
func (c *Client) Truncate(ctx context.Context, path string, size uint64) error {
	return c.SetAttributes(ctx, path, EmptyAttributes.WithSize(size))
}

// Rename moves oldPath to newPath. With no flags the server applies its
// legacy rename policy (typically failing when newPath exists); flags such
// as RenameOverwrite request richer semantics, which servers may reject.
func (c *Client) Rename(ctx context.Context, oldPath, newPath string, flags RenameFlags) error {
	return c.engine.Rename(ctx, oldPath, newPath, flags)
}

// Remove deletes a file.
func (c *Client) Remove(ctx context.Context, path string) error {
	return c.engine.Remove(ctx, path)
}

// RemoveDirectory deletes an empty directory.
func (c *Client) RemoveDirectory(ctx context.Context, path string) error {
	return c.engine.RemoveDir(ctx, path)
}

// Symlink creates a symlink at linkPath pointing to targetPath.
func (c *Client) Symlink(ctx context.Context, linkPath, targetPath string) error {
	return c.engine.Symlink(ctx, linkPath, targetPath)
}

// ReadLink returns the target of the symlink at path.
func (c *Client) ReadLink(ctx context.Context, path string) (string, error) {
	return c.engine.ReadLink(ctx, path)
}

// Canonicalize resolves path to a server-absolute path.
func (c *Client) Canonicalize(ctx context.Context, path string) (string, error) {
	return c.engine.Canonicalize(ctx, path)
}

// ProtocolVersion returns the negotiated protocol version.
func (c *Client) ProtocolVersion() uint32 {
	return c.engine.ProtocolVersion()
}

// UID returns the owning user id of the entry at path.
func (c *Client) UID(ctx context.Context, path string) (uint32, error) {
	attrs, err := c.Stat(ctx, path)
	if err != nil {
		return 0, err
	}
	uid, _, _ := attrs.UIDGID()
	return uid, nil
}

// GID returns the owning group id of the entry at path.
func (c *Client) GID(ctx context.Context, path string) (uint32, error) {
	attrs, err := c.Stat(ctx, path)
	if err != nil {
		return 0, err
	}
	_, gid, _ := attrs.UIDGID()
	return gid, nil
}

// Size returns the size of the entry at path.
func (c *Client) Size(ctx context.Context, path string) (uint64, error) {
	attrs, err := c.Stat(ctx, path)
	if err != nil {
		return 0, err
	}
	size, _ := attrs.Size()
	return size, nil
}

// Mode returns the full mode word of the entry at path.
func (c *Client) Mode(ctx context.Context, path string) (FileMode, error) {
	attrs, err := c.Stat(ctx, path)
	if err != nil {
		return 0, err
	}
	mode, _ := attrs.Mode()
	return mode, nil
}

// Perms returns the permission bits of the entry at path.
func (c *Client) Perms(ctx context.Context, path string) (uint32, error) {
	mode, err := c.Mode(ctx, path)
	if err != nil {
		return 0, err
	}
	return mode.Perms(), nil
}

// Type returns the kind of the entry at path.
func (c *Client) Type(ctx context.Context, path string) (Type, error) {
	attrs, err := c.Stat(ctx, path)
	if err != nil {
		return TypeUnknown, err
	}
	return attrs.Type(), nil
}

// Atime returns the access time (Unix seconds) of the entry at path.
func (c *Client) Atime(ctx context.Context, path string) (int64, error) {
	attrs, err := c.Stat(ctx, path)
	if err != nil {
		return 0, err
	}
	atime, _, _ := attrs.Times()
	return int64(atime), nil
}

// Mtime returns the modification time (Unix seconds) of the entry at path.
func (c *Client) Mtime(ctx context.Context, path string) (int64, error) {
	attrs, err := c.Stat(ctx, path)
	if err != nil {
		return 0, err
	}
	_, mtime, _ := attrs.Times()
	return int64(mtime), nil
}

// Download streams a remote file into a local path, rewriting bytes from
// offset onward and leaving earlier bytes untouched.
func (c *Client) Download(ctx context.Context, remotePath, localPath string, offset uint64) error {
	if c.xfer == nil {
		return ErrNoTransfer
	}
	return c.xfer.Download(ctx, remotePath, localPath, offset)
}

// DownloadTo streams a remote file into an already-opened destination.
func (c *Client) DownloadTo(ctx context.Context, remotePath string, dst LocalDest, offset uint64) error {
	if c.xfer == nil {
		return ErrNoTransfer
	}
	return c.xfer.DownloadTo(ctx, remotePath, dst, offset)
}

// Upload streams a local file to a remote path, starting at offset.
func (c *Client) Upload(ctx context.Context, localPath, remotePath string, offset uint64) error {
	if c.xfer == nil {
		return ErrNoTransfer
	}
	return c.xfer.Upload(ctx, localPath, remotePath, offset)
}

// UploadFrom streams an already-opened local source to a remote path.
func (c *Client) UploadFrom(ctx context.Context, src LocalSource, remotePath string, offset uint64) error {
	if c.xfer == nil {
		return ErrNoTransfer
	}
	return c.xfer.UploadFrom(ctx, src, remotePath, offset)
}

// Close releases the underlying protocol channel. Safe to call once;
// collaborators define behavior beyond the first call.
func (c *Client) Close() error {
	return c.engine.Close()
}
