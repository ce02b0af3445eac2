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

package sftp

import "context"

// Engine issues typed remote-filesystem requests over an established
// channel and returns typed replies. Wire encoding, transport setup and
// request multiplexing live behind this boundary; the client facade only
// composes these calls. Failures from the remote peer arrive as
// *StatusError with the peer's status code preserved.
//
// Implementations must be safe for concurrent use if concurrent calls on
// one Client are to be supported; the facade adds no locking of its own.
type Engine interface {
	// Stat returns the attributes of the entry at path, following
	// symlinks. A missing entry is a *StatusError with StatusNoSuchFile.
	Stat(ctx context.Context, path string) (FileAttributes, error)

	// LStat is Stat without following a final symlink.
	LStat(ctx context.Context, path string) (FileAttributes, error)

	// SetStat applies the set fields of attrs to the entry at path.
	SetStat(ctx context.Context, path string, attrs FileAttributes) error

	// Open opens a remote file with the given access intents. attrs may
	// carry initial attributes for files the open creates.
	Open(ctx context.Context, path string, mode OpenMode, attrs FileAttributes) (FileHandle, error)

	// OpenDir opens a directory for enumeration.
	OpenDir(ctx context.Context, path string) (DirHandle, error)

	// MakeDir creates a single directory.
	MakeDir(ctx context.Context, path string, attrs FileAttributes) error

	// RemoveDir removes an empty directory.
	RemoveDir(ctx context.Context, path string) error

	// Remove removes a file.
	Remove(ctx context.Context, path string) error

	// Rename moves oldPath to newPath. An empty flag set requests legacy
	// rename semantics; servers reject flags they cannot honor.
	Rename(ctx context.Context, oldPath, newPath string, flags RenameFlags) error

	// Symlink creates a symlink at linkPath pointing to targetPath.
	Symlink(ctx context.Context, linkPath, targetPath string) error

	// ReadLink returns the target of the symlink at path.
	ReadLink(ctx context.Context, path string) (string, error)

	// Canonicalize resolves path to an absolute path on the server.
	Canonicalize(ctx context.Context, path string) (string, error)

	// ProtocolVersion returns the protocol version negotiated with the
	// server.
	ProtocolVersion() uint32

	// Close releases the underlying channel.
	Close() error
}

// FileHandle is an open remote file. Offsets are absolute; the handle
// keeps no cursor.
type FileHandle interface {
	// ReadAt reads up to len(p) bytes starting at off. It returns io.EOF
	// (possibly with n > 0) at end of file.
	ReadAt(ctx context.Context, p []byte, off uint64) (int, error)

	// WriteAt writes p starting at off.
	WriteAt(ctx context.Context, p []byte, off uint64) (int, error)

	// Stat returns the attributes of the open file.
	Stat(ctx context.Context) (FileAttributes, error)

	// SetStat applies the set fields of attrs to the open file.
	SetStat(ctx context.Context, attrs FileAttributes) error

	// Close releases the remote handle.
	Close() error
}

// DirHandle is an open remote directory. ReadDir returns entries in server
// enumeration order, a batch at a time, and io.EOF when exhausted.
type DirHandle interface {
	ReadDir(ctx context.Context) ([]RemoteResourceInfo, error)
	Close() error
}
