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

// Package enginetest provides an in-memory sftp.Engine for tests: a
// deterministic remote filesystem with recorded request counts, so tests
// can assert not just outcomes but the exact protocol traffic an
// operation issued.
package enginetest

import (
	"context"
	"io"
	"path"
	"sort"
	"strings"
	"sync"

	"skiff/internal/sftp"
)

const symlinkHops = 8

// node is one entry of the in-memory remote filesystem.
type node struct {
	mode    sftp.FileMode
	uid     uint32
	gid     uint32
	atime   uint32
	mtime   uint32
	content []byte
	target  string // symlink target
}

// Engine is an in-memory sftp.Engine. The zero value is not usable; New
// seeds the root directory.
type Engine struct {
	mu      sync.Mutex
	nodes   map[string]*node
	version uint32
	closed  bool

	// ReadDirBatch is the number of entries returned per ReadDir call.
	ReadDirBatch int

	// Recorded protocol traffic, in issue order.
	MkdirPaths  []string
	StatPaths   []string
	SetStatCnt  int
	RenameCalls int
}

// New returns an engine containing only the root directory.
func New() *Engine {
	return &Engine{
		nodes: map[string]*node{
			"/": {mode: 0x4000 | 0o755},
		},
		version:      3,
		ReadDirBatch: 3,
	}
}

// clean resolves p to a cleaned absolute path; relative paths are rooted
// at "/".
func clean(p string) string {
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}

func statusErr(code sftp.StatusCode, p, msg string) error {
	return &sftp.StatusError{Code: code, Path: p, Msg: msg}
}

// Seed helpers -------------------------------------------------------------

// MkdirAll creates a directory chain without recording protocol traffic.
func (e *Engine) MkdirAll(p string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p = clean(p)
	parts := strings.Split(strings.TrimPrefix(p, "/"), "/")
	cur := "/"
	for _, part := range parts {
		if part == "" {
			continue
		}
		cur = path.Join(cur, part)
		if _, ok := e.nodes[cur]; !ok {
			e.nodes[cur] = &node{mode: 0x4000 | 0o755}
		}
	}
}

// PutFile creates or replaces a regular file with the given content.
func (e *Engine) PutFile(p string, content []byte) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nodes[clean(p)] = &node{mode: 0x8000 | 0o644, content: append([]byte(nil), content...)}
}

// PutSymlink creates a symlink entry.
func (e *Engine) PutSymlink(p, target string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nodes[clean(p)] = &node{mode: 0xA000 | 0o777, target: target}
}

// SetOwnership sets uid/gid on an existing entry.
func (e *Engine) SetOwnership(p string, uid, gid uint32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if n, ok := e.nodes[clean(p)]; ok {
		n.uid, n.gid = uid, gid
	}
}

// FileContent returns the content of a file, or nil when absent.
func (e *Engine) FileContent(p string) []byte {
	e.mu.Lock()
	defer e.mu.Unlock()
	n, ok := e.nodes[clean(p)]
	if !ok || n.mode.Type() != sftp.TypeRegular {
		return nil
	}
	return append([]byte(nil), n.content...)
}

// Exists reports whether an entry exists at p.
func (e *Engine) Exists(p string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.nodes[clean(p)]
	return ok
}

// Engine interface ----------------------------------------------------------

func (e *Engine) check() error {
	if e.closed {
		return statusErr(sftp.StatusNoConnection, "", "engine closed")
	}
	return nil
}

// resolve follows symlink chains starting at p. Caller holds the lock.
func (e *Engine) resolve(p string) (string, *node, error) {
	p = clean(p)
	for i := 0; i < symlinkHops; i++ {
		n, ok := e.nodes[p]
		if !ok {
			return "", nil, statusErr(sftp.StatusNoSuchFile, p, "no such file")
		}
		if n.mode.Type() != sftp.TypeSymlink {
			return p, n, nil
		}
		if strings.HasPrefix(n.target, "/") {
			p = clean(n.target)
		} else {
			p = clean(path.Join(path.Dir(p), n.target))
		}
	}
	return "", nil, statusErr(sftp.StatusFailure, p, "too many symlinks")
}

func attrsOf(n *node) sftp.FileAttributes {
	return sftp.EmptyAttributes.
		WithSize(uint64(len(n.content))).
		WithUIDGID(n.uid, n.gid).
		WithMode(n.mode).
		WithTimes(n.atime, n.mtime)
}

func (e *Engine) Stat(_ context.Context, p string) (sftp.FileAttributes, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.check(); err != nil {
		return sftp.FileAttributes{}, err
	}
	e.StatPaths = append(e.StatPaths, clean(p))
	_, n, err := e.resolve(p)
	if err != nil {
		return sftp.FileAttributes{}, err
	}
	return attrsOf(n), nil
}

func (e *Engine) LStat(_ context.Context, p string) (sftp.FileAttributes, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.check(); err != nil {
		return sftp.FileAttributes{}, err
	}
	n, ok := e.nodes[clean(p)]
	if !ok {
		return sftp.FileAttributes{}, statusErr(sftp.StatusNoSuchFile, clean(p), "no such file")
	}
	return attrsOf(n), nil
}

func (e *Engine) SetStat(_ context.Context, p string, attrs sftp.FileAttributes) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.check(); err != nil {
		return err
	}
	e.SetStatCnt++
	_, n, err := e.resolve(p)
	if err != nil {
		return err
	}
	applyAttrs(n, attrs)
	return nil
}

func applyAttrs(n *node, attrs sftp.FileAttributes) {
	if size, ok := attrs.Size(); ok {
		if size <= uint64(len(n.content)) {
			n.content = n.content[:size]
		} else {
			n.content = append(n.content, make([]byte, size-uint64(len(n.content)))...)
		}
	}
	if uid, gid, ok := attrs.UIDGID(); ok {
		n.uid, n.gid = uid, gid
	}
	if mode, ok := attrs.Mode(); ok {
		n.mode = (n.mode &^ 0x0FFF) | sftp.FileMode(mode.Perms())
	}
	if atime, mtime, ok := attrs.Times(); ok {
		n.atime, n.mtime = atime, mtime
	}
}

func (e *Engine) Open(_ context.Context, p string, mode sftp.OpenMode, attrs sftp.FileAttributes) (sftp.FileHandle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.check(); err != nil {
		return nil, err
	}
	p = clean(p)
	n, ok := e.nodes[p]
	switch {
	case ok && mode&sftp.OpenExclusive != 0:
		return nil, statusErr(sftp.StatusFailure, p, "file already exists")
	case ok && n.mode.Type() == sftp.TypeDirectory:
		return nil, statusErr(sftp.StatusFailure, p, "is a directory")
	case !ok && mode&sftp.OpenCreate == 0:
		return nil, statusErr(sftp.StatusNoSuchFile, p, "no such file")
	case !ok:
		n = &node{mode: 0x8000 | 0o644}
		if m, has := attrs.Mode(); has {
			n.mode = 0x8000 | sftp.FileMode(m.Perms())
		}
		e.nodes[p] = n
	}
	if mode&sftp.OpenTruncate != 0 {
		n.content = nil
	}
	return &fileHandle{eng: e, node: n, path: p, mode: mode}, nil
}

type fileHandle struct {
	eng    *Engine
	node   *node
	path   string
	mode   sftp.OpenMode
	closed bool
}

func (h *fileHandle) ReadAt(_ context.Context, p []byte, off uint64) (int, error) {
	h.eng.mu.Lock()
	defer h.eng.mu.Unlock()
	if h.closed {
		return 0, statusErr(sftp.StatusFailure, h.path, "handle closed")
	}
	if off >= uint64(len(h.node.content)) {
		return 0, io.EOF
	}
	n := copy(p, h.node.content[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (h *fileHandle) WriteAt(_ context.Context, p []byte, off uint64) (int, error) {
	h.eng.mu.Lock()
	defer h.eng.mu.Unlock()
	if h.closed {
		return 0, statusErr(sftp.StatusFailure, h.path, "handle closed")
	}
	if h.mode&(sftp.OpenWrite|sftp.OpenAppend) == 0 {
		return 0, statusErr(sftp.StatusPermissionDenied, h.path, "not opened for writing")
	}
	end := off + uint64(len(p))
	if end > uint64(len(h.node.content)) {
		grown := make([]byte, end)
		copy(grown, h.node.content)
		h.node.content = grown
	}
	copy(h.node.content[off:end], p)
	return len(p), nil
}

func (h *fileHandle) Stat(_ context.Context) (sftp.FileAttributes, error) {
	h.eng.mu.Lock()
	defer h.eng.mu.Unlock()
	if h.closed {
		return sftp.FileAttributes{}, statusErr(sftp.StatusFailure, h.path, "handle closed")
	}
	return attrsOf(h.node), nil
}

func (h *fileHandle) SetStat(_ context.Context, attrs sftp.FileAttributes) error {
	h.eng.mu.Lock()
	defer h.eng.mu.Unlock()
	if h.closed {
		return statusErr(sftp.StatusFailure, h.path, "handle closed")
	}
	applyAttrs(h.node, attrs)
	return nil
}

func (h *fileHandle) Close() error {
	h.eng.mu.Lock()
	defer h.eng.mu.Unlock()
	h.closed = true
	return nil
}

func (e *Engine) OpenDir(_ context.Context, p string) (sftp.DirHandle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.check(); err != nil {
		return nil, err
	}
	dirPath, n, err := e.resolve(p)
	if err != nil {
		return nil, err
	}
	if n.mode.Type() != sftp.TypeDirectory {
		return nil, statusErr(sftp.StatusFailure, dirPath, "not a directory")
	}
	var entries []sftp.RemoteResourceInfo
	for candidate, cn := range e.nodes {
		if candidate != dirPath && path.Dir(candidate) == dirPath {
			entries = append(entries, sftp.RemoteResourceInfo{
				Name:  path.Base(candidate),
				Path:  candidate,
				Attrs: attrsOf(cn),
			})
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	batch := e.ReadDirBatch
	if batch <= 0 {
		batch = 3
	}
	return &dirHandle{entries: entries, batch: batch}, nil
}

type dirHandle struct {
	entries []sftp.RemoteResourceInfo
	pos     int
	batch   int
	closed  bool
}

func (d *dirHandle) ReadDir(context.Context) ([]sftp.RemoteResourceInfo, error) {
	if d.closed {
		return nil, statusErr(sftp.StatusFailure, "", "handle closed")
	}
	if d.pos >= len(d.entries) {
		return nil, io.EOF
	}
	end := d.pos + d.batch
	if end > len(d.entries) {
		end = len(d.entries)
	}
	out := d.entries[d.pos:end]
	d.pos = end
	return out, nil
}

func (d *dirHandle) Close() error {
	d.closed = true
	return nil
}

func (e *Engine) MakeDir(_ context.Context, p string, _ sftp.FileAttributes) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.check(); err != nil {
		return err
	}
	p = clean(p)
	e.MkdirPaths = append(e.MkdirPaths, p)
	if _, ok := e.nodes[p]; ok {
		return statusErr(sftp.StatusFailure, p, "file already exists")
	}
	parent, ok := e.nodes[path.Dir(p)]
	if !ok {
		return statusErr(sftp.StatusNoSuchFile, path.Dir(p), "no such file")
	}
	if parent.mode.Type() != sftp.TypeDirectory {
		return statusErr(sftp.StatusFailure, path.Dir(p), "not a directory")
	}
	e.nodes[p] = &node{mode: 0x4000 | 0o755}
	return nil
}

func (e *Engine) RemoveDir(_ context.Context, p string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.check(); err != nil {
		return err
	}
	p = clean(p)
	n, ok := e.nodes[p]
	if !ok {
		return statusErr(sftp.StatusNoSuchFile, p, "no such file")
	}
	if n.mode.Type() != sftp.TypeDirectory {
		return statusErr(sftp.StatusFailure, p, "not a directory")
	}
	for candidate := range e.nodes {
		if candidate != p && path.Dir(candidate) == p {
			return statusErr(sftp.StatusFailure, p, "directory not empty")
		}
	}
	delete(e.nodes, p)
	return nil
}

func (e *Engine) Remove(_ context.Context, p string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.check(); err != nil {
		return err
	}
	p = clean(p)
	n, ok := e.nodes[p]
	if !ok {
		return statusErr(sftp.StatusNoSuchFile, p, "no such file")
	}
	if n.mode.Type() == sftp.TypeDirectory {
		return statusErr(sftp.StatusFailure, p, "is a directory")
	}
	delete(e.nodes, p)
	return nil
}

func (e *Engine) Rename(_ context.Context, oldPath, newPath string, flags sftp.RenameFlags) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.check(); err != nil {
		return err
	}
	e.RenameCalls++
	oldPath, newPath = clean(oldPath), clean(newPath)
	n, ok := e.nodes[oldPath]
	if !ok {
		return statusErr(sftp.StatusNoSuchFile, oldPath, "no such file")
	}
	if flags&^(sftp.RenameOverwrite|sftp.RenameAtomic|sftp.RenameNative) != 0 {
		return statusErr(sftp.StatusOpUnsupported, oldPath, "unsupported rename flags")
	}
	if _, exists := e.nodes[newPath]; exists && flags&sftp.RenameOverwrite == 0 {
		return statusErr(sftp.StatusFailure, newPath, "file already exists")
	}
	delete(e.nodes, oldPath)
	e.nodes[newPath] = n
	return nil
}

func (e *Engine) Symlink(_ context.Context, linkPath, targetPath string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.check(); err != nil {
		return err
	}
	linkPath = clean(linkPath)
	if _, ok := e.nodes[linkPath]; ok {
		return statusErr(sftp.StatusFailure, linkPath, "file already exists")
	}
	e.nodes[linkPath] = &node{mode: 0xA000 | 0o777, target: targetPath}
	return nil
}

func (e *Engine) ReadLink(_ context.Context, p string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.check(); err != nil {
		return "", err
	}
	n, ok := e.nodes[clean(p)]
	if !ok {
		return "", statusErr(sftp.StatusNoSuchFile, clean(p), "no such file")
	}
	if n.mode.Type() != sftp.TypeSymlink {
		return "", statusErr(sftp.StatusFailure, clean(p), "not a symlink")
	}
	return n.target, nil
}

func (e *Engine) Canonicalize(_ context.Context, p string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.check(); err != nil {
		return "", err
	}
	return clean(p), nil
}

func (e *Engine) ProtocolVersion() uint32 {
	return e.version
}

func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}
