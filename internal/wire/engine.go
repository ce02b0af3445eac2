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

// Package wire implements sftp.Engine as an SFTP version 3 client over an
// established byte channel, normally an SSH "sftp" subsystem. Requests
// are synchronous: one outstanding request at a time under a mutex.
// Pipelining and multiplexing are deliberately absent; callers that need
// throughput issue larger reads, not concurrent ones.
package wire

import (
	"context"
	"fmt"
	"io"
	"sync"

	log "github.com/sirupsen/logrus"

	"skiff/internal/sftp"
)

const (
	clientVersion = 3

	// maxPacket caps inbound frames; anything larger is a protocol
	// violation, not a legitimate reply.
	maxPacket = 1 << 18
)

// Engine is an SFTP v3 protocol engine.
type Engine struct {
	mu      sync.Mutex
	ch      io.ReadWriteCloser
	nextID  uint32
	version uint32
	exts    map[string]string
	log     *log.Entry
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger injects the logging entry.
func WithLogger(entry *log.Entry) Option {
	return func(e *Engine) { e.log = entry }
}

// New performs the INIT/VERSION handshake over the channel and returns a
// ready engine. The engine owns the channel and closes it on Close.
func New(channel io.ReadWriteCloser, opts ...Option) (*Engine, error) {
	e := &Engine{
		ch:   channel,
		exts: make(map[string]string),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = log.NewEntry(log.StandardLogger())
	}
	if err := e.handshake(); err != nil {
		channel.Close()
		return nil, err
	}
	return e, nil
}

func (e *Engine) handshake() error {
	var b buffer
	b.byte(fxpInit)
	b.uint32(clientVersion)
	if err := e.writeFrame(b.b); err != nil {
		return fmt.Errorf("send init: %w", err)
	}

	frame, err := e.readFrame()
	if err != nil {
		return fmt.Errorf("read version: %w", err)
	}
	if len(frame) < 1 || frame[0] != fxpVersion {
		return fmt.Errorf("unexpected handshake reply type %d", frame[0])
	}
	r := &reader{b: frame[1:]}
	e.version = r.uint32()
	for r.err == nil && len(r.b) > 0 {
		name := r.str()
		value := r.str()
		if r.err == nil {
			e.exts[name] = value
		}
	}
	if r.err != nil {
		return fmt.Errorf("malformed version packet: %w", r.err)
	}
	if e.version > clientVersion {
		// Servers answer with min(client, server), so anything higher
		// means a broken peer.
		return fmt.Errorf("server negotiated unsupported version %d", e.version)
	}
	e.log.Debugf("negotiated sftp version %d (%d extensions)", e.version, len(e.exts))
	return nil
}

func (e *Engine) writeFrame(payload []byte) error {
	frame := make([]byte, 4+len(payload))
	frame[0] = byte(len(payload) >> 24)
	frame[1] = byte(len(payload) >> 16)
	frame[2] = byte(len(payload) >> 8)
	frame[3] = byte(len(payload))
	_, err := e.ch.Write(frame[:4])
	if err == nil {
		_, err = e.ch.Write(payload)
	}
	return err
}

func (e *Engine) readFrame() ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(e.ch, lenBuf[:]); err != nil {
		return nil, err
	}
	size := uint32(lenBuf[0])<<24 | uint32(lenBuf[1])<<16 | uint32(lenBuf[2])<<8 | uint32(lenBuf[3])
	if size == 0 || size > maxPacket {
		return nil, fmt.Errorf("invalid packet length %d", size)
	}
	frame := make([]byte, size)
	if _, err := io.ReadFull(e.ch, frame); err != nil {
		return nil, err
	}
	return frame, nil
}

// roundTrip sends one request and reads its reply. The payload builder
// receives a buffer that already carries the request id.
func (e *Engine) roundTrip(ctx context.Context, reqType byte, build func(*buffer)) (byte, *reader, error) {
	if err := ctx.Err(); err != nil {
		return 0, nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	e.nextID++
	id := e.nextID

	var b buffer
	b.byte(reqType)
	b.uint32(id)
	build(&b)
	if err := e.writeFrame(b.b); err != nil {
		return 0, nil, fmt.Errorf("send request %d: %w", reqType, err)
	}

	frame, err := e.readFrame()
	if err != nil {
		return 0, nil, fmt.Errorf("read reply: %w", err)
	}
	if len(frame) < 5 {
		return 0, nil, errShortPacket
	}
	r := &reader{b: frame[1:]}
	if gotID := r.uint32(); gotID != id {
		return 0, nil, fmt.Errorf("reply id %d for request %d", gotID, id)
	}
	return frame[0], r, nil
}

// toStatusError decodes a status packet body. StatusOK maps to nil and
// StatusEOF to io.EOF; everything else becomes a *sftp.StatusError with
// the peer's code preserved.
func toStatusError(r *reader, path string) error {
	code := sftp.StatusCode(r.uint32())
	msg := r.str()
	r.str() // language tag
	switch code {
	case sftp.StatusOK:
		return nil
	case sftp.StatusEOF:
		return io.EOF
	default:
		return &sftp.StatusError{Code: code, Path: path, Msg: msg}
	}
}

func unexpectedReply(t byte) error {
	return fmt.Errorf("unexpected reply packet type %d", t)
}

// expectStatus runs a request whose only valid reply is a status packet.
func (e *Engine) expectStatus(ctx context.Context, reqType byte, path string, build func(*buffer)) error {
	t, r, err := e.roundTrip(ctx, reqType, build)
	if err != nil {
		return err
	}
	if t != fxpStatus {
		return unexpectedReply(t)
	}
	if err := toStatusError(r, path); err != nil {
		return err
	}
	return r.err
}

// expectAttrs runs a request answered by an attrs packet.
func (e *Engine) expectAttrs(ctx context.Context, reqType byte, path string, build func(*buffer)) (sftp.FileAttributes, error) {
	t, r, err := e.roundTrip(ctx, reqType, build)
	if err != nil {
		return sftp.FileAttributes{}, err
	}
	switch t {
	case fxpAttrs:
		attrs := decodeAttrs(r)
		return attrs, r.err
	case fxpStatus:
		return sftp.FileAttributes{}, toStatusError(r, path)
	default:
		return sftp.FileAttributes{}, unexpectedReply(t)
	}
}

// expectName runs a request answered by a single-entry name packet.
func (e *Engine) expectName(ctx context.Context, reqType byte, path string, build func(*buffer)) (string, error) {
	t, r, err := e.roundTrip(ctx, reqType, build)
	if err != nil {
		return "", err
	}
	switch t {
	case fxpName:
		if count := r.uint32(); count < 1 {
			if r.err != nil {
				return "", r.err
			}
			return "", fmt.Errorf("empty name reply for %s", path)
		}
		name := r.str()
		return name, r.err
	case fxpStatus:
		return "", toStatusError(r, path)
	default:
		return "", unexpectedReply(t)
	}
}

// expectHandle runs a request answered by a handle packet.
func (e *Engine) expectHandle(ctx context.Context, reqType byte, path string, build func(*buffer)) (string, error) {
	t, r, err := e.roundTrip(ctx, reqType, build)
	if err != nil {
		return "", err
	}
	switch t {
	case fxpHandle:
		h := r.str()
		return h, r.err
	case fxpStatus:
		return "", toStatusError(r, path)
	default:
		return "", unexpectedReply(t)
	}
}

// --- sftp.Engine ---

func (e *Engine) Stat(ctx context.Context, path string) (sftp.FileAttributes, error) {
	return e.expectAttrs(ctx, fxpStat, path, func(b *buffer) { b.str(path) })
}

func (e *Engine) LStat(ctx context.Context, path string) (sftp.FileAttributes, error) {
	return e.expectAttrs(ctx, fxpLstat, path, func(b *buffer) { b.str(path) })
}

func (e *Engine) SetStat(ctx context.Context, path string, attrs sftp.FileAttributes) error {
	return e.expectStatus(ctx, fxpSetstat, path, func(b *buffer) {
		b.str(path)
		encodeAttrs(b, attrs)
	})
}

func (e *Engine) Open(ctx context.Context, path string, mode sftp.OpenMode, attrs sftp.FileAttributes) (sftp.FileHandle, error) {
	h, err := e.expectHandle(ctx, fxpOpen, path, func(b *buffer) {
		b.str(path)
		b.uint32(uint32(mode))
		encodeAttrs(b, attrs)
	})
	if err != nil {
		return nil, err
	}
	return &fileHandle{eng: e, handle: h, path: path}, nil
}

func (e *Engine) OpenDir(ctx context.Context, path string) (sftp.DirHandle, error) {
	h, err := e.expectHandle(ctx, fxpOpendir, path, func(b *buffer) { b.str(path) })
	if err != nil {
		return nil, err
	}
	return &dirHandle{eng: e, handle: h, path: path}, nil
}

func (e *Engine) MakeDir(ctx context.Context, path string, attrs sftp.FileAttributes) error {
	return e.expectStatus(ctx, fxpMkdir, path, func(b *buffer) {
		b.str(path)
		encodeAttrs(b, attrs)
	})
}

func (e *Engine) RemoveDir(ctx context.Context, path string) error {
	return e.expectStatus(ctx, fxpRmdir, path, func(b *buffer) { b.str(path) })
}

func (e *Engine) Remove(ctx context.Context, path string) error {
	return e.expectStatus(ctx, fxpRemove, path, func(b *buffer) { b.str(path) })
}

// posixRenameExt is the OpenSSH extension used to honor overwrite/atomic
// rename flags on version 3 connections.
const posixRenameExt = "posix-rename@openssh.com"

func (e *Engine) Rename(ctx context.Context, oldPath, newPath string, flags sftp.RenameFlags) error {
	if flags == 0 {
		return e.expectStatus(ctx, fxpRename, oldPath, func(b *buffer) {
			b.str(oldPath)
			b.str(newPath)
		})
	}
	if flags&^(sftp.RenameOverwrite|sftp.RenameAtomic) != 0 || e.exts[posixRenameExt] == "" {
		return &sftp.StatusError{
			Code: sftp.StatusOpUnsupported,
			Path: oldPath,
			Msg:  "server cannot honor requested rename flags",
		}
	}
	return e.expectStatus(ctx, fxpExtended, oldPath, func(b *buffer) {
		b.str(posixRenameExt)
		b.str(oldPath)
		b.str(newPath)
	})
}

func (e *Engine) Symlink(ctx context.Context, linkPath, targetPath string) error {
	// OpenSSH's sftp-server takes the arguments in the reverse of the
	// draft's order: target first, link second.
	return e.expectStatus(ctx, fxpSymlink, linkPath, func(b *buffer) {
		b.str(targetPath)
		b.str(linkPath)
	})
}

func (e *Engine) ReadLink(ctx context.Context, path string) (string, error) {
	return e.expectName(ctx, fxpReadlink, path, func(b *buffer) { b.str(path) })
}

func (e *Engine) Canonicalize(ctx context.Context, path string) (string, error) {
	return e.expectName(ctx, fxpRealpath, path, func(b *buffer) { b.str(path) })
}

func (e *Engine) ProtocolVersion() uint32 {
	return e.version
}

// Extension returns the value a server advertised for an extension name,
// and whether it was advertised at all.
func (e *Engine) Extension(name string) (string, bool) {
	v, ok := e.exts[name]
	return v, ok
}

// Extensions returns a copy of everything the server advertised during
// the handshake.
func (e *Engine) Extensions() map[string]string {
	out := make(map[string]string, len(e.exts))
	for k, v := range e.exts {
		out[k] = v
	}
	return out
}

func (e *Engine) Close() error {
	return e.ch.Close()
}
