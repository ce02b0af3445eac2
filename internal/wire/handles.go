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

package wire

import (
	"context"
	"io"

	"skiff/internal/sftp"
)

// fileHandle is an open remote file backed by a server handle string.
type fileHandle struct {
	eng    *Engine
	handle string
	path   string
}

func (h *fileHandle) ReadAt(ctx context.Context, p []byte, off uint64) (int, error) {
	t, r, err := h.eng.roundTrip(ctx, fxpRead, func(b *buffer) {
		b.str(h.handle)
		b.uint64(off)
		b.uint32(uint32(len(p)))
	})
	if err != nil {
		return 0, err
	}
	switch t {
	case fxpData:
		data := r.bytes()
		if r.err != nil {
			return 0, r.err
		}
		n := copy(p, data)
		return n, nil
	case fxpStatus:
		if err := toStatusError(r, h.path); err != nil {
			return 0, err
		}
		return 0, io.ErrUnexpectedEOF
	default:
		return 0, unexpectedReply(t)
	}
}

func (h *fileHandle) WriteAt(ctx context.Context, p []byte, off uint64) (int, error) {
	err := h.eng.expectStatus(ctx, fxpWrite, h.path, func(b *buffer) {
		b.str(h.handle)
		b.uint64(off)
		b.bytes(p)
	})
	if err != nil {
		return 0, err
	}
	return len(p), nil
}

func (h *fileHandle) Stat(ctx context.Context) (sftp.FileAttributes, error) {
	return h.eng.expectAttrs(ctx, fxpFstat, h.path, func(b *buffer) { b.str(h.handle) })
}

func (h *fileHandle) SetStat(ctx context.Context, attrs sftp.FileAttributes) error {
	return h.eng.expectStatus(ctx, fxpFsetstat, h.path, func(b *buffer) {
		b.str(h.handle)
		encodeAttrs(b, attrs)
	})
}

func (h *fileHandle) Close() error {
	return h.eng.expectStatus(context.Background(), fxpClose, h.path, func(b *buffer) {
		b.str(h.handle)
	})
}

// dirHandle is an open remote directory backed by a server handle string.
type dirHandle struct {
	eng    *Engine
	handle string
	path   string
}

func (h *dirHandle) ReadDir(ctx context.Context) ([]sftp.RemoteResourceInfo, error) {
	t, r, err := h.eng.roundTrip(ctx, fxpReaddir, func(b *buffer) { b.str(h.handle) })
	if err != nil {
		return nil, err
	}
	switch t {
	case fxpName:
		count := r.uint32()
		entries := make([]sftp.RemoteResourceInfo, 0, count)
		for i := uint32(0); i < count && r.err == nil; i++ {
			name := r.str()
			r.str() // longname, display-only
			attrs := decodeAttrs(r)
			entries = append(entries, sftp.RemoteResourceInfo{
				Name:  name,
				Path:  sftp.JoinPath(h.path, name),
				Attrs: attrs,
			})
		}
		if r.err != nil {
			return nil, r.err
		}
		return entries, nil
	case fxpStatus:
		if err := toStatusError(r, h.path); err != nil {
			return nil, err
		}
		return nil, io.ErrUnexpectedEOF
	default:
		return nil, unexpectedReply(t)
	}
}

func (h *dirHandle) Close() error {
	return h.eng.expectStatus(context.Background(), fxpClose, h.path, func(b *buffer) {
		b.str(h.handle)
	})
}
