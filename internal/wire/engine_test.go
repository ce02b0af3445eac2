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
	"encoding/binary"
	"io"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skiff/internal/sftp"
)

func readConnFrame(conn net.Conn) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(conn, lenBuf[:]); err != nil {
		return nil, err
	}
	frame := make([]byte, binary.BigEndian.Uint32(lenBuf[:]))
	if _, err := io.ReadFull(conn, frame); err != nil {
		return nil, err
	}
	return frame, nil
}

func writeConnFrame(conn net.Conn, payload []byte) {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(payload)))
	conn.Write(lenBuf[:])
	conn.Write(payload)
}

// startServer runs a scripted v3 server on the other end of a pipe. The
// handler sees every non-INIT request (type plus payload reader, id
// already consumed) and returns a full reply payload.
func startServer(t *testing.T, exts map[string]string, handler func(reqType byte, id uint32, r *reader) []byte) io.ReadWriteCloser {
	t.Helper()
	client, server := net.Pipe()
	go func() {
		defer server.Close()
		for {
			frame, err := readConnFrame(server)
			if err != nil || len(frame) == 0 {
				return
			}
			if frame[0] == fxpInit {
				var b buffer
				b.byte(fxpVersion)
				b.uint32(3)
				for name, value := range exts {
					b.str(name)
					b.str(value)
				}
				writeConnFrame(server, b.b)
				continue
			}
			r := &reader{b: frame[1:]}
			id := r.uint32()
			if resp := handler(frame[0], id, r); resp != nil {
				writeConnFrame(server, resp)
			}
		}
	}()
	return client
}

func statusReply(id uint32, code sftp.StatusCode, msg string) []byte {
	var b buffer
	b.byte(fxpStatus)
	b.uint32(id)
	b.uint32(uint32(code))
	b.str(msg)
	b.str("en")
	return b.b
}

func attrsReply(id uint32, attrs sftp.FileAttributes) []byte {
	var b buffer
	b.byte(fxpAttrs)
	b.uint32(id)
	encodeAttrs(&b, attrs)
	return b.b
}

func handleReply(id uint32, handle string) []byte {
	var b buffer
	b.byte(fxpHandle)
	b.uint32(id)
	b.str(handle)
	return b.b
}

func TestHandshake(t *testing.T) {
	t.Parallel()

	ch := startServer(t, map[string]string{"posix-rename@openssh.com": "1"}, nil)
	eng, err := New(ch)
	require.NoError(t, err)
	defer eng.Close()

	assert.Equal(t, uint32(3), eng.ProtocolVersion())
	v, ok := eng.Extension("posix-rename@openssh.com")
	assert.True(t, ok)
	assert.Equal(t, "1", v)
}

func TestStat(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("decodes attrs reply", func(t *testing.T) {
		t.Parallel()
		want := sftp.EmptyAttributes.WithSize(42).WithUIDGID(1, 2).WithMode(0x8000 | 0o644)
		ch := startServer(t, nil, func(reqType byte, id uint32, r *reader) []byte {
			require.Equal(t, fxpStat, reqType)
			assert.Equal(t, "/f", r.str())
			return attrsReply(id, want)
		})
		eng, err := New(ch)
		require.NoError(t, err)
		defer eng.Close()

		got, err := eng.Stat(ctx, "/f")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("status failure preserves code and path", func(t *testing.T) {
		t.Parallel()
		ch := startServer(t, nil, func(_ byte, id uint32, _ *reader) []byte {
			return statusReply(id, sftp.StatusNoSuchFile, "no such file")
		})
		eng, err := New(ch)
		require.NoError(t, err)
		defer eng.Close()

		_, err = eng.Stat(ctx, "/missing")
		var se *sftp.StatusError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, sftp.StatusNoSuchFile, se.Code)
		assert.Equal(t, "/missing", se.Path)
	})
}

func TestRenameFlags(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("legacy rename without flags", func(t *testing.T) {
		t.Parallel()
		ch := startServer(t, nil, func(reqType byte, id uint32, r *reader) []byte {
			require.Equal(t, fxpRename, reqType)
			assert.Equal(t, "/old", r.str())
			assert.Equal(t, "/new", r.str())
			return statusReply(id, sftp.StatusOK, "")
		})
		eng, err := New(ch)
		require.NoError(t, err)
		defer eng.Close()

		assert.NoError(t, eng.Rename(ctx, "/old", "/new", 0))
	})

	t.Run("flags without server support fail locally", func(t *testing.T) {
		t.Parallel()
		ch := startServer(t, nil, func(reqType byte, id uint32, _ *reader) []byte {
			t.Errorf("request %d must not reach the server", reqType)
			return statusReply(id, sftp.StatusOK, "")
		})
		eng, err := New(ch)
		require.NoError(t, err)
		defer eng.Close()

		err = eng.Rename(ctx, "/old", "/new", sftp.RenameOverwrite)
		assert.True(t, sftp.IsStatus(err, sftp.StatusOpUnsupported))
	})

	t.Run("overwrite flag uses posix-rename extension", func(t *testing.T) {
		t.Parallel()
		ch := startServer(t, map[string]string{posixRenameExt: "1"},
			func(reqType byte, id uint32, r *reader) []byte {
				require.Equal(t, fxpExtended, reqType)
				assert.Equal(t, posixRenameExt, r.str())
				assert.Equal(t, "/old", r.str())
				assert.Equal(t, "/new", r.str())
				return statusReply(id, sftp.StatusOK, "")
			})
		eng, err := New(ch)
		require.NoError(t, err)
		defer eng.Close()

		assert.NoError(t, eng.Rename(ctx, "/old", "/new", sftp.RenameOverwrite))
	})
}

func TestFileReadWrite(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	content := []byte("0123456789")
	ch := startServer(t, nil, func(reqType byte, id uint32, r *reader) []byte {
		switch reqType {
		case fxpOpen:
			r.str() // path
			return handleReply(id, "h1")
		case fxpRead:
			r.str() // handle
			off := r.uint64()
			n := r.uint32()
			if off >= uint64(len(content)) {
				return statusReply(id, sftp.StatusEOF, "eof")
			}
			end := off + uint64(n)
			if end > uint64(len(content)) {
				end = uint64(len(content))
			}
			var b buffer
			b.byte(fxpData)
			b.uint32(id)
			b.bytes(content[off:end])
			return b.b
		case fxpWrite:
			r.str()
			off := r.uint64()
			data := r.bytes()
			assert.Equal(t, uint64(3), off)
			assert.Equal(t, []byte("xyz"), data)
			return statusReply(id, sftp.StatusOK, "")
		case fxpClose:
			return statusReply(id, sftp.StatusOK, "")
		default:
			return statusReply(id, sftp.StatusOpUnsupported, "unsupported")
		}
	})
	eng, err := New(ch)
	require.NoError(t, err)
	defer eng.Close()

	h, err := eng.Open(ctx, "/f", sftp.OpenRead|sftp.OpenWrite, sftp.EmptyAttributes)
	require.NoError(t, err)

	buf := make([]byte, 4)
	n, err := h.ReadAt(ctx, buf, 2)
	require.NoError(t, err)
	assert.Equal(t, "2345", string(buf[:n]))

	_, err = h.ReadAt(ctx, buf, 100)
	assert.ErrorIs(t, err, io.EOF)

	n, err = h.WriteAt(ctx, []byte("xyz"), 3)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	require.NoError(t, h.Close())
}

func TestReadDir(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	sent := false
	ch := startServer(t, nil, func(reqType byte, id uint32, r *reader) []byte {
		switch reqType {
		case fxpOpendir:
			return handleReply(id, "d1")
		case fxpReaddir:
			if sent {
				return statusReply(id, sftp.StatusEOF, "eof")
			}
			sent = true
			var b buffer
			b.byte(fxpName)
			b.uint32(id)
			b.uint32(2)
			for _, name := range []string{"a", "b"} {
				b.str(name)
				b.str("-rw-r--r-- " + name)
				encodeAttrs(&b, sftp.EmptyAttributes.WithMode(0x8000|0o644))
			}
			return b.b
		case fxpClose:
			return statusReply(id, sftp.StatusOK, "")
		default:
			return statusReply(id, sftp.StatusOpUnsupported, "unsupported")
		}
	})
	eng, err := New(ch)
	require.NoError(t, err)
	defer eng.Close()

	dir, err := eng.OpenDir(ctx, "/dir")
	require.NoError(t, err)

	entries, err := dir.ReadDir(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "a", entries[0].Name)
	assert.Equal(t, "/dir/a", entries[0].Path)
	assert.Equal(t, sftp.TypeRegular, entries[0].Attrs.Type())

	_, err = dir.ReadDir(ctx)
	assert.ErrorIs(t, err, io.EOF)
	require.NoError(t, dir.Close())
}

func TestAttrCodecPartialFields(t *testing.T) {
	t.Parallel()

	// Only the set fields travel: a size-only update must encode to the
	// size flag plus eight bytes, nothing else.
	var b buffer
	encodeAttrs(&b, sftp.EmptyAttributes.WithSize(7))
	require.Len(t, b.b, 4+8)
	assert.Equal(t, attrSize, binary.BigEndian.Uint32(b.b[:4]))

	decoded := decodeAttrs(&reader{b: b.b})
	size, ok := decoded.Size()
	assert.True(t, ok)
	assert.Equal(t, uint64(7), size)
	_, _, ok = decoded.UIDGID()
	assert.False(t, ok)
}
