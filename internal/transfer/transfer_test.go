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

package transfer

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skiff/internal/sftp"
	"skiff/internal/sftp/enginetest"
)

func TestDownload(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("full download", func(t *testing.T) {
		t.Parallel()
		eng := enginetest.New()
		eng.PutFile("/remote.txt", []byte("hello remote"))
		fs := memfs.New()
		xfer := New(eng, fs, WithChunkSize(4))

		require.NoError(t, xfer.Download(ctx, "/remote.txt", "/local.txt", 0))

		f, err := fs.Open("/local.txt")
		require.NoError(t, err)
		data, err := io.ReadAll(f)
		require.NoError(t, err)
		require.NoError(t, f.Close())
		assert.Equal(t, "hello remote", string(data))
	})

	t.Run("resume preserves the first N bytes", func(t *testing.T) {
		t.Parallel()
		eng := enginetest.New()
		eng.PutFile("/remote.txt", []byte("AAAABBBBCCCC"))
		fs := memfs.New()

		// A previous partial download left different leading bytes.
		f, err := fs.Create("/local.txt")
		require.NoError(t, err)
		_, err = f.Write([]byte("XXXXstalestalestale"))
		require.NoError(t, err)
		require.NoError(t, f.Close())

		xfer := New(eng, fs, WithChunkSize(5))
		require.NoError(t, xfer.Download(ctx, "/remote.txt", "/local.txt", 4))

		f, err = fs.Open("/local.txt")
		require.NoError(t, err)
		data, err := io.ReadAll(f)
		require.NoError(t, err)
		require.NoError(t, f.Close())
		assert.Equal(t, "XXXXBBBBCCCC", string(data),
			"first 4 bytes untouched, rest rewritten, stale tail trimmed")
	})

	t.Run("missing remote file fails", func(t *testing.T) {
		t.Parallel()
		eng := enginetest.New()
		fs := memfs.New()
		xfer := New(eng, fs)

		err := xfer.Download(ctx, "/nope", "/local", 0)
		assert.True(t, sftp.IsStatus(err, sftp.StatusNoSuchFile))
	})

	t.Run("download to open destination", func(t *testing.T) {
		t.Parallel()
		eng := enginetest.New()
		eng.PutFile("/r", []byte("payload"))
		xfer := New(eng, memfs.New())

		dst := &bufferDest{}
		require.NoError(t, xfer.DownloadTo(ctx, "/r", dst, 0))
		assert.Equal(t, "payload", dst.buf.String())
	})
}

func TestUpload(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("full upload", func(t *testing.T) {
		t.Parallel()
		eng := enginetest.New()
		fs := memfs.New()
		f, err := fs.Create("/src.txt")
		require.NoError(t, err)
		_, err = f.Write([]byte("local payload"))
		require.NoError(t, err)
		require.NoError(t, f.Close())

		xfer := New(eng, fs, WithChunkSize(3))
		require.NoError(t, xfer.Upload(ctx, "/src.txt", "/dst.txt", 0))
		assert.Equal(t, []byte("local payload"), eng.FileContent("/dst.txt"))
	})

	t.Run("resume writes from offset and keeps remote prefix", func(t *testing.T) {
		t.Parallel()
		eng := enginetest.New()
		eng.PutFile("/dst.txt", []byte("RRRRgarbage"))
		fs := memfs.New()
		f, err := fs.Create("/src.txt")
		require.NoError(t, err)
		_, err = f.Write([]byte("RRRRnewtail"))
		require.NoError(t, err)
		require.NoError(t, f.Close())

		xfer := New(eng, fs, WithChunkSize(4))
		require.NoError(t, xfer.Upload(ctx, "/src.txt", "/dst.txt", 4))
		assert.Equal(t, []byte("RRRRnewtail"), eng.FileContent("/dst.txt"))
	})

	t.Run("upload from open source", func(t *testing.T) {
		t.Parallel()
		eng := enginetest.New()
		fs := memfs.New()
		f, err := fs.Create("/src")
		require.NoError(t, err)
		_, err = f.Write([]byte("sourced"))
		require.NoError(t, err)
		require.NoError(t, f.Close())

		src, closer, err := NewLocalSource(fs, "/src")
		require.NoError(t, err)
		defer closer.Close()

		size, err := src.Size()
		require.NoError(t, err)
		assert.Equal(t, uint64(7), size)

		xfer := New(eng, fs)
		require.NoError(t, xfer.UploadFrom(ctx, src, "/dst", 0))
		assert.Equal(t, []byte("sourced"), eng.FileContent("/dst"))
	})

	t.Run("missing local source fails", func(t *testing.T) {
		t.Parallel()
		eng := enginetest.New()
		xfer := New(eng, memfs.New())
		err := xfer.Upload(ctx, "/nope", "/dst", 0)
		require.Error(t, err)
	})
}

// bufferDest collects WriteAt calls into a contiguous buffer; writes are
// sequential in these tests.
type bufferDest struct {
	buf bytes.Buffer
}

func (b *bufferDest) Name() string { return "buffer" }

func (b *bufferDest) WriteAt(p []byte, off int64) (int, error) {
	if off != int64(b.buf.Len()) {
		return 0, io.ErrShortWrite
	}
	return b.buf.Write(p)
}
