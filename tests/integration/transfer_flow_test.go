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

package integration

import (
	"context"
	"testing"

	. "github.com/onsi/gomega"

	"skiff/internal/sftp"
)

// TestUploadDownloadRoundTrip pushes a file up, pulls it back down, and
// checks nothing got lost across the chunked loops.
func TestUploadDownloadRoundTrip(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)
	ctx := context.Background()
	env := newTestEnv(t)

	content := []byte("the quick brown fox jumps over the lazy dog")
	env.writeLocal(t, "/up.txt", content)
	env.engine.MkdirAll("/inbox")

	g.Expect(env.client.Upload(ctx, "/up.txt", "/inbox/up.txt", 0)).To(Succeed())
	g.Expect(env.engine.FileContent("/inbox/up.txt")).To(Equal(content))

	g.Expect(env.client.Download(ctx, "/inbox/up.txt", "/down.txt", 0)).To(Succeed())
	g.Expect(env.readLocal(t, "/down.txt")).To(Equal(content))
}

// TestDownloadResume simulates an interrupted download: the local file
// already holds a prefix, and the transfer continues from that offset
// without rewriting it.
func TestDownloadResume(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)
	ctx := context.Background()
	env := newTestEnv(t)

	env.engine.MkdirAll("/inbox")
	env.engine.PutFile("/inbox/big.bin", []byte("AAAABBBBCCCC"))

	// The partial local copy diverges on purpose so we can prove the
	// prefix is kept rather than re-downloaded.
	env.writeLocal(t, "/big.bin", []byte("XXXX"))

	g.Expect(env.client.Download(ctx, "/inbox/big.bin", "/big.bin", 4)).To(Succeed())
	g.Expect(env.readLocal(t, "/big.bin")).To(Equal([]byte("XXXXBBBBCCCC")))
}

// TestUploadResume continues an interrupted upload from the bytes the
// server already has.
func TestUploadResume(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)
	ctx := context.Background()
	env := newTestEnv(t)

	env.engine.MkdirAll("/inbox")
	env.engine.PutFile("/inbox/big.bin", []byte("AAAA"))
	env.writeLocal(t, "/big.bin", []byte("AAAABBBBCCCC"))

	g.Expect(env.client.Upload(ctx, "/big.bin", "/inbox/big.bin", 4)).To(Succeed())
	g.Expect(env.engine.FileContent("/inbox/big.bin")).To(Equal([]byte("AAAABBBBCCCC")))
}

// TestFreshTransferReplacesStaleFile covers the restart after a resume
// attempt finds the destination larger than its source: an offset-zero
// transfer must replace the stale content entirely, in both directions.
func TestFreshTransferReplacesStaleFile(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)
	ctx := context.Background()
	env := newTestEnv(t)

	env.engine.MkdirAll("/inbox")
	env.engine.PutFile("/inbox/big.bin", []byte("AAAA"))
	env.writeLocal(t, "/big.bin", []byte("XXXXXXXXXXXX"))

	g.Expect(env.client.Download(ctx, "/inbox/big.bin", "/big.bin", 0)).To(Succeed())
	g.Expect(env.readLocal(t, "/big.bin")).To(Equal([]byte("AAAA")))

	env.engine.PutFile("/inbox/small.bin", []byte("YYYYYYYYYYYY"))
	env.writeLocal(t, "/small.bin", []byte("BBBB"))

	g.Expect(env.client.Upload(ctx, "/small.bin", "/inbox/small.bin", 0)).To(Succeed())
	g.Expect(env.engine.FileContent("/inbox/small.bin")).To(Equal([]byte("BBBB")))
}

// TestDownloadMissingRemote maps a missing source to the protocol's
// no-such-file status instead of inventing an empty local file's worth
// of success.
func TestDownloadMissingRemote(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)
	ctx := context.Background()
	env := newTestEnv(t)

	err := env.client.Download(ctx, "/nope.bin", "/nope.bin", 0)
	g.Expect(sftp.IsStatus(err, sftp.StatusNoSuchFile)).To(BeTrue())
}
