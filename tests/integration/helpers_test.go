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

// Package integration exercises the full client stack: the facade, the
// transfer loops and the local filesystem plumbing, backed by an in-memory
// protocol engine. No network or SSH server is involved; the wire layer
// has its own protocol-level tests.
package integration

import (
	"io"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"

	"skiff/internal/sftp"
	"skiff/internal/sftp/enginetest"
	"skiff/internal/transfer"
)

// testEnv bundles a client facade with the fake server behind it and the
// local filesystem transfers read from and write to.
type testEnv struct {
	client *sftp.Client
	engine *enginetest.Engine
	local  billy.Filesystem
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	engine := enginetest.New()
	local := memfs.New()
	client := sftp.NewClient(engine, transfer.New(engine, local, transfer.WithChunkSize(4)))
	t.Cleanup(func() { client.Close() })
	return &testEnv{client: client, engine: engine, local: local}
}

// writeLocal seeds a file on the test environment's local filesystem.
func (env *testEnv) writeLocal(t *testing.T, path string, content []byte) {
	t.Helper()
	f, err := env.local.Create(path)
	if err != nil {
		t.Fatalf("create local file %s: %v", path, err)
	}
	if _, err := f.Write(content); err != nil {
		t.Fatalf("write local file %s: %v", path, err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close local file %s: %v", path, err)
	}
}

// readLocal returns a local file's content.
func (env *testEnv) readLocal(t *testing.T, path string) []byte {
	t.Helper()
	f, err := env.local.Open(path)
	if err != nil {
		t.Fatalf("open local file %s: %v", path, err)
	}
	defer f.Close()
	info, err := env.local.Stat(path)
	if err != nil {
		t.Fatalf("stat local file %s: %v", path, err)
	}
	buf := make([]byte, info.Size())
	if _, err := io.ReadFull(f, buf); err != nil {
		t.Fatalf("read local file %s: %v", path, err)
	}
	return buf
}
