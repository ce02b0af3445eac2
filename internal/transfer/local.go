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
	"fmt"
	"io"
	"sync"

	"github.com/go-git/go-billy/v5"

	"skiff/internal/sftp"
)

// seekDest adapts a billy file into sftp.LocalDest. billy files expose no
// WriteAt, so writes go through seek-then-write under a mutex; the
// download loop writes sequentially, the lock just keeps the pair atomic.
type seekDest struct {
	mu   sync.Mutex
	f    billy.File
	name string
}

func (d *seekDest) Name() string { return d.name }

func (d *seekDest) WriteAt(p []byte, off int64) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, err := d.f.Seek(off, io.SeekStart); err != nil {
		return 0, err
	}
	return d.f.Write(p)
}

// fileSource adapts a billy file into sftp.LocalSource.
type fileSource struct {
	f    billy.File
	name string
	fs   billy.Filesystem
}

func (s *fileSource) Name() string { return s.name }

func (s *fileSource) ReadAt(p []byte, off int64) (int, error) {
	return s.f.ReadAt(p, off)
}

func (s *fileSource) Size() (uint64, error) {
	info, err := s.fs.Stat(s.name)
	if err != nil {
		return 0, fmt.Errorf("stat local source: %w", err)
	}
	return uint64(info.Size()), nil
}

// NewLocalSource opens a local file as an upload source. The caller is
// responsible for closing the returned source.
func NewLocalSource(fs billy.Filesystem, path string) (sftp.LocalSource, io.Closer, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open local source: %w", err)
	}
	return &fileSource{f: f, name: path, fs: fs}, f, nil
}
