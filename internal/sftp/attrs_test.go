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

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFileAttributesEmpty(t *testing.T) {
	t.Parallel()

	assert.True(t, EmptyAttributes.IsEmpty())
	assert.Zero(t, EmptyAttributes.Flags())

	_, ok := EmptyAttributes.Size()
	assert.False(t, ok, "size must not be reported as set")
	_, _, ok = EmptyAttributes.UIDGID()
	assert.False(t, ok)
	_, ok = EmptyAttributes.Mode()
	assert.False(t, ok)
	_, _, ok = EmptyAttributes.Times()
	assert.False(t, ok)
	assert.Equal(t, TypeUnknown, EmptyAttributes.Type())
}

func TestFileAttributesAdditive(t *testing.T) {
	t.Parallel()

	t.Run("set to zero is distinct from unset", func(t *testing.T) {
		t.Parallel()
		a := EmptyAttributes.WithSize(0)
		size, ok := a.Size()
		assert.True(t, ok)
		assert.Zero(t, size)
		assert.False(t, a.IsEmpty())
	})

	t.Run("setting one field leaves others unset", func(t *testing.T) {
		t.Parallel()
		a := EmptyAttributes.WithUIDGID(1000, 1000)
		_, ok := a.Size()
		assert.False(t, ok)
		_, ok = a.Mode()
		assert.False(t, ok)
		uid, gid, ok := a.UIDGID()
		assert.True(t, ok)
		assert.Equal(t, uint32(1000), uid)
		assert.Equal(t, uint32(1000), gid)
	})

	t.Run("builder does not mutate the receiver", func(t *testing.T) {
		t.Parallel()
		a := EmptyAttributes.WithSize(7)
		b := a.WithPermissions(0o600)
		_, ok := a.Mode()
		assert.False(t, ok, "receiver must stay unchanged")
		mode, ok := b.Mode()
		assert.True(t, ok)
		assert.Equal(t, uint32(0o600), mode.Perms())
	})

	t.Run("permissions preserve type bits", func(t *testing.T) {
		t.Parallel()
		a := EmptyAttributes.WithMode(0x4000 | 0o755).WithPermissions(0o700)
		mode, ok := a.Mode()
		assert.True(t, ok)
		assert.Equal(t, TypeDirectory, mode.Type())
		assert.Equal(t, uint32(0o700), mode.Perms())
	})
}

func TestFileModeType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		mode FileMode
		want Type
	}{
		{"regular", 0x8000 | 0o644, TypeRegular},
		{"directory", 0x4000 | 0o755, TypeDirectory},
		{"symlink", 0xA000 | 0o777, TypeSymlink},
		{"socket", 0xC000, TypeSpecial},
		{"no type bits", 0o644, TypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.mode.Type())
		})
	}
}
