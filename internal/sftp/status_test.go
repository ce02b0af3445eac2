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
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusError(t *testing.T) {
	t.Parallel()

	t.Run("message includes path and code", func(t *testing.T) {
		t.Parallel()
		err := &StatusError{Code: StatusPermissionDenied, Path: "/etc/shadow", Msg: "permission denied"}
		assert.Contains(t, err.Error(), "/etc/shadow")
		assert.Contains(t, err.Error(), "SSH_FX_PERMISSION_DENIED")
	})

	t.Run("falls back to code name without message", func(t *testing.T) {
		t.Parallel()
		err := &StatusError{Code: StatusFailure}
		assert.Contains(t, err.Error(), "SSH_FX_FAILURE")
	})
}

func TestIsStatus(t *testing.T) {
	t.Parallel()

	notFound := &StatusError{Code: StatusNoSuchFile, Path: "/x"}
	assert.True(t, IsStatus(notFound, StatusNoSuchFile))
	assert.False(t, IsStatus(notFound, StatusPermissionDenied))

	t.Run("sees through wrapping", func(t *testing.T) {
		t.Parallel()
		wrapped := fmt.Errorf("probing: %w", notFound)
		assert.True(t, IsStatus(wrapped, StatusNoSuchFile))
	})

	t.Run("nil and foreign errors", func(t *testing.T) {
		t.Parallel()
		assert.False(t, IsStatus(nil, StatusNoSuchFile))
		assert.False(t, IsStatus(fmt.Errorf("boom"), StatusNoSuchFile))
	})
}

func TestWrongTypeError(t *testing.T) {
	t.Parallel()

	err := &WrongTypeError{Path: "/a/b", Type: TypeRegular}
	assert.Contains(t, err.Error(), "/a/b")
	assert.Contains(t, err.Error(), "not a directory")
}

func TestStatusCodeString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "SSH_FX_NO_SUCH_FILE", StatusNoSuchFile.String())
	assert.Equal(t, "SSH_FX_OP_UNSUPPORTED", StatusOpUnsupported.String())
	assert.Contains(t, StatusCode(99).String(), "UNKNOWN")
}
