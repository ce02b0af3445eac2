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

package util

import (
	"context"
	"errors"
	"testing"

	"github.com/avast/retry-go/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetry(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("retries transient lock errors until success", func(t *testing.T) {
		t.Parallel()
		calls := 0
		err := Retry(func() error {
			calls++
			if calls < 3 {
				return errors.New("database is locked")
			}
			return nil
		}, append(DatabaseRetryOptions(ctx), retry.Delay(0))...)
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("does not retry non-matching errors", func(t *testing.T) {
		t.Parallel()
		calls := 0
		err := Retry(func() error {
			calls++
			return errors.New("disk full")
		}, append(DatabaseRetryOptions(ctx), retry.Delay(0))...)
		assert.ErrorContains(t, err, "disk full")
		assert.Equal(t, 1, calls)
	})

	t.Run("returns the result once a dial succeeds", func(t *testing.T) {
		t.Parallel()
		calls := 0
		got, err := RetryWithResult(func() (int, error) {
			calls++
			if calls == 1 {
				return 0, errors.New("dial tcp: connection refused")
			}
			return 42, nil
		}, append(DialRetryOptions(ctx), retry.Delay(0))...)
		require.NoError(t, err)
		assert.Equal(t, 42, got)
		assert.Equal(t, 2, calls)
	})
}

func TestRetryPredicates(t *testing.T) {
	t.Parallel()

	assert.False(t, IsDatabaseLocked(nil))
	assert.True(t, IsDatabaseLocked(errors.New("database is locked (5)")))
	assert.False(t, IsDatabaseLocked(errors.New("constraint failed")))

	assert.False(t, IsTransientDial(nil))
	assert.True(t, IsTransientDial(errors.New("dial tcp: connection refused")))
	assert.True(t, IsTransientDial(errors.New("read tcp: connection reset by peer")))
	assert.False(t, IsTransientDial(errors.New("ssh: handshake failed")))
}
