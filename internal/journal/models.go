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

package journal

import "github.com/uptrace/bun"

// Transfer directions
const (
	DirectionDownload = "download"
	DirectionUpload   = "upload"
)

// Transfer statuses
const (
	StatusActive   = "active"
	StatusComplete = "complete"
	StatusFailed   = "failed"
)

// TransferModel represents the transfers table
type TransferModel struct {
	bun.BaseModel `bun:"table:transfers"`

	ID         string `bun:"id,pk"`
	Direction  string `bun:"direction,notnull"` // "download", "upload"
	RemotePath string `bun:"remote_path,notnull"`
	LocalPath  string `bun:"local_path,notnull"`
	Size       int64  `bun:"size,notnull"`
	BytesDone  int64  `bun:"bytes_done,notnull"`
	Status     string `bun:"status,notnull"` // "active", "complete", "failed"
	Error      string `bun:"error,notnull"`
	CreatedAt  int64  `bun:"created_at,notnull"` // Unix timestamp
	UpdatedAt  int64  `bun:"updated_at,notnull"` // Unix timestamp
}
