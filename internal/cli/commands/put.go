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

package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"skiff/internal/journal"
	"skiff/internal/session"
)

var putCmd = &cobra.Command{
	Use:   "put <local-file> [remote-file]",
	Short: "Upload a local file",
	Long: `Uploads a local file. The remote name defaults to the local base name.

With --resume, bytes already present on the server from an interrupted
upload are kept and the transfer continues where it left off.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runPut,
}

var putResume bool

func init() {
	rootCmd.AddCommand(putCmd)
	putCmd.Flags().BoolVar(&putResume, "resume", false, "Continue an interrupted upload")
}

func runPut(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	localPath, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("resolve local path: %w", err)
	}
	remotePath := filepath.Base(localPath)
	if len(args) == 2 {
		remotePath = args[1]
	}

	info, err := os.Stat(localPath)
	if err != nil {
		return err
	}
	size := uint64(info.Size())

	sess, err := connect(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	var offset uint64
	if putResume {
		if attrs, err := sess.StatExistence(ctx, remotePath); err != nil {
			return err
		} else if attrs != nil {
			if remoteSize, ok := attrs.Size(); ok {
				offset = remoteSize
			}
		}
		// A remote file larger than the local is not a partial upload of
		// it. Start over; the fresh transfer truncates it.
		if offset > size {
			fmt.Fprintf(os.Stderr, "Warning: %s has %d bytes but the local file has %d, restarting from the beginning\n",
				remotePath, offset, size)
			offset = 0
		}
	}
	if offset == size && size > 0 {
		fmt.Printf("%s: already complete (%d bytes)\n", remotePath, size)
		return nil
	}

	rec, j := beginJournal(ctx, journal.DirectionUpload, remotePath, localPath, int64(size), int64(offset))
	if j != nil {
		defer j.Close()
	}

	if err := sess.Upload(ctx, localPath, remotePath, offset); err != nil {
		finishJournal(ctx, j, rec, remoteBytes(ctx, sess, remotePath), err)
		return err
	}
	finishJournal(ctx, j, rec, int64(size), nil)

	fmt.Printf("Uploaded %s -> %s (%d bytes)\n", localPath, remotePath, size)
	return nil
}

// remoteBytes reports how far a partial upload got, for the resume record.
func remoteBytes(ctx context.Context, sess *session.Session, remotePath string) int64 {
	attrs, err := sess.StatExistence(ctx, remotePath)
	if err != nil || attrs == nil {
		return 0
	}
	size, ok := attrs.Size()
	if !ok {
		return 0
	}
	return int64(size)
}
