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
	"path"
	"path/filepath"

	"github.com/spf13/cobra"

	"skiff/internal/config"
	"skiff/internal/journal"
)

var getCmd = &cobra.Command{
	Use:   "get <remote-file> [local-file]",
	Short: "Download a remote file",
	Long: `Downloads a remote file. The local name defaults to the remote base name.

With --resume, a partial local file from an interrupted download is kept
and the transfer continues where it left off.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runGet,
}

var getResume bool

func init() {
	rootCmd.AddCommand(getCmd)
	getCmd.Flags().BoolVar(&getResume, "resume", false, "Continue an interrupted download")
}

func runGet(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	remotePath := args[0]
	localPath := path.Base(remotePath)
	if len(args) == 2 {
		localPath = args[1]
	}
	localPath, err := filepath.Abs(localPath)
	if err != nil {
		return fmt.Errorf("resolve local path: %w", err)
	}

	sess, err := connect(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	size, err := sess.Size(ctx, remotePath)
	if err != nil {
		return err
	}

	var offset uint64
	if getResume {
		if info, err := os.Stat(localPath); err == nil {
			offset = uint64(info.Size())
		}
		// A local file larger than the remote is not a partial download
		// of it. Start over; the fresh transfer truncates it.
		if offset > size {
			fmt.Fprintf(os.Stderr, "Warning: %s has %d bytes but the remote file has %d, restarting from the beginning\n",
				localPath, offset, size)
			offset = 0
		}
	}
	if offset == size && size > 0 {
		fmt.Printf("%s: already complete (%d bytes)\n", localPath, size)
		return nil
	}

	rec, j := beginJournal(ctx, journal.DirectionDownload, remotePath, localPath, int64(size), int64(offset))
	if j != nil {
		defer j.Close()
	}

	if err := sess.Download(ctx, remotePath, localPath, offset); err != nil {
		finishJournal(ctx, j, rec, localBytes(localPath), err)
		return err
	}
	finishJournal(ctx, j, rec, int64(size), nil)

	fmt.Printf("Downloaded %s -> %s (%d bytes)\n", remotePath, localPath, size)
	return nil
}

// localBytes reports how far a partial local file got, for the resume record.
func localBytes(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}

// beginJournal opens the transfer journal and records a new attempt. A
// locked or broken journal only disables resume bookkeeping, never the
// transfer itself.
func beginJournal(ctx context.Context, direction, remotePath, localPath string, size, offset int64) (*journal.TransferModel, *journal.Journal) {
	j, err := journal.Open(config.JournalPath(), config.JournalLockPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: transfer journal unavailable: %v\n", err)
		return nil, nil
	}
	// A prior interrupted attempt for the same endpoints is continued
	// under its original record rather than duplicated.
	if prev, err := j.FindResumable(ctx, direction, remotePath, localPath); err == nil && prev != nil {
		if err := j.Resume(ctx, prev.ID); err == nil {
			if offset > 0 {
				j.Progress(ctx, prev.ID, offset)
			}
			return prev, j
		}
	}
	rec, err := j.Begin(ctx, direction, remotePath, localPath, size)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not record transfer: %v\n", err)
		j.Close()
		return nil, nil
	}
	if offset > 0 {
		j.Progress(ctx, rec.ID, offset)
	}
	return rec, j
}

// finishJournal closes out a transfer record with its final byte count.
func finishJournal(ctx context.Context, j *journal.Journal, rec *journal.TransferModel, bytesDone int64, err error) {
	if j == nil || rec == nil {
		return
	}
	j.Progress(ctx, rec.ID, bytesDone)
	if err != nil {
		j.Fail(ctx, rec.ID, err.Error())
		return
	}
	j.Complete(ctx, rec.ID)
}
