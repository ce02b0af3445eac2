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
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"skiff/internal/sftp"
)

var statCmd = &cobra.Command{
	Use:   "stat <remote-path>",
	Short: "Show remote file attributes",
	Long: `Shows the attributes a remote server reports for a path.

Symlinks are followed by default; with --no-follow the link itself is
examined. Fields the server did not report are shown as "-".`,
	Args: cobra.ExactArgs(1),
	RunE: runStat,
}

var statNoFollow bool

func init() {
	rootCmd.AddCommand(statCmd)
	statCmd.Flags().BoolVar(&statNoFollow, "no-follow", false, "Examine a symlink itself instead of its target")
}

func runStat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	sess, err := connect(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	var attrs sftp.FileAttributes
	if statNoFollow {
		attrs, err = sess.LStat(ctx, args[0])
	} else {
		attrs, err = sess.Stat(ctx, args[0])
	}
	if err != nil {
		return err
	}

	fmt.Printf("Path:  %s\n", args[0])
	fmt.Printf("Type:  %s\n", attrs.Type())
	if size, ok := attrs.Size(); ok {
		fmt.Printf("Size:  %d\n", size)
	} else {
		fmt.Println("Size:  -")
	}
	if mode, ok := attrs.Mode(); ok {
		fmt.Printf("Mode:  %04o\n", mode.Perms())
	} else {
		fmt.Println("Mode:  -")
	}
	if uid, gid, ok := attrs.UIDGID(); ok {
		fmt.Printf("Owner: %d:%d\n", uid, gid)
	} else {
		fmt.Println("Owner: -")
	}
	if atime, mtime, ok := attrs.Times(); ok {
		fmt.Printf("Atime: %s\n", time.Unix(int64(atime), 0).Format(time.RFC3339))
		fmt.Printf("Mtime: %s\n", time.Unix(int64(mtime), 0).Format(time.RFC3339))
	} else {
		fmt.Println("Atime: -")
		fmt.Println("Mtime: -")
	}
	return nil
}
