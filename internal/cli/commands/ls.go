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
	"sort"
	"time"

	"github.com/spf13/cobra"

	"skiff/internal/filter"
	"skiff/internal/sftp"
)

var lsCmd = &cobra.Command{
	Use:   "ls <remote-dir>",
	Short: "List a remote directory",
	Long: `Lists the entries of a remote directory, excluding "." and "..".

Exclude patterns use gitignore syntax and match against entry names:
  skiff ls -P build /var/data -I '*.log' -I 'tmp/'`,
	Args: cobra.ExactArgs(1),
	RunE: runLs,
}

var (
	lsLong     bool
	lsExcludes []string
)

func init() {
	rootCmd.AddCommand(lsCmd)
	lsCmd.Flags().BoolVarP(&lsLong, "long", "l", false, "Long format: mode, size, mtime")
	lsCmd.Flags().StringArrayVarP(&lsExcludes, "ignore", "I", nil, "Exclude entries matching a gitignore-style pattern (repeatable)")
}

func runLs(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	sess, err := connect(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	var selector sftp.Selector
	if len(lsExcludes) > 0 {
		selector = filter.BuildSelector(lsExcludes, nil)
	}

	entries, err := sess.List(ctx, args[0], selector)
	if err != nil {
		return err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })

	for _, e := range entries {
		if lsLong {
			fmt.Println(formatLong(e))
		} else {
			fmt.Println(e.Name)
		}
	}
	return nil
}

func formatLong(e sftp.RemoteResourceInfo) string {
	mode, _ := e.Attrs.Mode()
	size, _ := e.Attrs.Size()
	var mtime string
	if _, m, ok := e.Attrs.Times(); ok {
		mtime = time.Unix(int64(m), 0).Format("2006-01-02 15:04")
	} else {
		mtime = "                "
	}
	return fmt.Sprintf("%c%04o %12d %s %s", typeChar(e.Attrs.Type()), mode.Perms(), size, mtime, e.Name)
}

func typeChar(t sftp.Type) byte {
	switch t {
	case sftp.TypeDirectory:
		return 'd'
	case sftp.TypeSymlink:
		return 'l'
	case sftp.TypeRegular:
		return '-'
	default:
		return '?'
	}
}
