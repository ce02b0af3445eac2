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
	"github.com/spf13/cobra"

	"skiff/internal/sftp"
)

var mvCmd = &cobra.Command{
	Use:   "mv <remote-old> <remote-new>",
	Short: "Rename a remote file or directory",
	Long: `Renames a remote file or directory.

--overwrite and --atomic need server support (the posix-rename extension);
without it the command fails rather than silently dropping the guarantee.`,
	Args: cobra.ExactArgs(2),
	RunE: runMv,
}

var (
	mvOverwrite bool
	mvAtomic    bool
)

func init() {
	rootCmd.AddCommand(mvCmd)
	mvCmd.Flags().BoolVar(&mvOverwrite, "overwrite", false, "Replace the target if it exists")
	mvCmd.Flags().BoolVar(&mvAtomic, "atomic", false, "Require an atomic rename")
}

func runMv(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	sess, err := connect(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	var flags sftp.RenameFlags
	if mvOverwrite {
		flags |= sftp.RenameOverwrite
	}
	if mvAtomic {
		flags |= sftp.RenameAtomic
	}
	return sess.Rename(ctx, args[0], args[1], flags)
}
