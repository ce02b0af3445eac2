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
)

var mkdirCmd = &cobra.Command{
	Use:   "mkdir <remote-dir>",
	Short: "Create a remote directory",
	Long: `Creates a remote directory.

With -p, missing parent directories are created as well and an already
existing target directory is not an error.`,
	Args: cobra.ExactArgs(1),
	RunE: runMkdir,
}

var mkdirParents bool

func init() {
	rootCmd.AddCommand(mkdirCmd)
	mkdirCmd.Flags().BoolVarP(&mkdirParents, "parents", "p", false, "Create missing parent directories")
}

func runMkdir(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	sess, err := connect(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	if mkdirParents {
		return sess.MakeDirectories(ctx, args[0])
	}
	return sess.MakeDirectory(ctx, args[0])
}
