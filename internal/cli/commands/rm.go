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

var rmCmd = &cobra.Command{
	Use:   "rm <remote-file>...",
	Short: "Remove remote files",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runRm,
}

var rmdirCmd = &cobra.Command{
	Use:   "rmdir <remote-dir>...",
	Short: "Remove empty remote directories",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runRmdir,
}

func init() {
	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(rmdirCmd)
}

func runRm(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	sess, err := connect(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	for _, path := range args {
		if err := sess.Remove(ctx, path); err != nil {
			return err
		}
	}
	return nil
}

func runRmdir(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	sess, err := connect(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	for _, path := range args {
		if err := sess.RemoveDirectory(ctx, path); err != nil {
			return err
		}
	}
	return nil
}
