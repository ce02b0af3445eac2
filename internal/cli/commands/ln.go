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

	"github.com/spf13/cobra"
)

var lnCmd = &cobra.Command{
	Use:   "ln <target> <link-path>",
	Short: "Create a remote symlink",
	Long:  `Creates a remote symbolic link at <link-path> pointing to <target>.`,
	Args:  cobra.ExactArgs(2),
	RunE:  runLn,
}

var readlinkCmd = &cobra.Command{
	Use:   "readlink <remote-link>",
	Short: "Print a remote symlink target",
	Args:  cobra.ExactArgs(1),
	RunE:  runReadlink,
}

var realpathCmd = &cobra.Command{
	Use:   "realpath <remote-path>",
	Short: "Canonicalize a remote path",
	Long:  `Resolves ".", ".." and symlinks into the server's canonical absolute path.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runRealpath,
}

func init() {
	rootCmd.AddCommand(lnCmd)
	rootCmd.AddCommand(readlinkCmd)
	rootCmd.AddCommand(realpathCmd)
}

func runLn(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	sess, err := connect(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	return sess.Symlink(ctx, args[1], args[0])
}

func runReadlink(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	sess, err := connect(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	target, err := sess.ReadLink(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Println(target)
	return nil
}

func runRealpath(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	sess, err := connect(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	resolved, err := sess.Canonicalize(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Println(resolved)
	return nil
}
