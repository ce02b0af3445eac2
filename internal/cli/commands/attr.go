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
	"strconv"

	"github.com/spf13/cobra"
)

var chmodCmd = &cobra.Command{
	Use:   "chmod <octal-perms> <remote-path>",
	Short: "Change remote permission bits",
	Args:  cobra.ExactArgs(2),
	RunE:  runChmod,
}

var chownCmd = &cobra.Command{
	Use:   "chown <uid> <remote-path>",
	Short: "Change remote file owner",
	Long: `Changes the owning user of a remote file, keeping its group.

The server must report ownership for the path; numeric IDs only.`,
	Args: cobra.ExactArgs(2),
	RunE: runChown,
}

var chgrpCmd = &cobra.Command{
	Use:   "chgrp <gid> <remote-path>",
	Short: "Change remote file group",
	Args:  cobra.ExactArgs(2),
	RunE:  runChgrp,
}

var truncateCmd = &cobra.Command{
	Use:   "truncate <size> <remote-path>",
	Short: "Set the size of a remote file",
	Args:  cobra.ExactArgs(2),
	RunE:  runTruncate,
}

func init() {
	rootCmd.AddCommand(chmodCmd)
	rootCmd.AddCommand(chownCmd)
	rootCmd.AddCommand(chgrpCmd)
	rootCmd.AddCommand(truncateCmd)
}

func runChmod(cmd *cobra.Command, args []string) error {
	perms, err := strconv.ParseUint(args[0], 8, 32)
	if err != nil {
		return fmt.Errorf("invalid permissions %q: %w", args[0], err)
	}
	ctx := cmd.Context()
	sess, err := connect(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	return sess.Chmod(ctx, args[1], uint32(perms))
}

func runChown(cmd *cobra.Command, args []string) error {
	uid, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		return fmt.Errorf("invalid uid %q: %w", args[0], err)
	}
	ctx := cmd.Context()
	sess, err := connect(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	return sess.Chown(ctx, args[1], uint32(uid))
}

func runChgrp(cmd *cobra.Command, args []string) error {
	gid, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		return fmt.Errorf("invalid gid %q: %w", args[0], err)
	}
	ctx := cmd.Context()
	sess, err := connect(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	return sess.Chgrp(ctx, args[1], uint32(gid))
}

func runTruncate(cmd *cobra.Command, args []string) error {
	size, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid size %q: %w", args[0], err)
	}
	ctx := cmd.Context()
	sess, err := connect(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	return sess.Truncate(ctx, args[1], size)
}
