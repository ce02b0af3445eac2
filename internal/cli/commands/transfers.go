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

	"skiff/internal/config"
	"skiff/internal/journal"
)

var transfersCmd = &cobra.Command{
	Use:   "transfers",
	Short: "Manage the transfer journal",
	Long:  `The transfer journal records download/upload progress for --resume.`,
}

var transfersLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List recorded transfers",
	Args:  cobra.NoArgs,
	RunE:  runTransfersLs,
}

var transfersPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete completed transfer records",
	Args:  cobra.NoArgs,
	RunE:  runTransfersPrune,
}

func init() {
	rootCmd.AddCommand(transfersCmd)
	transfersCmd.AddCommand(transfersLsCmd)
	transfersCmd.AddCommand(transfersPruneCmd)
}

func runTransfersLs(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	j, err := journal.Open(config.JournalPath(), config.JournalLockPath())
	if err != nil {
		return err
	}
	defer j.Close()

	transfers, err := j.List(ctx)
	if err != nil {
		return err
	}
	if len(transfers) == 0 {
		fmt.Println("No recorded transfers")
		return nil
	}

	for _, tr := range transfers {
		created := time.Unix(tr.CreatedAt, 0).Format("2006-01-02 15:04")
		fmt.Printf("%s  %-8s %-8s %d/%d bytes  %s -> %s\n",
			created, tr.Direction, tr.Status, tr.BytesDone, tr.Size, tr.RemotePath, tr.LocalPath)
		if tr.Error != "" {
			fmt.Printf("    error: %s\n", tr.Error)
		}
	}
	return nil
}

func runTransfersPrune(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	j, err := journal.Open(config.JournalPath(), config.JournalLockPath())
	if err != nil {
		return err
	}
	defer j.Close()

	pruned, err := j.Prune(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Pruned %d completed transfer(s)\n", pruned)
	return nil
}
