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

	"skiff/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the config directory",
	Long:  `Creates ~/.skiff with a default settings.yaml. Existing settings are kept.`,
	Args:  cobra.NoArgs,
	RunE:  runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	if err := config.InitConfigDir(); err != nil {
		return err
	}
	fmt.Printf("Initialized %s\n", config.ConfigDir())
	fmt.Printf("Edit %s to add host profiles.\n", config.SettingsPath())
	return nil
}
