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

	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show server protocol details",
	Long:  `Connects to the server and prints the negotiated protocol version and advertised extensions.`,
	Args:  cobra.NoArgs,
	RunE:  runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	sess, err := connect(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	fmt.Printf("Protocol version: %d\n", sess.ProtocolVersion())

	exts := sess.Extensions()
	if len(exts) == 0 {
		fmt.Println("Extensions: none")
		return nil
	}
	names := make([]string, 0, len(exts))
	for name := range exts {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Println("Extensions:")
	for _, name := range names {
		fmt.Printf("  %s: %s\n", name, exts[name])
	}
	return nil
}
