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
	"context"
	"fmt"
	"os/user"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"skiff/internal/config"
	"skiff/internal/session"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// SetVersion sets the version info for --version flag
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = getVersionString()
}

// getVersionString returns the version string with build info
func getVersionString() string {
	buildDate := formatBuildDate(date)
	if strings.HasSuffix(version, "-dev") {
		// Dev build: include epoch and commit for troubleshooting
		return fmt.Sprintf("%s (%s, epoch: %s, commit: %s)", version, buildDate, date, commit)
	}
	// Prod build: version with date
	return fmt.Sprintf("%s (%s)", version, buildDate)
}

// formatBuildDate converts epoch timestamp to readable date
func formatBuildDate(epoch string) string {
	ts, err := strconv.ParseInt(epoch, 10, 64)
	if err != nil {
		return epoch
	}
	return time.Unix(ts, 0).Format("2006-01-02")
}

// Connection flags shared by every remote command
var (
	flagProfile    string
	flagHost       string
	flagPort       int
	flagUser       string
	flagIdentity   string
	flagKnownHosts string
	flagLogLevel   string
)

// settings loaded in PersistentPreRunE, available to all commands
var cliSettings *config.Settings

var rootCmd = &cobra.Command{
	Use:   "skiff",
	Short: "SFTP client for scripted file operations",
	Long: `Skiff is an SFTP client for scripted remote file operations:
listing, transfers with resume, directory creation and attribute changes.

Connection targets come from host profiles in ~/.skiff/settings.yaml
(select one with --profile) or directly from --host/--user flags.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip initialization for help commands
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}

		if err := config.InitConfigDir(); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		settings, err := config.LoadSettings()
		if err != nil {
			return fmt.Errorf("failed to load settings: %w", err)
		}
		cliSettings = settings
		return nil
	},
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.SetVersionTemplate("skiff version {{.Version}}\n")

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flagProfile, "profile", "P", "", "Host profile from settings.yaml")
	pf.StringVar(&flagHost, "host", "", "Server hostname (overrides profile)")
	pf.IntVar(&flagPort, "port", 0, "Server port (default 22)")
	pf.StringVarP(&flagUser, "user", "u", "", "Login user (default: current user)")
	pf.StringVarP(&flagIdentity, "identity", "i", "", "Private key file")
	pf.StringVar(&flagKnownHosts, "known-hosts", "", "known_hosts file for host key verification")
	pf.StringVar(&flagLogLevel, "log-level", "", "Log level: trace, debug, info, warn, off")
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// sessionConfig resolves the connection target from the selected profile
// and any flag overrides.
func sessionConfig() (session.Config, error) {
	var cfg session.Config

	if flagProfile != "" {
		profile, err := cliSettings.Profile(flagProfile)
		if err != nil {
			return cfg, err
		}
		cfg.Host = profile.Host
		cfg.Port = profile.Port
		cfg.User = profile.User
		cfg.IdentityFile = profile.IdentityFile
		cfg.KnownHostsFile = profile.KnownHostsFile
	}

	if flagHost != "" {
		cfg.Host = flagHost
	}
	if flagPort != 0 {
		cfg.Port = flagPort
	}
	if flagUser != "" {
		cfg.User = flagUser
	}
	if flagIdentity != "" {
		cfg.IdentityFile = flagIdentity
	}
	if flagKnownHosts != "" {
		cfg.KnownHostsFile = flagKnownHosts
	}

	if cfg.Host == "" {
		return cfg, fmt.Errorf("no host given: use --profile or --host")
	}
	if cfg.User == "" {
		u, err := user.Current()
		if err != nil {
			return cfg, fmt.Errorf("resolve current user: %w", err)
		}
		cfg.User = u.Username
	}

	cfg.Logger = cliLogger()
	return cfg, nil
}

// cliLogger builds the logger from --log-level, falling back to the
// settings file. Returns nil when logging is off.
func cliLogger() *logrus.Entry {
	level := flagLogLevel
	if level == "" {
		level = cliSettings.LogLevel
	}
	level = strings.ToLower(level)
	if level == "" || level == "off" {
		return nil
	}
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	logger := logrus.New()
	logger.SetLevel(parsed)
	return logrus.NewEntry(logger)
}

// connect dials the configured server. Callers own the returned session.
func connect(ctx context.Context) (*session.Session, error) {
	cfg, err := sessionConfig()
	if err != nil {
		return nil, err
	}
	return session.Dial(ctx, cfg)
}
