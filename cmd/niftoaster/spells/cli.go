package spells

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/gobwas/glob"
	"github.com/mitchellh/go-homedir"
	"github.com/sirupsen/logrus"
	"github.com/sisatech/toml"
	"github.com/spf13/cobra"

	"github.com/vorteil/vnif/pkg/elog"
)

var log elog.View

var (
	flagVerbose bool
	flagDebug   bool
	flagJSON    bool
	flagConfig  string
	flagInclude []string
	flagExclude []string

	release = "0.0.0"
	commit  = ""
	date    = ""
)

// SetVersion stamps the build information displayed by the version
// command.
func SetVersion(r, c, d string) {
	release, commit, date = r, c, d
}

// Config is the optional ~/.niftoaster.toml file. Flags add to it:
// flag globs are appended to the file's, and the verbose and debug
// flags are ORed with the file's settings.
type Config struct {
	Include []string `toml:"include"`
	Exclude []string `toml:"exclude"`
	Verbose bool     `toml:"verbose"`
	Debug   bool     `toml:"debug"`
}

var config Config

func loadConfig() error {

	path := flagConfig
	if path == "" {
		home, err := homedir.Dir()
		if err != nil {
			return nil
		}
		path = filepath.Join(home, ".niftoaster.toml")
		if _, err := os.Stat(path); err != nil {
			return nil
		}
	}

	data, err := ioutil.ReadFile(path)
	if err != nil {
		return fmt.Errorf("could not read config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &config); err != nil {
		return fmt.Errorf("could not parse config %s: %w", path, err)
	}
	return nil
}

// pathFilter compiles the include/exclude globs into one predicate.
func pathFilter() (func(path string) bool, error) {

	include := append(config.Include, flagInclude...)
	exclude := append(config.Exclude, flagExclude...)

	var inc, exc []glob.Glob
	for _, p := range include {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("bad include pattern %q: %w", p, err)
		}
		inc = append(inc, g)
	}
	for _, p := range exclude {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("bad exclude pattern %q: %w", p, err)
		}
		exc = append(exc, g)
	}

	return func(path string) bool {
		for _, g := range exc {
			if g.Match(path) {
				return false
			}
		}
		if len(inc) == 0 {
			return true
		}
		for _, g := range inc {
			if g.Match(path) {
				return true
			}
		}
		return false
	}, nil
}

// RootCommand is the niftoaster entry point.
var RootCommand = &cobra.Command{
	Use:   "niftoaster",
	Short: "Inspect and verify nif scene-graph files",
	Long: `The toaster walks nif files and directories, reads every
recognized file, and runs the requested spell on the result.`,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Display the version and build information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("niftoaster %s (%s) %s\n", release, commit, date)
	},
}

// InitializeCommands wires flags, config and logging into the
// command tree.
func InitializeCommands() {

	RootCommand.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable verbose output")
	RootCommand.PersistentFlags().BoolVarP(&flagDebug, "debug", "d", false, "enable debug output")
	RootCommand.PersistentFlags().BoolVarP(&flagJSON, "json", "j", false, "enable json output")
	RootCommand.PersistentFlags().StringVar(&flagConfig, "config", "", "path to a toaster config file")
	RootCommand.PersistentFlags().StringSliceVar(&flagInclude, "include", nil, "only visit paths matching these globs")
	RootCommand.PersistentFlags().StringSliceVar(&flagExclude, "exclude", nil, "skip paths matching these globs")

	RootCommand.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {

		if err := loadConfig(); err != nil {
			return err
		}

		logger := &elog.CLI{}

		if flagJSON {
			logger.DisableTTY = true
			logrus.SetFormatter(&logrus.JSONFormatter{})
		} else {
			logrus.SetFormatter(logger)
		}

		logrus.SetLevel(logrus.TraceLevel)

		if flagDebug || config.Debug {
			logger.IsDebug = true
			logger.IsVerbose = true
		} else if flagVerbose || config.Verbose {
			logger.IsVerbose = true
		}

		log = logger
		return nil
	}

	RootCommand.AddCommand(versionCmd)
	RootCommand.AddCommand(readCmd)
	RootCommand.AddCommand(dumpCmd)
	RootCommand.AddCommand(checkCmd)
}
