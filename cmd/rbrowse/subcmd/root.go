/*
	(c) Copyright NetFoundry Inc. Inc.

	Licensed under the Apache License, Version 2.0 (the "License");
	you may not use this file except in compliance with the License.
	You may obtain a copy of the License at

	https://www.apache.org/licenses/LICENSE-2.0

	Unless required by applicable law or agreed to in writing, software
	distributed under the License is distributed on an "AS IS" BASIS,
	WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
	See the License for the specific language governing permissions and
	limitations under the License.
*/

package subcmd

import (
	"os"
	"path/filepath"

	"github.com/michaelquigley/pfxlog"
	"github.com/openziti/rbrowse/kernel/model"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var Version = "dev"

var logLevel string

var RootCmd = &cobra.Command{
	Use:           "rbrowse",
	Short:         "Browse infrastructure resources page by page",
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			return errors.Wrapf(err, "invalid --log-level")
		}
		pfxlog.GlobalInit(level, pfxlog.DefaultOptions().SetTrimPrefix("github.com/openziti/"))
		return nil
	},
}

func init() {
	RootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")
}

func Execute() error {
	if err := RootCmd.Execute(); err != nil {
		logrus.WithError(err).Error("command failed")
		return err
	}
	return nil
}

// ConfigOptions are the flags every browsing command shares.
type ConfigOptions struct {
	ConfigPath string
	ClusterId  string
}

func (o *ConfigOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.ConfigPath, "config", "c", "", "path to config file (default $HOME/.rbrowse/config.yml)")
	cmd.Flags().StringVar(&o.ClusterId, "cluster", "", "cluster to browse (overrides the config)")
}

// load reads the explicit config, or the default one when present, or
// falls back to built-in defaults.
func (o *ConfigOptions) load() (*model.BrowserConfig, error) {
	if o.ConfigPath != "" {
		return model.LoadConfig(o.ConfigPath)
	}
	if cfgDir, err := model.ConfigDir(); err == nil {
		configFile := filepath.Join(cfgDir, model.ConfigFileName)
		if _, err := os.Stat(configFile); err == nil {
			return model.LoadConfig(configFile)
		}
	}
	logrus.Debug("no config file found, using defaults")
	return model.ParseConfig(nil)
}

func (o *ConfigOptions) context(cfg *model.BrowserConfig) *model.Context {
	return model.NewContext(o.ClusterId, cfg)
}
