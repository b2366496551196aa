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
	"fmt"
	"os"

	"github.com/openziti/rbrowse/kernel/loader"
	"github.com/openziti/rbrowse/kernel/model"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func init() {
	RootCmd.AddCommand(NewValidateCommand())
}

func NewValidateCommand() *cobra.Command {
	validateCmd := &ValidateCommand{}

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a config file and its dataset without browsing",
		Args:  cobra.NoArgs,
		RunE:  validateCmd.run,
	}

	cmd.Flags().StringVarP(&validateCmd.ConfigPath, "config", "c", "", "path to config file")
	cmd.Flags().StringVarP(&validateCmd.DatasetPath, "dataset", "d", "", "path to dataset file (overrides the config)")

	return cmd
}

type ValidateCommand struct {
	ConfigPath  string
	DatasetPath string
}

func (v *ValidateCommand) run(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	datasetPath := v.DatasetPath

	if v.ConfigPath != "" {
		cfg, err := model.LoadConfig(v.ConfigPath)
		if err != nil {
			return errors.Wrap(err, "config is invalid")
		}
		_, _ = fmt.Fprintf(out, "config %s: ok (backend %s, %d extra kinds)\n", v.ConfigPath, cfg.Backend.Type, len(cfg.Kinds))
		if datasetPath == "" {
			datasetPath = cfg.Backend.DatasetPath
		}
	}
	if datasetPath == "" {
		if v.ConfigPath == "" {
			return errors.New("nothing to validate, pass --config or --dataset")
		}
		return nil
	}

	data, err := os.ReadFile(datasetPath)
	if err != nil {
		return errors.Wrapf(err, "reading dataset [%s]", datasetPath)
	}
	result, err := loader.ValidateDatasetBytes(data)
	if err != nil {
		return err
	}
	for _, e := range result.Errors {
		_, _ = fmt.Fprintf(out, "ERROR %s\n", e)
	}
	for _, w := range result.Warnings {
		_, _ = fmt.Fprintf(out, "WARN  %s\n", w)
	}
	if !result.IsValid() {
		return errors.Errorf("dataset %s has %d error(s)", datasetPath, len(result.Errors))
	}
	_, _ = fmt.Fprintf(out, "dataset %s: ok (%d warning(s))\n", datasetPath, len(result.Warnings))
	return nil
}
