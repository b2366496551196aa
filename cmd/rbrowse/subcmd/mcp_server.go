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
	"github.com/openziti/rbrowse/kernel/mcp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func init() {
	RootCmd.AddCommand(NewMCPServerCommand())
}

func NewMCPServerCommand() *cobra.Command {
	mcpCmd := &MCPServerCommand{}

	cmd := &cobra.Command{
		Use:   "mcp-server",
		Short: "Start an MCP server exposing the browser to AI assistants",
		Long: `Start an MCP (Model Context Protocol) server on stdio that lets an
assistant browse resources the way a user would.

The server provides tools for:
  - list_kinds: List the kinds that can be browsed
  - browse: Switch to a kind and show its first page
  - next_page / prev_page: Page through results
  - set_sort: Sort by a field
  - search: Free-text search
  - query: Predicate query
  - add_label: Narrow results to a label

And resources:
  - rbrowse://page: The page currently shown`,
		Args: cobra.NoArgs,
		RunE: mcpCmd.run,
	}

	mcpCmd.addFlags(cmd)

	return cmd
}

type MCPServerCommand struct {
	ConfigOptions
}

func (m *MCPServerCommand) run(cmd *cobra.Command, args []string) error {
	sess, err := openSession(&m.ConfigOptions)
	if err != nil {
		return err
	}
	defer sess.Close()

	if err := sess.browser.SetKind(sess.config.DefaultKind); err != nil {
		logrus.WithError(err).Warn("default kind unavailable, waiting for browse")
	}

	logrus.Info("starting MCP server on stdio...")
	server := mcp.NewBrowserMCPServer(sess.browser, Version)
	return server.ServeStdio()
}
