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
	"strings"

	"github.com/openziti/rbrowse/kernel/browser"
	"github.com/openziti/rbrowse/kernel/filter"
	"github.com/openziti/rbrowse/kernel/model"
	"github.com/openziti/rbrowse/kernel/query"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func init() {
	RootCmd.AddCommand(NewListCommand())
}

func NewListCommand() *cobra.Command {
	listCmd := &ListCommand{}

	cmd := &cobra.Command{
		Use:   "list [kind]",
		Short: "Print one page of resources of a kind",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listCmd.run,
	}

	listCmd.addFlags(cmd)
	cmd.Flags().StringVar(&listCmd.Sort, "sort", "", "sort field and direction, e.g. name:desc")
	cmd.Flags().StringVarP(&listCmd.Search, "search", "s", "", "free-text search")
	cmd.Flags().StringVarP(&listCmd.Query, "query", "q", "", `predicate query, e.g. labels["env"] == "prod"`)
	cmd.Flags().StringArrayVarP(&listCmd.Labels, "label", "l", nil, "narrow to a label, name=value (repeatable)")
	cmd.Flags().IntVarP(&listCmd.Page, "page", "p", 1, "page number to print")
	cmd.Flags().StringVarP(&listCmd.Output, "output", "o", outputTable, "output format (table, json)")

	return cmd
}

type ListCommand struct {
	ConfigOptions
	Sort   string
	Search string
	Query  string
	Labels []string
	Page   int
	Output string
}

func (l *ListCommand) run(cmd *cobra.Command, args []string) error {
	if l.Search != "" && l.Query != "" {
		return errors.New("--search and --query are mutually exclusive")
	}
	if l.Output != outputTable && l.Output != outputJson {
		return errors.Errorf("unknown output format [%s]", l.Output)
	}
	if l.Page < 1 {
		return errors.New("--page must be at least 1")
	}
	var sort *model.SortType
	if l.Sort != "" {
		s, err := model.ParseSort(l.Sort)
		if err != nil {
			return err
		}
		sort = &s
	}
	labels, err := parseLabels(l.Labels)
	if err != nil {
		return err
	}

	sess, err := openSession(&l.ConfigOptions)
	if err != nil {
		return err
	}
	defer sess.Close()
	b := sess.browser

	kind := sess.config.DefaultKind
	if len(args) > 0 {
		kind = model.ResourceKind(args[0])
	}
	if sort != nil {
		caps, err := b.Capabilities(kind)
		if err == nil && !caps.Sortable {
			return errors.Errorf("kind [%s] cannot be sorted", kind)
		}
	}
	err = b.SetKindWith(kind, func(tx *filter.Tx) {
		if sort != nil {
			tx.SetSort(sort)
		}
		if l.Search != "" {
			tx.SetSearch(l.Search)
		}
		if l.Query != "" {
			tx.SetQuery(l.Query)
		}
		for _, label := range labels {
			tx.SetQuery(query.AddLabelToQuery(tx.Current(), label))
		}
	})
	if err != nil {
		return err
	}
	b.Wait()

	for page := 1; page < l.Page && b.State() == browser.Ready; page++ {
		if !b.Snapshot().CanNext {
			return errors.Errorf("page %d does not exist, the last page is %d", l.Page, page)
		}
		b.NextPage()
		b.Wait()
	}

	snap := b.Snapshot()
	if err := renderPage(cmd.OutOrStdout(), l.Output, snap, nil); err != nil {
		return err
	}
	if snap.State == browser.Failed {
		return errors.New(snap.Attempt.StatusText)
	}
	return nil
}

func parseLabels(pairs []string) ([]model.ResourceLabel, error) {
	var labels []model.ResourceLabel
	for _, pair := range pairs {
		label, err := parseLabel(pair)
		if err != nil {
			return nil, err
		}
		labels = append(labels, label)
	}
	return labels, nil
}

func parseLabel(pair string) (model.ResourceLabel, error) {
	name, value, ok := strings.Cut(pair, "=")
	if !ok || strings.TrimSpace(name) == "" {
		return model.ResourceLabel{}, errors.Errorf("invalid label [%s], expected name=value", pair)
	}
	return model.ResourceLabel{Name: strings.TrimSpace(name), Value: strings.TrimSpace(value)}, nil
}
