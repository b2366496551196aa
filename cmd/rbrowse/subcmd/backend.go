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
	"github.com/openziti/rbrowse/kernel/browser"
	"github.com/openziti/rbrowse/kernel/kinds"
	"github.com/openziti/rbrowse/kernel/metrics"
	"github.com/openziti/rbrowse/kernel/model"
	"github.com/openziti/rbrowse/kernel/store"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// openStore opens the local store backends. Remote backends return nil.
func openStore(cfg *model.BrowserConfig) (store.ResourceStore, error) {
	switch cfg.Backend.Type {
	case model.BackendMemory:
		return store.NewMemoryStore(), nil
	case model.BackendFile:
		return store.NewFileStore(cfg.Backend.DatasetPath)
	}
	return nil, nil
}

// openLister returns the list backend selected by the config.
func openLister(cfg *model.BrowserConfig) (kinds.Lister, []string, error) {
	switch cfg.Backend.Type {
	case model.BackendHttp:
		return store.NewHTTPClient(cfg.Backend.Url), nil, nil
	case model.BackendEC2:
		l, err := store.NewEC2ListerForRegion(cfg.Backend.Region)
		return l, nil, err
	}
	s, err := openStore(cfg)
	if err != nil {
		return nil, nil, err
	}
	svc, err := store.NewService(store.ServiceConfig{Backend: s})
	if err != nil {
		return nil, nil, err
	}
	return svc, svc.Clusters(), nil
}

// buildRegistry binds the kinds the backend can serve. The ec2 backend only
// serves ec2_instance and every other backend serves the rest.
func buildRegistry(cfg *model.BrowserConfig, lister kinds.Lister) (*kinds.Registry, error) {
	registry := kinds.NewRegistry()
	if cfg.Backend.Type == model.BackendEC2 {
		if err := registry.Bind(model.KindEC2Instance, lister); err != nil {
			return nil, err
		}
		return registry, nil
	}
	for _, kind := range kinds.BuiltinKinds() {
		if kind == model.KindEC2Instance {
			continue
		}
		if err := registry.Bind(kind, lister); err != nil {
			return nil, err
		}
	}
	if err := registry.BindConfigured(cfg.Kinds, lister); err != nil {
		return nil, err
	}
	return registry, nil
}

// session is a browser with everything it was built from.
type session struct {
	config   *model.BrowserConfig
	browser  *browser.Browser
	recorder metrics.Recorder
}

func (s *session) Close() {
	s.browser.Close()
	s.recorder.Close()
}

func openSession(opts *ConfigOptions) (*session, error) {
	cfg, err := opts.load()
	if err != nil {
		return nil, err
	}
	lister, clusters, err := openLister(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "opening backend")
	}
	registry, err := buildRegistry(cfg, lister)
	if err != nil {
		return nil, err
	}
	recorder, err := metrics.NewRecorder(cfg.Influx)
	if err != nil {
		return nil, errors.Wrap(err, "opening metrics")
	}

	ctx := opts.context(cfg)
	if ctx.GetClusterId() == "" && len(clusters) > 0 {
		ctx = ctx.WithClusterId(clusters[0])
	}
	logrus.WithField("cluster", ctx.GetClusterId()).WithField("backend", cfg.Backend.Type).Debug("opening browser")

	b, err := browser.New(browser.Config{
		Context:  ctx,
		Registry: registry,
		Recorder: recorder,
	})
	if err != nil {
		recorder.Close()
		return nil, err
	}
	return &session{config: cfg, browser: b, recorder: recorder}, nil
}
