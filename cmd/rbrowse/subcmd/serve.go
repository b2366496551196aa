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
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/openziti/rbrowse/kernel/store"
	"github.com/openziti/rbrowse/kernel/store/httpapi"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func init() {
	RootCmd.AddCommand(NewServeCommand())
}

func NewServeCommand() *cobra.Command {
	serveCmd := &ServeCommand{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the configured dataset over HTTP for remote browsers",
		Args:  cobra.NoArgs,
		RunE:  serveCmd.run,
	}

	serveCmd.addFlags(cmd)
	cmd.Flags().StringVar(&serveCmd.Listen, "listen", "", "listen address (overrides the config)")
	cmd.Flags().BoolVar(&serveCmd.ReadOnly, "read-only", false, "only grant read and list")

	return cmd
}

type ServeCommand struct {
	ConfigOptions
	Listen   string
	ReadOnly bool
}

func (s *ServeCommand) run(cmd *cobra.Command, args []string) error {
	cfg, err := s.load()
	if err != nil {
		return err
	}
	backend, err := openStore(cfg)
	if err != nil {
		return err
	}
	if backend == nil {
		return errors.Errorf("serve needs a memory or file backend, not [%s]", cfg.Backend.Type)
	}

	var authorizer store.Authorizer
	if s.ReadOnly {
		authorizer = &store.RoleAuthorizer{Rules: map[string][]string{store.Wildcard: {store.VerbRead, store.VerbList}}}
	}
	svc, err := store.NewService(store.ServiceConfig{Backend: backend, Authorizer: authorizer})
	if err != nil {
		return err
	}

	listen := cfg.Listen
	if s.Listen != "" {
		listen = s.Listen
	}
	srv := &http.Server{
		Addr:              listen,
		Handler:           httpapi.NewRouter(&httpapi.Server{Service: svc}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logrus.WithField("listen", listen).WithField("clusters", svc.Clusters()).Info("serving resources")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "http server")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		logrus.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
