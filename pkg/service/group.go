package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/hashicorp/go-multierror"
)

// Service is a long-running worker owned by the process: the HTTP server, the
// transcript broker. Run blocks until ctx is cancelled or the worker fails.
type Service interface {
	Name() string
	Run(context.Context) error
}

// Group runs its services until the first failure or until ctx is cancelled,
// then waits for all of them to stop and reports every error it collected.
type Group []Service

func (g Group) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	runCtx, cancelFn := context.WithCancel(ctx)
	defer cancelFn()

	var wg sync.WaitGroup
	errCh := make(chan error, len(g))
	wg.Add(len(g))
	for _, svc := range g {
		go func(svc Service) {
			defer wg.Done()
			if err := svc.Run(runCtx); err != nil {
				errCh <- fmt.Errorf("%s: %w", svc.Name(), err)
				cancelFn()
			}
		}(svc)
	}

	<-runCtx.Done()
	wg.Wait()

	var err error
	close(errCh)
	for svcErr := range errCh {
		err = multierror.Append(err, svcErr)
	}
	return err
}
