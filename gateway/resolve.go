package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Yasin4161/Internet-download-agent/metrics"
	"github.com/Yasin4161/Internet-download-agent/model"
)

// Resolver asks the provider for the metadata of a reference. It makes
// exactly one call per Resolve and never retries.
type Resolver struct {
	provider Provider
	timeout  time.Duration
	metrics  *metrics.Metrics
}

func NewResolver(provider Provider, timeout time.Duration, m *metrics.Metrics) *Resolver {
	return &Resolver{
		provider: provider,
		timeout:  timeout,
		metrics:  m,
	}
}

// Resolve returns the raw resource. Errors are *Error with kind
// KindUnsupportedReference, KindNoMetadata or KindProviderUnavailable.
func (r *Resolver) Resolve(ctx context.Context, op, ref string) (*model.Resource, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	res, err := r.provider.Metadata(ctx, ref)
	r.metrics.ProviderLookup(r.provider.Name(), err == nil)
	switch {
	case errors.Is(err, model.ErrReferenceRejected):
		return nil, &Error{Kind: KindUnsupportedReference, Op: op, Err: err}
	case errors.Is(err, model.ErrNoMetadata):
		return nil, &Error{Kind: KindNoMetadata, Op: op, Err: err}
	case err != nil:
		return nil, &Error{Kind: KindProviderUnavailable, Op: op, Err: err}
	case res == nil || len(res.Formats) == 0:
		return nil, &Error{Kind: KindNoMetadata, Op: op, Err: fmt.Errorf("%w: no formats for %s", model.ErrNoMetadata, ref)}
	}

	return res, nil
}
