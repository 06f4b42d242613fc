package credentials

import (
	"context"

	"github.com/ManikGarg316/rest-catalog-server/internal/catalog"
	"github.com/ManikGarg316/rest-catalog-server/internal/rest"
)

// Adapter decorates a rest.Handler with the credential policy of one
// backend. It is safe for concurrent use.
type Adapter struct {
	next  rest.Handler
	name  string
	props catalog.Properties
}

// NewAdapter wraps next with the policy bound to cc
func NewAdapter(next rest.Handler, cc *catalog.Context) *Adapter {
	return &Adapter{
		next:  next,
		name:  cc.Name(),
		props: cc.Properties(),
	}
}

// Name returns the backend name the adapter is bound to
func (a *Adapter) Name() string {
	return a.name
}

// HandleRequest delegates to the wrapped handler. Errors are returned as is;
// table-load responses get the backend's credentials.
func (a *Adapter) HandleRequest(ctx context.Context, route rest.Route, vars map[string]string, body any) (rest.Response, error) {
	resp, err := a.next.HandleRequest(ctx, route, vars, body)
	if err != nil {
		return nil, err
	}

	if resp == nil {
		return nil, nil
	}

	switch resp.Kind() {
	case rest.KindLoadTable:
		if load, ok := resp.(*rest.LoadTableResponse); ok && load != nil {
			load.Config = Apply(a.props, load.Config)
		}
	}
	return resp, nil
}
