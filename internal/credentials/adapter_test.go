package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManikGarg316/rest-catalog-server/internal/catalog"
	"github.com/ManikGarg316/rest-catalog-server/internal/catalog/filesystem"
	"github.com/ManikGarg316/rest-catalog-server/internal/rest"
)

func newContext(t *testing.T, name string, props catalog.Properties) *catalog.Context {
	t.Helper()

	registry := catalog.NewRegistry()
	filesystem.Register(registry)

	all := catalog.Properties{
		catalog.KeyCatalogImpl: catalog.ImplHadoop,
		catalog.KeyWarehouse:   "mem://" + name,
	}
	for k, v := range props {
		all[k] = v
	}

	cc, err := catalog.NewContext(context.Background(), name, all, registry, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cc.Close() })
	return cc
}

// staticHandler returns a fresh copy of its response on every call
func staticHandler(fn func() (rest.Response, error)) rest.Handler {
	return rest.HandlerFunc(func(ctx context.Context, route rest.Route, vars map[string]string, body any) (rest.Response, error) {
		return fn()
	})
}

func loadTable(config map[string]string) func() (rest.Response, error) {
	return func() (rest.Response, error) {
		cfg := make(map[string]string, len(config))
		for k, v := range config {
			cfg[k] = v
		}
		return &rest.LoadTableResponse{MetadataLocation: "mem://wh/db/t/metadata/v1.metadata.json", Config: cfg}, nil
	}
}

func TestAdapterInjectsWhenEnabled(t *testing.T) {
	cc := newContext(t, "c1", catalog.Properties{IncludeCredentials: "true", GCSOAuth2Token: "tok-123"})
	a := NewAdapter(staticHandler(loadTable(map[string]string{GCSOAuth2Token: "old"})), cc)
	assert.Equal(t, "c1", a.Name())

	resp, err := a.HandleRequest(context.Background(), rest.RouteLoadTable, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "tok-123", resp.(*rest.LoadTableResponse).Config[GCSOAuth2Token])
}

func TestAdapterWithholdsWhenDisabled(t *testing.T) {
	cc := newContext(t, "c1", catalog.Properties{IncludeCredentials: "false", GCSOAuth2Token: "tok-123"})
	a := NewAdapter(staticHandler(loadTable(nil)), cc)

	resp, err := a.HandleRequest(context.Background(), rest.RouteLoadTable, nil, nil)
	require.NoError(t, err)
	assert.NotContains(t, resp.(*rest.LoadTableResponse).Config, GCSOAuth2Token)
}

func TestAdapterLeavesOtherResponses(t *testing.T) {
	cc := newContext(t, "c1", catalog.Properties{IncludeCredentials: "true", GCSOAuth2Token: "tok-123"})

	responses := []rest.Response{
		&rest.ConfigResponse{Defaults: map[string]string{}, Overrides: map[string]string{}},
		&rest.ListNamespacesResponse{Namespaces: [][]string{{"db"}}},
		&rest.ListTablesResponse{},
		&rest.NoContentResponse{},
	}

	for _, want := range responses {
		t.Run(string(want.Kind()), func(t *testing.T) {
			a := NewAdapter(staticHandler(func() (rest.Response, error) { return want, nil }), cc)
			got, err := a.HandleRequest(context.Background(), rest.RouteListNamespaces, nil, nil)
			require.NoError(t, err)
			assert.Same(t, want, got)
		})
	}

	cfg := responses[0].(*rest.ConfigResponse)
	assert.Empty(t, cfg.Defaults)
	assert.Empty(t, cfg.Overrides)
}

func TestAdapterToleratesEmptyResponses(t *testing.T) {
	cc := newContext(t, "c1", catalog.Properties{IncludeCredentials: "true", GCSOAuth2Token: "tok-123"})

	var typedNil *rest.LoadTableResponse
	for name, want := range map[string]rest.Response{"nil": nil, "nil load": typedNil} {
		t.Run(name, func(t *testing.T) {
			a := NewAdapter(staticHandler(func() (rest.Response, error) { return want, nil }), cc)
			assert.NotPanics(t, func() {
				_, err := a.HandleRequest(context.Background(), rest.RouteLoadTable, nil, nil)
				assert.NoError(t, err)
			})
		})
	}
}

func TestAdapterPassesErrorsThrough(t *testing.T) {
	cc := newContext(t, "c1", catalog.Properties{IncludeCredentials: "true", GCSOAuth2Token: "tok-123"})
	boom := errors.New("boom")
	a := NewAdapter(staticHandler(func() (rest.Response, error) {
		return &rest.LoadTableResponse{}, boom
	}), cc)

	resp, err := a.HandleRequest(context.Background(), rest.RouteLoadTable, nil, nil)
	assert.Same(t, boom, err)
	assert.Nil(t, resp)
}

func TestAdapterBackendsAreIndependent(t *testing.T) {
	c1 := newContext(t, "c1", catalog.Properties{IncludeCredentials: "true", GCSOAuth2Token: "tok-1"})
	c2 := newContext(t, "c2", catalog.Properties{GCSOAuth2Token: "tok-2"})

	a1 := NewAdapter(staticHandler(loadTable(nil)), c1)
	a2 := NewAdapter(staticHandler(loadTable(nil)), c2)

	resp, err := a1.HandleRequest(context.Background(), rest.RouteLoadTable, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", resp.(*rest.LoadTableResponse).Config[GCSOAuth2Token])

	resp, err = a2.HandleRequest(context.Background(), rest.RouteLoadTable, nil, nil)
	require.NoError(t, err)
	assert.NotContains(t, resp.(*rest.LoadTableResponse).Config, GCSOAuth2Token)
}

func TestAdapterEndToEnd(t *testing.T) {
	ctx := context.Background()
	cc := newContext(t, "c1", catalog.Properties{IncludeCredentials: "true", GCSOAuth2Token: "tok-123"})
	a := NewAdapter(rest.NewCatalogAdapter(cc.Catalog()), cc)

	_, err := a.HandleRequest(ctx, rest.RouteCreateNamespace, nil, &rest.CreateNamespaceRequest{Namespace: []string{"db"}})
	require.NoError(t, err)

	body := `{"name":"t","schema":{"type":"struct","schema-id":0,"fields":[{"id":1,"name":"id","type":"long","required":true}]}}`
	var req rest.CreateTableRequest
	require.NoError(t, json.Unmarshal([]byte(body), &req))
	_, err = a.HandleRequest(ctx, rest.RouteCreateTable, map[string]string{rest.VarNamespace: "db"}, &req)
	require.NoError(t, err)

	resp, err := a.HandleRequest(ctx, rest.RouteLoadTable, map[string]string{rest.VarNamespace: "db", rest.VarTable: "t"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "tok-123", resp.(*rest.LoadTableResponse).Config[GCSOAuth2Token])

	resp, err = a.HandleRequest(ctx, rest.RouteListNamespaces, map[string]string{}, nil)
	require.NoError(t, err)
	assert.Equal(t, rest.KindListNamespaces, resp.Kind())
}

func TestAdapterConcurrentLoadsDoNotShareConfig(t *testing.T) {
	cc := newContext(t, "c1", catalog.Properties{IncludeCredentials: "true", GCSOAuth2Token: "tok-123"})
	a := NewAdapter(staticHandler(loadTable(nil)), cc)

	var wg sync.WaitGroup
	configs := make([]map[string]string, 16)
	for i := range configs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, err := a.HandleRequest(context.Background(), rest.RouteLoadTable, nil, nil)
			if err == nil {
				configs[i] = resp.(*rest.LoadTableResponse).Config
			}
		}(i)
	}
	wg.Wait()

	for _, cfg := range configs {
		require.NotNil(t, cfg)
		assert.Equal(t, "tok-123", cfg[GCSOAuth2Token])
	}
	configs[0]["x"] = "y"
	assert.NotContains(t, configs[1], "x")
}
