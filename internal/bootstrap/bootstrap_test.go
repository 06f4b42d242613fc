package bootstrap

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/json"
	"encoding/pem"
	"math/big"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/apache/iceberg-go/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManikGarg316/rest-catalog-server/internal/catalog"
	"github.com/ManikGarg316/rest-catalog-server/internal/cli/config"
	"github.com/ManikGarg316/rest-catalog-server/internal/credentials"
	"github.com/ManikGarg316/rest-catalog-server/internal/rest"
	"github.com/ManikGarg316/rest-catalog-server/internal/web/response"
)

const tableBody = `{"name":"events","schema":{"type":"struct","schema-id":0,"fields":[{"id":1,"name":"id","type":"long","required":true}]}}`

func settings() config.Env {
	return config.Env{Host: "127.0.0.1", Port: 0, ShutdownTimeout: 5 * time.Second}
}

func twoBackends() *config.Config {
	return &config.Config{Backends: []config.BackendConfig{
		{Name: "catalog1", Prefix: "/catalog1", EnvPrefix: "CATALOG1_", Defaults: map[string]string{catalog.KeyWarehouse: "mem://one"}},
		{Name: "catalog2", Prefix: "/catalog2", EnvPrefix: "CATALOG2_", Defaults: map[string]string{catalog.KeyWarehouse: "mem://two"}},
	}}
}

func tempDirIn(base string) func(dir, pattern string) (string, error) {
	return func(_, pattern string) (string, error) {
		return os.MkdirTemp(base, pattern)
	}
}

func newService(t *testing.T, cfg Config) *Service {
	t.Helper()
	svc, err := New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

func call(t *testing.T, srv *httptest.Server, method, path, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestNewBuildsEveryBackend(t *testing.T) {
	svc := newService(t, Config{Deployment: twoBackends(), Settings: settings(), Environ: map[string]string{}})

	backends := svc.Backends()
	require.Len(t, backends, 2)
	assert.Equal(t, "/catalog1", backends[0].Prefix)
	assert.Equal(t, "mem://one", backends[0].Context.Properties()[catalog.KeyWarehouse])
	assert.Equal(t, catalog.ImplHadoop, backends[0].Context.Properties()[catalog.KeyCatalogImpl])
	assert.Equal(t, "mem://two", backends[1].Context.Properties()[catalog.KeyWarehouse])
	assert.NotSame(t, backends[0].Context, backends[1].Context)

	assert.Len(t, svc.Routes(), 2*len(rest.Routes()))
}

func TestNewMiddlewareFollowsSettings(t *testing.T) {
	plain := newService(t, Config{Deployment: twoBackends(), Settings: settings(), Environ: map[string]string{}})
	assert.Equal(t, 4, plain.router.MiddlewareCount())

	withGzip := settings()
	withGzip.Compression = true
	withGzip.RequestTimeout = time.Minute
	compressed := newService(t, Config{Deployment: twoBackends(), Settings: withGzip, Environ: map[string]string{}})
	assert.Equal(t, 5, compressed.router.MiddlewareCount())
}

func TestBackendsAreIsolated(t *testing.T) {
	environ := map[string]string{
		"CATALOG1_INCLUDE__CREDENTIALS": "true",
		"CATALOG1_GCS_OAUTH2_TOKEN":     "tok-1",
		"CATALOG2_GCS_OAUTH2_TOKEN":     "tok-2",
	}
	svc := newService(t, Config{Deployment: twoBackends(), Settings: settings(), Environ: environ})
	srv := httptest.NewServer(svc.Handler())
	defer srv.Close()

	for _, prefix := range []string{"/catalog1", "/catalog2"} {
		resp := call(t, srv, http.MethodPost, prefix+"/v1/namespaces", `{"namespace":["db"]}`)
		require.Equal(t, http.StatusOK, resp.StatusCode, prefix)
	}

	resp := call(t, srv, http.MethodPost, "/catalog1/v1/namespaces/db/tables", tableBody)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var created rest.LoadTableResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.Equal(t, "tok-1", created.Config[credentials.GCSOAuth2Token])

	resp = call(t, srv, http.MethodGet, "/catalog1/v1/namespaces/db/tables/events", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var loaded rest.LoadTableResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&loaded))
	assert.Equal(t, "tok-1", loaded.Config[credentials.GCSOAuth2Token])

	// the table lives only in catalog1
	resp = call(t, srv, http.MethodGet, "/catalog2/v1/namespaces/db/tables/events", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = call(t, srv, http.MethodPost, "/catalog2/v1/namespaces/db/tables", tableBody)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var other rest.LoadTableResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&other))
	assert.NotContains(t, other.Config, credentials.GCSOAuth2Token)

	resp = call(t, srv, http.MethodGet, "/catalog1/v1/namespaces", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestServedMetadataParses(t *testing.T) {
	svc := newService(t, Config{Deployment: twoBackends(), Settings: settings(), Environ: map[string]string{}})
	srv := httptest.NewServer(svc.Handler())
	defer srv.Close()

	resp := call(t, srv, http.MethodPost, "/catalog1/v1/namespaces", `{"namespace":["db"]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	bogus := `{"name":"bogus","schema":{"type":"struct","schema-id":0,"fields":[{"id":1,"name":"id","type":"long","required":true}]},` +
		`"partition-spec":{"spec-id":0,"fields":[{"source-id":1,"field-id":1000,"name":"p","transform":"nonsense"}]}}`
	resp = call(t, srv, http.MethodPost, "/catalog1/v1/namespaces/db/tables", bogus)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var failure response.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&failure))
	assert.Equal(t, response.TypeBadRequest, failure.Error.Type)

	resp = call(t, srv, http.MethodGet, "/catalog1/v1/namespaces/db/tables/bogus", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	bucketed := `{"name":"events","schema":{"type":"struct","schema-id":0,"fields":[{"id":1,"name":"id","type":"long","required":true}]},` +
		`"partition-spec":{"spec-id":0,"fields":[{"source-id":1,"field-id":1000,"name":"id_bucket","transform":"bucket[16]"}]}}`
	resp = call(t, srv, http.MethodPost, "/catalog1/v1/namespaces/db/tables", bucketed)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = call(t, srv, http.MethodGet, "/catalog1/v1/namespaces/db/tables/events", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var raw struct {
		Metadata json.RawMessage `json:"metadata"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&raw))

	md, err := table.ParseMetadataBytes(raw.Metadata)
	require.NoError(t, err)
	spec := md.PartitionSpec()
	assert.Equal(t, 1, spec.NumFields())
}

func TestUnknownPrefixIsNotFound(t *testing.T) {
	svc := newService(t, Config{Deployment: twoBackends(), Settings: settings(), Environ: map[string]string{}})
	srv := httptest.NewServer(svc.Handler())
	defer srv.Close()

	resp := call(t, srv, http.MethodGet, "/catalog3/v1/config", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var body response.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, http.StatusNotFound, body.Error.Code)
}

func TestNewRejectsDuplicateBackends(t *testing.T) {
	tests := []struct {
		name     string
		backends []config.BackendConfig
	}{
		{"none", nil},
		{"duplicate name", []config.BackendConfig{{Name: "a", Prefix: "/a"}, {Name: "a", Prefix: "/b"}}},
		{"duplicate prefix", []config.BackendConfig{{Name: "a", Prefix: "/a"}, {Name: "b", Prefix: "a/"}}},
		{"missing name", []config.BackendConfig{{Prefix: "/a"}}},
		{"bad prefix", []config.BackendConfig{{Name: "a", Prefix: "/"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := t.TempDir()
			_, err := New(context.Background(), Config{
				Deployment: &config.Config{Backends: tt.backends},
				Settings:   settings(),
				TempDir:    tempDirIn(base),
			})
			assert.Error(t, err)

			entries, err := os.ReadDir(base)
			require.NoError(t, err)
			assert.Empty(t, entries, "nothing is resolved before validation")
		})
	}
}

func TestNewFailureReleasesBuiltBackends(t *testing.T) {
	base := t.TempDir()
	unknown := "com.example.NoSuchCatalog"

	_, err := New(context.Background(), Config{
		Deployment: &config.Config{Backends: []config.BackendConfig{
			{Name: "catalog1", Prefix: "/catalog1"},
			{Name: "catalog2", Prefix: "/catalog2", ForcedImpl: &unknown},
		}},
		Settings: settings(),
		Environ:  map[string]string{},
		TempDir:  tempDirIn(base),
	})
	require.ErrorIs(t, err, catalog.ErrUnknownImpl)

	entries, err := os.ReadDir(base)
	require.NoError(t, err)
	assert.Empty(t, entries, "temp warehouses are removed after a failed start")
}

func TestNewFailsOnDuplicateEnvironmentKeys(t *testing.T) {
	_, err := New(context.Background(), Config{
		Deployment: twoBackends(),
		Settings:   settings(),
		Environ: map[string]string{
			"CATALOG1_A_B": "1",
			"CATALOG1_a_b": "2",
		},
	})
	assert.Error(t, err)
}

func TestRunServesAndCleansUp(t *testing.T) {
	base := t.TempDir()
	svc, err := New(context.Background(), Config{
		Deployment: config.Default(),
		Settings:   settings(),
		Environ:    map[string]string{},
		TempDir:    tempDirIn(base),
	})
	require.NoError(t, err)

	for _, b := range svc.Backends() {
		require.NotEmpty(t, b.Resolution.TempDir)
		assert.DirExists(t, b.Resolution.TempDir)
	}
	require.NoError(t, svc.Listen())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	resp, err := http.Get("http://" + svc.Addr() + "/catalog2/v1/config")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	entries, err := os.ReadDir(base)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.NoError(t, svc.Close())
}

func TestDefaultRegistry(t *testing.T) {
	names := DefaultRegistry().Names()
	for _, want := range []string{
		strings.ToLower(catalog.ImplHadoop),
		strings.ToLower(catalog.ImplJDBC),
		catalog.TypeHadoop,
		catalog.TypeJDBC,
	} {
		assert.Contains(t, names, want)
	}
}

// writeKeyPair writes a self-signed certificate for 127.0.0.1 into dir
func writeKeyPair(t *testing.T, dir string) (certFile, keyFile string) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	template := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "catalog-test"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		IPAddresses:  []net.IP{net.ParseIP("127.0.0.1")},
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	require.NoError(t, err)
	keyDER, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)

	certFile = filepath.Join(dir, "server.crt")
	keyFile = filepath.Join(dir, "server.key")
	require.NoError(t, os.WriteFile(certFile, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}), 0o600))
	require.NoError(t, os.WriteFile(keyFile, pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: keyDER}), 0o600))
	return certFile, keyFile
}

func TestRunServesTLS(t *testing.T) {
	cfg := settings()
	cfg.TLSCertFile, cfg.TLSKeyFile = writeKeyPair(t, t.TempDir())

	svc := newService(t, Config{Deployment: twoBackends(), Settings: cfg, Environ: map[string]string{}})
	require.NoError(t, svc.Listen())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	client := &http.Client{Transport: &http.Transport{
		TLSClientConfig:   &tls.Config{InsecureSkipVerify: true},
		ForceAttemptHTTP2: true,
	}}
	resp, err := client.Get("https://" + svc.Addr() + "/catalog1/v1/config")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, resp.ProtoMajor)

	plain, err := http.Get("http://" + svc.Addr() + "/catalog1/v1/config")
	if err == nil {
		_ = plain.Body.Close()
		assert.Equal(t, http.StatusBadRequest, plain.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestNewRejectsUnreadableKeyPair(t *testing.T) {
	dir := t.TempDir()
	cfg := settings()
	cfg.TLSCertFile = filepath.Join(dir, "missing.crt")
	cfg.TLSKeyFile = filepath.Join(dir, "missing.key")

	_, err := New(context.Background(), Config{Deployment: twoBackends(), Settings: cfg, Environ: map[string]string{}})
	assert.ErrorContains(t, err, "failed to load TLS key pair")
}
