package catalogs

import (
	"context"
	"testing"

	"github.com/samvad-hq/catalog-crawler/pkg/httpclient"
)

type mockHTTPClient struct {
	t         *testing.T
	expect    map[string]string
	expectURL string
	status    int
	header    map[string]string
	body      string
	err       error
}

type mockResponse struct {
	body       []byte
	statusCode int
	header     map[string]string
}

func (r mockResponse) Body() []byte            { return r.body }
func (r mockResponse) StatusCode() int         { return r.statusCode }
func (r mockResponse) Header(key string) string { return r.header[key] }

func (m mockHTTPClient) Get(_ context.Context, url string, headers map[string]string) (httpclient.Response, error) {
	if m.expectURL != "" && url != m.expectURL {
		m.t.Fatalf("expected url %q, got %q", m.expectURL, url)
	}
	for key, want := range m.expect {
		if got := headers[key]; got != want {
			m.t.Fatalf("expected header %s=%q, got %q", key, want, got)
		}
	}
	if m.err != nil {
		return nil, m.err
	}
	status := m.status
	if status == 0 {
		status = 200
	}
	return mockResponse{body: []byte(m.body), statusCode: status, header: m.header}, nil
}
