package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"grantintake/pkg/platform/sentinel"
)

type ClientSuite struct {
	suite.Suite
	srv     *httptest.Server
	client  *Client
	handler http.HandlerFunc
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientSuite))
}

func (s *ClientSuite) SetupTest() {
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		s.Failf("unexpected request", "%s %s", r.Method, r.URL.Path)
	}
	s.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.Equal("service-key", r.Header.Get("apikey"))
		s.Equal("Bearer service-key", r.Header.Get("Authorization"))
		s.handler(w, r)
	}))
	c, err := New(Config{URL: s.srv.URL + "/", ServiceKey: "service-key", HTTPClient: s.srv.Client()})
	s.Require().NoError(err)
	s.client = c
}

func (s *ClientSuite) TearDownTest() {
	s.srv.Close()
}

func (s *ClientSuite) TestUpload() {
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		s.Equal(http.MethodPost, r.Method)
		s.Equal("/storage/v1/object/support-letters/Jane-Doe-Support-Letter.pdf", r.URL.Path)
		s.Equal("true", r.Header.Get("x-upsert"))
		s.Equal("application/pdf", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		s.Equal("%PDF-1.7", string(body))
		_, _ = w.Write([]byte(`{"Key":"support-letters/Jane-Doe-Support-Letter.pdf"}`))
	}
	err := s.client.Upload(context.Background(), "support-letters", "Jane-Doe-Support-Letter.pdf", strings.NewReader("%PDF-1.7"), "application/pdf")
	s.NoError(err)
}

func (s *ClientSuite) TestUploadStorageError() {
	s.handler = func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"statusCode":"413","error":"Payload too large","message":"The object exceeded the maximum allowed size"}`))
	}
	err := s.client.Upload(context.Background(), "support-letters", "x.pdf", strings.NewReader("x"), "application/pdf")
	var se *Error
	s.Require().ErrorAs(err, &se)
	s.Equal("The object exceeded the maximum allowed size", se.BackendMessage())
	s.Equal(http.StatusBadRequest, se.StatusCode)
}

func (s *ClientSuite) TestList() {
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		s.Equal("/storage/v1/object/list/support-letters", r.URL.Path)
		var req map[string]any
		s.Require().NoError(json.NewDecoder(r.Body).Decode(&req))
		s.Equal("Jane-Doe-Support-Letter.pdf", req["search"])
		_, _ = w.Write([]byte(`[{"name":"Jane-Doe-Support-Letter.pdf","id":"1"},{"name":"Jane-Doe-Support-Letter.pdf.bak","id":"2"}]`))
	}
	names, err := s.client.List(context.Background(), "support-letters", "Jane-Doe-Support-Letter.pdf")
	s.Require().NoError(err)
	s.Equal([]string{"Jane-Doe-Support-Letter.pdf", "Jane-Doe-Support-Letter.pdf.bak"}, names)
}

func (s *ClientSuite) TestPublicURL() {
	got := s.client.PublicURL("support-letters", "Jane Doe.pdf")
	s.Equal(s.srv.URL+"/storage/v1/object/public/support-letters/Jane%20Doe.pdf", got)
}

func (s *ClientSuite) TestInsert() {
	s.Run("decodes the representation", func() {
		s.handler = func(w http.ResponseWriter, r *http.Request) {
			s.Equal("/rest/v1/grant_applications", r.URL.Path)
			s.Equal("return=representation", r.Header.Get("Prefer"))
			s.Equal("application/json", r.Header.Get("Content-Type"))
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`[{"id":"42","full_name":"Jane Doe"}]`))
		}
		var out struct {
			ID       string `json:"id"`
			FullName string `json:"full_name"`
		}
		s.Require().NoError(s.client.Insert(context.Background(), "grant_applications", map[string]string{"full_name": "Jane Doe"}, &out))
		s.Equal("42", out.ID)
		s.Equal("Jane Doe", out.FullName)
	})

	s.Run("reports the PostgREST message", func() {
		s.handler = func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"code":"23505","message":"duplicate key value violates unique constraint","details":null,"hint":null}`))
		}
		err := s.client.Insert(context.Background(), "grant_applications", map[string]string{}, nil)
		var se *Error
		s.Require().ErrorAs(err, &se)
		s.Equal("23505", se.Code)
		s.Equal("duplicate key value violates unique constraint", se.BackendMessage())
		s.ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("empty representation is an error", func() {
		s.handler = func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`[]`))
		}
		var out map[string]any
		s.Error(s.client.Insert(context.Background(), "grant_applications", map[string]string{}, &out))
	})
}

func TestNewValidatesConfig(t *testing.T) {
	_, err := New(Config{ServiceKey: "k"})
	assert.Error(t, err)
	_, err = New(Config{URL: "https://example.supabase.co"})
	assert.Error(t, err)
	c, err := New(Config{URL: "https://example.supabase.co", ServiceKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, DefaultTimeout, c.http.Timeout)
}

func TestParseError(t *testing.T) {
	t.Run("plain text body", func(t *testing.T) {
		err := parseError([]byte("upstream connect error"), http.StatusBadGateway)
		var se *Error
		require.True(t, errors.As(err, &se))
		assert.Equal(t, "upstream connect error", se.Message)
		assert.ErrorIs(t, err, sentinel.ErrUnavailable)
	})

	t.Run("not found maps to sentinel", func(t *testing.T) {
		err := parseError([]byte(`{"error":"Bucket not found"}`), http.StatusNotFound)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
		assert.Contains(t, err.Error(), "Bucket not found")
	})
}

func TestUnreachableBackend(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	u := srv.URL
	srv.Close()

	c, err := New(Config{URL: u, ServiceKey: "k"})
	require.NoError(t, err)
	err = c.Upload(context.Background(), "b", "n", strings.NewReader("x"), "")
	assert.ErrorIs(t, err, sentinel.ErrUnavailable)
}
