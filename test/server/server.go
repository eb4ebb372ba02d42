package testserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/rabithua/chatmemo/api"
	"github.com/rabithua/chatmemo/server"
	"github.com/rabithua/chatmemo/server/profile"
	"github.com/rabithua/chatmemo/test"
)

type TestingServer struct {
	server  *server.Server
	client  *http.Client
	profile *profile.Profile
	// accessToken is sent as a bearer token when set.
	accessToken string
}

func NewTestingServer(ctx context.Context, t *testing.T) *TestingServer {
	profile := test.GetTestingProfile(t)
	s, err := server.NewServer(ctx, profile)
	require.NoError(t, err)

	ts := &TestingServer{
		server:  s,
		client:  &http.Client{},
		profile: profile,
	}
	errChan := make(chan error, 1)
	go func() {
		if err := s.Start(ctx); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()
	t.Cleanup(func() {
		s.Shutdown(ctx)
	})

	require.NoError(t, ts.waitForServerStart(errChan))
	return ts
}

func (s *TestingServer) waitForServerStart(errChan <-chan error) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	timer := time.NewTimer(5 * time.Second)
	defer timer.Stop()

	for {
		select {
		case <-ticker.C:
			if resp, err := s.client.Get(fmt.Sprintf("http://localhost:%d/api/ping", s.profile.Port)); err == nil {
				resp.Body.Close()
				return nil
			}
		case err := <-errChan:
			return err
		case <-timer.C:
			return errors.New("server did not start in time")
		}
	}
}

// request sends a JSON request and returns the status code and the raw body.
func (s *TestingServer) request(method, uri string, body any) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return 0, nil, err
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequest(method, fmt.Sprintf("http://localhost:%d%s", s.profile.Port, uri), reader)
	if err != nil {
		return 0, nil, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Content-Type", "application/json")
	if s.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+s.accessToken)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, nil, errors.Wrap(err, "failed to send request")
	}
	defer resp.Body.Close()

	buf, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, errors.Wrap(err, "failed to read response body")
	}
	return resp.StatusCode, buf, nil
}

// requestData sends a request, requires the given status, and decodes the data envelope into result.
func (s *TestingServer) requestData(t *testing.T, method, uri string, body any, status int, result any) {
	t.Helper()
	code, buf, err := s.request(method, uri, body)
	require.NoError(t, err)
	require.Equal(t, status, code, string(buf))
	if result == nil {
		return
	}

	type R struct {
		Data any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf, &R{Data: result}))
}

func (s *TestingServer) signUp(t *testing.T, username string) *api.User {
	t.Helper()
	auth := &api.AuthResponse{}
	s.requestData(t, http.MethodPost, "/api/auth/signup", &api.SignUp{
		Username: username,
		Password: "secret",
	}, http.StatusOK, auth)
	require.NotEmpty(t, auth.AccessToken)
	s.accessToken = auth.AccessToken
	return auth.User
}
