package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockTracker struct{ mock.Mock }

func (m *MockTracker) Track(path, clientID string) { m.Called(path, clientID) }

func TestClientID(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		forwarded  string
		want       string
	}{
		{"forwarded header wins", "10.0.0.1:5555", "1.2.3.4", "1.2.3.4"},
		{"forwarded list kept verbatim", "10.0.0.1:5555", "1.2.3.4, 10.0.0.2", "1.2.3.4, 10.0.0.2"},
		{"remote ipv4 without port", "10.0.0.1:5555", "", "10.0.0.1"},
		{"remote ipv6 without port", "[::1]:8080", "", "::1"},
		{"remote address without port kept raw", "pipe", "", "pipe"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tc.remoteAddr
			if tc.forwarded != "" {
				r.Header.Set(ForwardedForHeader, tc.forwarded)
			}
			assert.Equal(t, tc.want, ClientID(r))
		})
	}
}

func TestClientID_RepeatedForwardedHeaders(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Add(ForwardedForHeader, "1.2.3.4")
	r.Header.Add(ForwardedForHeader, "10.0.0.2")

	assert.Equal(t, "1.2.3.4, 10.0.0.2", ClientID(r))
}

func TestTracking_TracksThenCallsNext(t *testing.T) {
	tracker := new(MockTracker)
	tracker.On("Track", "/services", "1.2.3.4").Once()

	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		tracker.AssertCalled(t, "Track", "/services", "1.2.3.4")
	})

	r := httptest.NewRequest(http.MethodGet, "/services", nil)
	r.Header.Set(ForwardedForHeader, "1.2.3.4")
	Tracking(tracker)(next).ServeHTTP(httptest.NewRecorder(), r)

	assert.True(t, called)
	tracker.AssertExpectations(t)
}

func TestTracking_SkipsListedPaths(t *testing.T) {
	tracker := new(MockTracker)
	next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})

	r := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	Tracking(tracker, "/healthz")(next).ServeHTTP(httptest.NewRecorder(), r)

	tracker.AssertNotCalled(t, "Track", mock.Anything, mock.Anything)
}
