package omdb

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MimeLyc/movielens-etl/internal/config"
)

func testConfig(url string) config.OMDbConfig {
	return config.OMDbConfig{
		APIURL:  url,
		APIKey:  "test-key",
		Timeout: 5,
	}
}

func TestNewClient(t *testing.T) {
	client, err := NewClient(testConfig("http://www.omdbapi.com/"))
	require.NoError(t, err)
	assert.NotNil(t, client)

	_, err = NewClient(config.OMDbConfig{Timeout: 5})
	assert.Error(t, err)

	_, err = NewClient(config.OMDbConfig{APIURL: "http://www.omdbapi.com/"})
	assert.Error(t, err)
}

func TestLookup(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Toy Story", r.URL.Query().Get("t"))
		assert.Equal(t, "1995", r.URL.Query().Get("y"))
		assert.Equal(t, "test-key", r.URL.Query().Get("apikey"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"Title": "Toy Story",
			"Director": "John Lasseter",
			"imdbRating": "8.3",
			"imdbID": "tt0114709",
			"Response": "True"
		}`))
	}))
	defer server.Close()

	client, err := NewClient(testConfig(server.URL))
	require.NoError(t, err)

	year := 1995
	payload, err := client.Lookup(context.Background(), "Toy Story", &year)
	require.NoError(t, err)

	assert.Equal(t, "John Lasseter", payload.Str("Director"))
	assert.Equal(t, "tt0114709", payload.Str("imdbID"))
	assert.False(t, payload.NotFound())

	rating, ok := payload.Rating()
	require.True(t, ok)
	assert.Equal(t, 8.3, rating)
}

func TestLookupWithoutYear(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Foo Bar", r.URL.Query().Get("t"))
		assert.False(t, r.URL.Query().Has("y"))
		_, _ = w.Write([]byte(`{"Response": "False", "Error": "Movie not found!"}`))
	}))
	defer server.Close()

	client, err := NewClient(testConfig(server.URL))
	require.NoError(t, err)

	payload, err := client.Lookup(context.Background(), "Foo Bar", nil)
	require.NoError(t, err)
	assert.True(t, payload.NotFound())
}

func TestLookupTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	client, err := NewClient(testConfig(server.URL))
	require.NoError(t, err)

	_, err = client.Lookup(context.Background(), "Anything", nil)
	require.Error(t, err)
	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, http.StatusServiceUnavailable, transportErr.StatusCode)

	// Unreachable server is a transport error too.
	server.Close()
	_, err = client.Lookup(context.Background(), "Anything", nil)
	require.Error(t, err)
	assert.ErrorAs(t, err, &transportErr)
}

func TestPayloadRating(t *testing.T) {
	tests := []struct {
		name    string
		payload Payload
		want    float64
		wantOK  bool
	}{
		{name: "numeric", payload: Payload{"imdbRating": "8.1"}, want: 8.1, wantOK: true},
		{name: "sentinel", payload: Payload{"imdbRating": "N/A"}, wantOK: false},
		{name: "garbage", payload: Payload{"imdbRating": "high"}, wantOK: false},
		{name: "missing", payload: Payload{}, wantOK: false},
		{name: "wrong type", payload: Payload{"imdbRating": 8.1}, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.payload.Rating()
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
