package onec

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"voxcmd/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Apply(t *testing.T) {
	cmd := model.NewCommand(model.IntentOpenCatalogByCode, model.Fields{"catalog": "Номенклатура", "code": "123"})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/hs/voice/commands", r.URL.Path)
		assert.Equal(t, cmd.ID, r.Header.Get("Idempotency-Key"))

		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "voice", user)
		assert.Equal(t, "pw", pass)

		var p model.CommandPayload
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&p))
		assert.Equal(t, cmd.ID, p.ID)
		assert.Equal(t, model.IntentOpenCatalogByCode, p.Intent)
		assert.Equal(t, map[string]string{"catalog": "Номенклатура", "code": "123"}, p.Fields)

		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL + "/hs/voice/", Username: "voice", Password: "pw"})
	require.NoError(t, c.Apply(context.Background(), cmd))
}

func TestClient_ApplyRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "register locked", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	err := c.Apply(context.Background(), model.NewCommand(model.IntentHelp, nil))

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.Status)
	assert.Contains(t, statusErr.Body, "register locked")
}

func TestClient_ApplyTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, Timeout: 20 * time.Millisecond})
	err := c.Apply(context.Background(), model.NewCommand(model.IntentHelp, nil))
	assert.Error(t, err)
}

func TestClient_FetchMetadataNames(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []string
	}{
		{"bare array", `["Склады","Банки"]`, []string{"Склады", "Банки"}},
		{"wrapped", `{"names":["Подразделения"]}`, []string{"Подразделения"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/metadata", r.URL.Path)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			names, err := NewClient(Config{BaseURL: srv.URL}).FetchMetadataNames(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestClient_FetchMetadataNamesInvalid(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`"oops"`))
	}))
	defer srv.Close()

	_, err := NewClient(Config{BaseURL: srv.URL}).FetchMetadataNames(context.Background())
	assert.Error(t, err)
}
