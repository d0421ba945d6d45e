package mlclient

import (
	"context"
	"encoding/json"
	"motor_service/internal/domain/model"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/predict", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req MLRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"Vib_RMS_X", "Mag_RMS_X"}, req.Columns)
		assert.Equal(t, []float64{1.5, 3}, req.Features)

		json.NewEncoder(w).Encode(MLResponse{Label: "Normal"})
	}))
	defer server.Close()

	client := NewHTTPMLClient(server.URL+"/", time.Second)
	label, err := client.Classify(context.Background(), model.FeatureVector{
		Columns: []string{"Vib_RMS_X", "Mag_RMS_X"},
		Values:  []float64{1.5, 3},
	})

	require.NoError(t, err)
	assert.Equal(t, "Normal", label)
}

func TestClassifyErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		wantErr string
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "model not loaded", http.StatusInternalServerError)
			},
			wantErr: "status 500: model not loaded",
		},
		{
			name: "bad body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("<html>"))
			},
			wantErr: "failed to decode",
		},
		{
			name: "empty label",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"label": ""}`))
			},
			wantErr: "empty label",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			_, err := NewHTTPMLClient(server.URL, time.Second).Classify(context.Background(), model.FeatureVector{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestClassifyTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer server.Close()

	_, err := NewHTTPMLClient(server.URL, 50*time.Millisecond).Classify(context.Background(), model.FeatureVector{})

	assert.Error(t, err)
}
