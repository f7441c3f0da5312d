package aiengine

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/getmentor/mentorship-api/pkg/httpclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastClient(url string) *Client {
	c := NewClient(url, httpclient.NewClient(time.Second))
	c.retry.InitialDelay = time.Millisecond
	c.retry.Jitter = false
	return c
}

func TestAnalyzeResume_ReturnsBodyVerbatim(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/analyze-resume", r.URL.Path)
		var req analyzeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Backend Engineer", req.TargetRole)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ats_score":{"overall_score":72},"skill_gaps":[]}`))
	}))
	defer srv.Close()

	got, err := fastClient(srv.URL+"/").AnalyzeResume(context.Background(), "text", "Backend Engineer")
	require.NoError(t, err)
	assert.JSONEq(t, `{"ats_score":{"overall_score":72},"skill_gaps":[]}`, string(got))
}

func TestAnalyzeResume_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	_, err := fastClient(srv.URL).AnalyzeResume(context.Background(), "text", "role")
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestAnalyzeResume_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	_, err := fastClient(srv.URL).AnalyzeResume(context.Background(), "text", "role")

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusUnprocessableEntity, se.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestAnalyzeResume_InvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	c := fastClient(srv.URL)
	c.retry.MaxRetries = 0
	_, err := c.AnalyzeResume(context.Background(), "text", "role")
	assert.Error(t, err)
}

func TestGenerateRoadmap_PostsSkillsAndRole(t *testing.T) {
	plan := `{"milestones":[{"week":1,"title":"Containers","tasks":[]}]}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/generate-roadmap", r.URL.Path)
		var req roadmapRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"kubernetes", "terraform"}, req.MissingSkills)
		assert.Equal(t, "Platform Engineer", req.TargetRole)

		_, _ = w.Write([]byte(plan))
	}))
	defer srv.Close()

	got, err := fastClient(srv.URL).GenerateRoadmap(context.Background(), []string{"kubernetes", "terraform"}, "Platform Engineer")
	require.NoError(t, err)
	assert.JSONEq(t, plan, string(got))
}

func TestClient_DegradedAfterRepeatedFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := fastClient(srv.URL)
	c.retry.MaxRetries = 0
	assert.False(t, c.Degraded())

	for i := 0; i < 3; i++ {
		_, err := c.GenerateRoadmap(context.Background(), []string{"go"}, "role")
		require.Error(t, err)
	}
	assert.True(t, c.Degraded())
}
