package services_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/getmentor/mentorship-api/config"
	"github.com/getmentor/mentorship-api/internal/models"
	"github.com/getmentor/mentorship-api/internal/services"
	"github.com/getmentor/mentorship-api/pkg/httpclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTriggerNotifier_PostsConfiguredEvents(t *testing.T) {
	received := make(chan models.Event, 2)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var e models.Event
		_ = json.Unmarshal(raw, &e)
		received <- e
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	cfg := &config.Config{EventTriggers: config.EventTriggersConfig{
		RequestAcceptedTriggerURL: srv.URL + "/accepted",
	}}
	n := services.NewTriggerNotifier(cfg, httpclient.NewClient(2*time.Second))

	n.Notify(context.Background(), models.Event{Type: models.EventSessionScheduled, RecordID: "skipped"})
	n.Notify(context.Background(), models.Event{
		Type:      models.EventRequestAccepted,
		MentorID:  "m1",
		StudentID: "s1",
		RecordID:  "r1",
	})

	select {
	case e := <-received:
		assert.Equal(t, models.EventRequestAccepted, e.Type)
		assert.Equal(t, "r1", e.RecordID)
	case <-time.After(2 * time.Second):
		require.FailNow(t, "trigger was not called")
	}

	select {
	case e := <-received:
		t.Fatalf("unexpected second trigger call: %+v", e)
	case <-time.After(100 * time.Millisecond):
	}
}
