package trigger

import (
	"bytes"
	"encoding/json"

	"github.com/getmentor/mentorship-api/pkg/httpclient"
	"github.com/getmentor/mentorship-api/pkg/logger"
	"go.uber.org/zap"
)

// PostAsync posts payload as JSON to triggerURL in a goroutine. An empty URL
// is skipped. Failures are logged and never reach the caller. done, if
// non-nil, is called with the outcome once the goroutine finishes.
func PostAsync(triggerURL string, payload any, httpClient httpclient.Client, done func(ok bool)) {
	if triggerURL == "" {
		return
	}

	body, err := json.Marshal(payload)
	if err != nil {
		logger.Error("Failed to encode trigger payload", zap.Error(err), zap.String("url", triggerURL))
		if done != nil {
			done(false)
		}
		return
	}

	go func() {
		ok := post(triggerURL, body, httpClient)
		if done != nil {
			done(ok)
		}
	}()
}

func post(triggerURL string, body []byte, httpClient httpclient.Client) bool {
	resp, err := httpClient.Post(triggerURL, "application/json", bytes.NewReader(body))
	if err != nil {
		logger.Error("Failed to call trigger URL",
			zap.Error(err),
			zap.String("url", triggerURL))
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		logger.Debug("Trigger URL called successfully",
			zap.String("url", triggerURL),
			zap.Int("status_code", resp.StatusCode))
		return true
	}

	logger.Warn("Trigger URL returned non-success status",
		zap.String("url", triggerURL),
		zap.Int("status_code", resp.StatusCode))
	return false
}
