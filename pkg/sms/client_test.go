package sms

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Aramesh-Aria/acasmart-api/pkg/config"
	appErrors "github.com/Aramesh-Aria/acasmart-api/pkg/errors"
)

func testConfig(url string) config.SMSConfig {
	return config.SMSConfig{
		Enabled:    true,
		GatewayURL: url,
		APIKey:     "test-key",
		SenderLine: "3000",
		Timeout:    2 * time.Second,
	}
}

func TestSendRenewalNoticePostsToGateway(t *testing.T) {
	var got sendPayload
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), nil)
	err := client.SendRenewalNotice(context.Background(), "Sara", "+989121234567", "Piano A")
	require.NoError(t, err)
	require.Equal(t, "Bearer test-key", auth)
	require.Equal(t, "3000", got.Sender)
	require.Equal(t, "+989121234567", got.Recipient)
	require.Contains(t, got.Message, "Sara")
	require.Contains(t, got.Message, "Piano A")
}

func TestSendRenewalNoticeGatewayError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), nil)
	err := client.SendRenewalNotice(context.Background(), "Sara", "+989121234567", "Piano A")
	require.Error(t, err)
	require.True(t, appErrors.Is(err, appErrors.ErrTransport))
}

func TestSendRenewalNoticeMissingPhone(t *testing.T) {
	client := NewClient(testConfig("http://unused"), nil)
	err := client.SendRenewalNotice(context.Background(), "Sara", "", "Piano A")
	require.Error(t, err)
	require.True(t, appErrors.Is(err, appErrors.ErrTransport))
}

func TestSendRenewalNoticeDisabledIsNoop(t *testing.T) {
	cfg := testConfig("http://unused")
	cfg.Enabled = false
	client := NewClient(cfg, nil)
	require.NoError(t, client.SendRenewalNotice(context.Background(), "Sara", "+989121234567", "Piano A"))
}
