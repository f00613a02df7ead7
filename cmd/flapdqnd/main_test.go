package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flapdqn/agent/deepq"
	"flapdqn/environment"
	"flapdqn/environment/gapworld"
	"flapdqn/trainer"
)

func testServer(t *testing.T) (*httptest.Server, *trainer.Trainer) {
	t.Helper()

	envConfig := gapworld.DefaultConfig()
	envConfig.MaxSteps = 50

	agentConfig := deepq.NewConfig(gapworld.ObservationSize, gapworld.NumActions)
	agentConfig.HiddenSizes = []int{8}
	agentConfig.BufferCapacity = 500
	agentConfig.WarmupSize = 8
	agentConfig.BatchSize = 8
	agentConfig.Seed = 7

	sessionConfig := trainer.NewConfig(agentConfig)
	sessionConfig.NumEnvs = 2
	sessionConfig.SliceSteps = 32
	sessionConfig.MetricsEvery = 10 * time.Millisecond

	factory := func(seed uint64) environment.Environment {
		c := envConfig
		c.Seed = seed
		return gapworld.New(c)
	}

	session, err := trainer.New(factory, sessionConfig)
	require.NoError(t, err)
	require.NoError(t, session.Start())

	streams := newHub()
	go streams.pump(session)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	registerRoutes(router, session, streams)

	server := httptest.NewServer(router)
	t.Cleanup(func() {
		server.Close()
		session.Close()
	})
	return server, session
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json",
		bytes.NewReader([]byte(body)))
	require.NoError(t, err)
	return resp
}

func TestStatusEndpoint(t *testing.T) {
	server, _ := testServer(t)

	resp, err := http.Get(server.URL + "/api/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var status trainer.Metrics
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	assert.True(t, status.IsWarmup)
	assert.Equal(t, 0, status.TotalSteps)
}

func TestBackendEndpoint(t *testing.T) {
	server, _ := testServer(t)

	resp, err := http.Get(server.URL + "/api/backend")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var info struct {
		BackendName string `json:"backendName"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&info))
	assert.NotEmpty(t, info.BackendName)
}

func TestEpsilonCommand(t *testing.T) {
	server, _ := testServer(t)

	resp := postJSON(t, server.URL+"/api/config/epsilon", `{"value": 0.25}`)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	status, err := http.Get(server.URL + "/api/status")
	require.NoError(t, err)
	defer status.Body.Close()
	var m trainer.Metrics
	require.NoError(t, json.NewDecoder(status.Body).Decode(&m))
	assert.InDelta(t, 0.25, m.Epsilon, 1e-12)
}

func TestEpsilonCommandRejectsBadBody(t *testing.T) {
	server, _ := testServer(t)

	resp := postJSON(t, server.URL+"/api/config/epsilon", `{"bogus": true}`)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRewardConfigCommand(t *testing.T) {
	server, _ := testServer(t)

	resp := postJSON(t, server.URL+"/api/config/rewards",
		`{"death": -2.5, "alive": 0}`)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestWeightsRoundTrip(t *testing.T) {
	server, _ := testServer(t)

	resp, err := http.Get(server.URL + "/api/weights")
	require.NoError(t, err)
	body := new(bytes.Buffer)
	_, err = body.ReadFrom(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	post := postJSON(t, server.URL+"/api/weights", body.String())
	post.Body.Close()
	assert.Equal(t, http.StatusOK, post.StatusCode)
}

func TestTrainStartStopAndReset(t *testing.T) {
	server, _ := testServer(t)

	resp := postJSON(t, server.URL+"/api/train/start", "")
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	time.Sleep(100 * time.Millisecond)

	resp = postJSON(t, server.URL+"/api/train/stop", "")
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	status, err := http.Get(server.URL + "/api/status")
	require.NoError(t, err)
	var m trainer.Metrics
	require.NoError(t, json.NewDecoder(status.Body).Decode(&m))
	status.Body.Close()
	assert.Greater(t, m.TotalSteps, 0)

	resp = postJSON(t, server.URL+"/api/train/reset", "")
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	status, err = http.Get(server.URL + "/api/status")
	require.NoError(t, err)
	require.NoError(t, json.NewDecoder(status.Body).Decode(&m))
	status.Body.Close()
	assert.Equal(t, 0, m.TotalSteps)
}

func TestWebsocketStreamsMetrics(t *testing.T) {
	server, _ := testServer(t)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	resp := postJSON(t, server.URL+"/api/train/start", "")
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg envelope
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "metrics", msg.Type)
}
