package support

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/MeKo-Tech/droste/internal/server"
	"github.com/cucumber/godog"
	"github.com/gorilla/websocket"
)

const (
	httpTimeout = 10 * time.Second
	wsReadWait  = 5 * time.Second
)

// HTTPTestServerWrapper wraps httptest.Server for integration tests.
type HTTPTestServerWrapper struct {
	Server     *httptest.Server
	TestServer *server.Server
}

// startTestServer runs the droste HTTP handlers in-process.
func (testCtx *TestContext) startTestServer(requestsPerMinute int) error {
	if err := testCtx.StopServer(); err != nil {
		return err
	}
	srv, err := server.NewServer(server.Config{
		CORSOrigin:        "*",
		FrameInterval:     5 * time.Millisecond,
		AnimationStep:     0.1,
		StackCacheSize:    16,
		RequestsPerMinute: requestsPerMinute,
		Scene: server.SceneDefaults{
			Width:  100,
			Height: 100,
			Points: [8]float64{0.2, 0.2, 0.8, 0.2, 0.2, 0.8, 0.8, 0.8},
			Depth:  8,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	mux := http.NewServeMux()
	srv.SetupRoutes(mux)

	testCtx.HTTPTestServer = &HTTPTestServerWrapper{Server: httptest.NewServer(mux), TestServer: srv}
	return nil
}

func (testCtx *TestContext) theDrosteServerIsRunning() error {
	return testCtx.startTestServer(0)
}

func (testCtx *TestContext) theDrosteServerIsRunningWithRateLimit(n int) error {
	return testCtx.startTestServer(n)
}

// StopServer stops the in-process server if one is running.
func (testCtx *TestContext) StopServer() error {
	if testCtx.HTTPTestServer == nil {
		return nil
	}
	testCtx.HTTPTestServer.Server.Close()
	testCtx.HTTPTestServer = nil
	return nil
}

func (testCtx *TestContext) serverURL(path string) (string, error) {
	if testCtx.HTTPTestServer == nil {
		return "", errors.New("server is not running")
	}
	return testCtx.HTTPTestServer.Server.URL + path, nil
}

func (testCtx *TestContext) doRequest(method, path string, body io.Reader) error {
	url, err := testCtx.serverURL(path)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), httpTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Origin", "http://example.test")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	testCtx.LastHTTPStatusCode = resp.StatusCode
	testCtx.LastHTTPResponse = string(data)
	testCtx.LastHTTPHeaders = map[string]string{}
	for name := range resp.Header {
		testCtx.LastHTTPHeaders[name] = resp.Header.Get(name)
	}
	return nil
}

func (testCtx *TestContext) iSendAGETRequestTo(path string) error {
	return testCtx.doRequest(http.MethodGet, path, nil)
}

func (testCtx *TestContext) iPOSTToWithJSON(path string, body *godog.DocString) error {
	return testCtx.doRequest(http.MethodPost, path, strings.NewReader(body.Content))
}

// iPOSTToTimes repeats a request; only the last response is kept.
func (testCtx *TestContext) iPOSTToTimes(path string, n int, body *godog.DocString) error {
	for range n {
		if err := testCtx.doRequest(http.MethodPost, path, strings.NewReader(body.Content)); err != nil {
			return err
		}
	}
	return nil
}

func (testCtx *TestContext) theResponseStatusShouldBe(code int) error {
	if testCtx.LastHTTPStatusCode != code {
		return fmt.Errorf("expected status %d, got %d\nBody: %s", code, testCtx.LastHTTPStatusCode, testCtx.LastHTTPResponse)
	}
	return nil
}

func (testCtx *TestContext) responseJSON() (map[string]any, error) {
	var data map[string]any
	if err := json.Unmarshal([]byte(testCtx.LastHTTPResponse), &data); err != nil {
		return nil, fmt.Errorf("response is not a JSON object: %w\nBody: %s", err, testCtx.LastHTTPResponse)
	}
	return data, nil
}

func (testCtx *TestContext) theResponseFieldShouldBeNumber(field string, want float64) error {
	data, err := testCtx.responseJSON()
	if err != nil {
		return err
	}
	return expectNumber(data, field, want)
}

func (testCtx *TestContext) theResponseFieldShouldEqual(field, want string) error {
	data, err := testCtx.responseJSON()
	if err != nil {
		return err
	}
	val, err := lookupField(data, field)
	if err != nil {
		return err
	}
	if got := fmt.Sprint(val); got != want {
		return fmt.Errorf("field '%s' = %q, want %q", field, got, want)
	}
	return nil
}

func (testCtx *TestContext) theResponseArrayShouldHaveElements(field string, n int) error {
	data, err := testCtx.responseJSON()
	if err != nil {
		return err
	}
	return expectArrayLen(data, field, n)
}

func (testCtx *TestContext) theResponseHeaderShouldBe(name, want string) error {
	got, ok := testCtx.LastHTTPHeaders[http.CanonicalHeaderKey(name)]
	if !ok {
		return fmt.Errorf("header %s missing", name)
	}
	if got != want {
		return fmt.Errorf("header %s = %q, want %q", name, got, want)
	}
	return nil
}

// iConnectToTheWebSocket dials /ws on the running server.
func (testCtx *TestContext) iConnectToTheWebSocket() error {
	url, err := testCtx.serverURL("/ws")
	if err != nil {
		return err
	}
	url = "ws" + strings.TrimPrefix(url, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return fmt.Errorf("failed to dial %s: %w", url, err)
	}
	testCtx.WSConn = conn
	testCtx.LastWSMessages = nil
	return nil
}

func (testCtx *TestContext) iSendTheWebSocketMessage(body *godog.DocString) error {
	if testCtx.WSConn == nil {
		return errors.New("not connected")
	}
	return testCtx.WSConn.WriteMessage(websocket.TextMessage, []byte(body.Content))
}

// readUntil reads messages until one of type kind arrives.
func (testCtx *TestContext) readUntil(kind string) (map[string]any, error) {
	if testCtx.WSConn == nil {
		return nil, errors.New("not connected")
	}
	deadline := time.Now().Add(wsReadWait)
	for {
		if err := testCtx.WSConn.SetReadDeadline(deadline); err != nil {
			return nil, err
		}
		_, data, err := testCtx.WSConn.ReadMessage()
		if err != nil {
			return nil, fmt.Errorf("waiting for %q message: %w", kind, err)
		}
		var msg map[string]any
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, fmt.Errorf("invalid message %s: %w", data, err)
		}
		testCtx.LastWSMessages = append(testCtx.LastWSMessages, msg)
		if msg["type"] == kind {
			return msg, nil
		}
	}
}

func (testCtx *TestContext) iShouldReceiveAMessage(kind string) error {
	_, err := testCtx.readUntil(kind)
	return err
}

func (testCtx *TestContext) iShouldReceiveMessages(n int, kind string) error {
	for i := range n {
		if _, err := testCtx.readUntil(kind); err != nil {
			return fmt.Errorf("message %d of %d: %w", i+1, n, err)
		}
	}
	return nil
}

func (testCtx *TestContext) lastWSMessage() (map[string]any, error) {
	if len(testCtx.LastWSMessages) == 0 {
		return nil, errors.New("no WebSocket message received")
	}
	return testCtx.LastWSMessages[len(testCtx.LastWSMessages)-1], nil
}

func (testCtx *TestContext) theMessageFieldShouldBeNumber(field string, want float64) error {
	msg, err := testCtx.lastWSMessage()
	if err != nil {
		return err
	}
	return expectNumber(msg, field, want)
}

func (testCtx *TestContext) theMessageFieldShouldEqual(field, want string) error {
	msg, err := testCtx.lastWSMessage()
	if err != nil {
		return err
	}
	val, err := lookupField(msg, field)
	if err != nil {
		return err
	}
	if got := fmt.Sprint(val); got != want {
		return fmt.Errorf("message field '%s' = %q, want %q", field, got, want)
	}
	return nil
}

func (testCtx *TestContext) theMessageArrayShouldHaveElements(field string, n int) error {
	msg, err := testCtx.lastWSMessage()
	if err != nil {
		return err
	}
	return expectArrayLen(msg, field, n)
}

// RegisterServerSteps registers HTTP and WebSocket steps.
func (testCtx *TestContext) RegisterServerSteps(sc *godog.ScenarioContext) {
	sc.Step(`^the droste server is running$`, testCtx.theDrosteServerIsRunning)
	sc.Step(`^the droste server is running with a limit of (\d+) requests per minute$`,
		testCtx.theDrosteServerIsRunningWithRateLimit)

	sc.Step(`^I send a GET request to "([^"]*)"$`, testCtx.iSendAGETRequestTo)
	sc.Step(`^I POST to "([^"]*)" with JSON:$`, testCtx.iPOSTToWithJSON)
	sc.Step(`^I POST to "([^"]*)" (\d+) times with JSON:$`, testCtx.iPOSTToTimes)
	sc.Step(`^the response status should be (\d+)$`, testCtx.theResponseStatusShouldBe)
	sc.Step(`^the response field "([^"]*)" should be ([-0-9.eE]+)$`, testCtx.theResponseFieldShouldBeNumber)
	sc.Step(`^the response field "([^"]*)" should equal "([^"]*)"$`, testCtx.theResponseFieldShouldEqual)
	sc.Step(`^the response array "([^"]*)" should have (\d+) elements$`, testCtx.theResponseArrayShouldHaveElements)
	sc.Step(`^the response header "([^"]*)" should be "([^"]*)"$`, testCtx.theResponseHeaderShouldBe)

	sc.Step(`^I connect to the WebSocket$`, testCtx.iConnectToTheWebSocket)
	sc.Step(`^I send the WebSocket message:$`, testCtx.iSendTheWebSocketMessage)
	sc.Step(`^I should receive a "([^"]*)" message$`, testCtx.iShouldReceiveAMessage)
	sc.Step(`^I should receive (\d+) "([^"]*)" messages$`, testCtx.iShouldReceiveMessages)
	sc.Step(`^the message field "([^"]*)" should be ([-0-9.eE]+)$`, testCtx.theMessageFieldShouldBeNumber)
	sc.Step(`^the message field "([^"]*)" should equal "([^"]*)"$`, testCtx.theMessageFieldShouldEqual)
	sc.Step(`^the message array "([^"]*)" should have (\d+) elements$`, testCtx.theMessageArrayShouldHaveElements)
}
