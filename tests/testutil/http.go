package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// HTTPTestCase is one request through a full engine, middleware included
type HTTPTestCase struct {
	Name    string
	Method  string // GET when empty
	Path    string
	Body    any    // JSON encoded when set
	Token   string // bearer token
	Headers map[string]string

	ExpectedStatus int
	// ExpectedBody compares top-level members of the JSON response
	ExpectedBody map[string]any
	Validate     func(t *testing.T, tc *TestContext)
}

// TestContext is what a Validate hook gets to inspect
type TestContext struct {
	Request  *http.Request
	Recorder *httptest.ResponseRecorder
}

// ResponseBody returns the raw response body
func (tc *TestContext) ResponseBody() []byte {
	return tc.Recorder.Body.Bytes()
}

// RunRouteTestCases runs each case as a subtest
func RunRouteTestCases(t *testing.T, engine *gin.Engine, cases []HTTPTestCase) {
	t.Helper()
	for _, tc := range cases {
		t.Run(tc.Name, func(t *testing.T) {
			RunRouteTestCase(t, engine, tc)
		})
	}
}

// RunRouteTestCase serves one case and checks its expectations
func RunRouteTestCase(t *testing.T, engine *gin.Engine, tc HTTPTestCase) {
	t.Helper()

	testCtx := &TestContext{Request: buildRequest(t, tc), Recorder: httptest.NewRecorder()}
	engine.ServeHTTP(testCtx.Recorder, testCtx.Request)

	if tc.ExpectedStatus != 0 {
		assert.Equal(t, tc.ExpectedStatus, testCtx.Recorder.Code, "body: %s", testCtx.ResponseBody())
	}
	if tc.ExpectedBody != nil {
		var body map[string]any
		require.NoError(t, json.Unmarshal(testCtx.ResponseBody(), &body), "response is not a JSON object")
		for key, want := range tc.ExpectedBody {
			assert.Equal(t, want, body[key], "member %q", key)
		}
	}
	if tc.Validate != nil {
		tc.Validate(t, testCtx)
	}
}

func buildRequest(t *testing.T, tc HTTPTestCase) *http.Request {
	t.Helper()

	method := tc.Method
	if method == "" {
		method = http.MethodGet
	}
	var body io.Reader
	if tc.Body != nil {
		raw, err := json.Marshal(tc.Body)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, tc.Path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tc.Token != "" {
		req.Header.Set("Authorization", "Bearer "+tc.Token)
	}
	for k, v := range tc.Headers {
		req.Header.Set(k, v)
	}
	return req
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, tc *TestContext) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(tc.ResponseBody(), &env), "response is not an API envelope: %s", tc.ResponseBody())
	return env
}

// DecodeData unmarshals the data member of a success envelope into out
func DecodeData(t *testing.T, tc *TestContext, out any) {
	t.Helper()
	env := decodeEnvelope(t, tc)
	require.True(t, env.Success, "expected success envelope: %s", tc.ResponseBody())
	require.NoError(t, json.Unmarshal(env.Data, out))
}

// AssertErrorResponse checks for a failure envelope carrying code
func AssertErrorResponse(t *testing.T, tc *TestContext, code string) {
	t.Helper()
	env := decodeEnvelope(t, tc)
	assert.False(t, env.Success)
	require.NotNil(t, env.Error, "expected an error member: %s", tc.ResponseBody())
	assert.Equal(t, code, env.Error.Code)
}
