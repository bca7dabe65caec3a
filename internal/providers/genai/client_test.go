package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"studio/internal/domain"
)

type responseStub struct {
	status int
	body   string
}

type captureTransport struct {
	responses map[string]responseStub
	lastReq   *http.Request
	lastBody  []byte
}

func (c *captureTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	c.lastReq = req
	c.lastBody = nil
	if req.Body != nil {
		body, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		req.Body.Close()
		c.lastBody = body
	}
	stub, ok := c.responses[req.URL.Path]
	if !ok {
		stub = responseStub{status: http.StatusNotFound, body: `{"error":{"code":404,"message":"no stub"}}`}
	}
	return &http.Response{
		StatusCode: stub.status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(bytes.NewBufferString(stub.body)),
		Request:    req,
	}, nil
}

func newTestClient(responses map[string]responseStub) (*Client, *captureTransport) {
	transport := &captureTransport{responses: responses}
	client := NewClient(Options{BaseURL: "https://gemini.test/v1beta", HTTPClient: &http.Client{Transport: transport}})
	return client, transport
}

func TestGenerateImagesPayload(t *testing.T) {
	client, transport := newTestClient(map[string]responseStub{
		"/v1beta/models/imagen-3.0-generate-002:predict": {status: 200, body: `{"predictions":[{"bytesBase64Encoded":"QUJD","mimeType":"image/png"},{"bytesBase64Encoded":""}]}`},
	})
	seed := 42
	images, err := client.GenerateImages(context.Background(), "k1", ImageRequest{
		Prompt: "a fox", NumberOfImages: 2, AspectRatio: "16:9", OutputMimeType: "image/png", Seed: &seed,
	})
	if err != nil {
		t.Fatalf("GenerateImages error: %v", err)
	}
	if len(images) != 1 || images[0].BytesBase64 != "QUJD" {
		t.Fatalf("images = %+v", images)
	}
	if got := transport.lastReq.URL.Query().Get("key"); got != "k1" {
		t.Fatalf("key = %q, want k1", got)
	}

	var payload map[string]any
	if err := json.Unmarshal(transport.lastBody, &payload); err != nil {
		t.Fatalf("payload: %v", err)
	}
	params := payload["parameters"].(map[string]any)
	if params["sampleCount"].(float64) != 2 || params["seed"].(float64) != 42 || params["aspectRatio"] != "16:9" {
		t.Fatalf("parameters = %v", params)
	}
	if _, ok := params["negativePrompt"]; ok {
		t.Fatalf("negativePrompt should be omitted when empty")
	}
}

func TestGenerateVideosReturnsOperation(t *testing.T) {
	client, transport := newTestClient(map[string]responseStub{
		"/v1beta/models/veo-2.0-generate-001:predictLongRunning": {status: 200, body: `{"name":"models/veo-2.0-generate-001/operations/op1"}`},
	})
	op, err := client.GenerateVideos(context.Background(), "k", VideoRequest{
		Model: "veo-2.0-generate-001", Prompt: "waves", NumberOfVideos: 1,
		Image: &domain.InlineImage{MimeType: "image/png", Data: "AA=="},
	})
	if err != nil {
		t.Fatalf("GenerateVideos error: %v", err)
	}
	if op.Name != "models/veo-2.0-generate-001/operations/op1" {
		t.Fatalf("name = %q", op.Name)
	}
	if !strings.Contains(string(transport.lastBody), `"bytesBase64Encoded":"AA=="`) {
		t.Fatalf("image not forwarded: %s", transport.lastBody)
	}
}

func TestGetOperationDecodesSamples(t *testing.T) {
	client, transport := newTestClient(map[string]responseStub{
		"/v1beta/operations/op1": {status: 200, body: `{"name":"operations/op1","done":true,"response":{"generateVideoResponse":{"generatedSamples":[{"video":{"uri":"https://v/1"}},{"video":{}}]}}}`},
	})
	op, err := client.GetOperation(context.Background(), "k", "operations/op1")
	if err != nil {
		t.Fatalf("GetOperation error: %v", err)
	}
	if transport.lastReq.Method != http.MethodGet {
		t.Fatalf("method = %s, want GET", transport.lastReq.Method)
	}
	uris := op.VideoURIs()
	if !op.Done || len(uris) != 1 || uris[0] != "https://v/1" {
		t.Fatalf("op = %+v uris = %v", op, uris)
	}
}

func TestGenerateContentWithSearchTool(t *testing.T) {
	client, transport := newTestClient(map[string]responseStub{
		"/v1beta/models/gemini-2.5-flash:generateContent": {status: 200, body: `{"candidates":[{"content":{"parts":[{"text":"Hello "},{"text":"world"}]},"groundingMetadata":{"groundingChunks":[{"web":{"uri":"https://x","title":"X"}}]}}]}`},
	})
	resp, err := client.GenerateContent(context.Background(), "k", ContentRequest{
		Contents:          []Content{TextContent("user", "hi")},
		SystemInstruction: "be brief",
		Tools:             []Tool{GoogleSearchTool()},
	})
	if err != nil {
		t.Fatalf("GenerateContent error: %v", err)
	}
	if resp.Text != "Hello world" {
		t.Fatalf("text = %q", resp.Text)
	}
	if len(resp.GroundingChunks) != 1 || resp.GroundingChunks[0].Web.Title != "X" {
		t.Fatalf("chunks = %+v", resp.GroundingChunks)
	}
	body := string(transport.lastBody)
	if !strings.Contains(body, `"googleSearch":{}`) || !strings.Contains(body, `"systemInstruction":{"parts":[{"text":"be brief"}]}`) {
		t.Fatalf("body = %s", body)
	}
}

func TestInvokeMapsErrorEnvelope(t *testing.T) {
	client, _ := newTestClient(map[string]responseStub{
		"/v1beta/models/imagen-3.0-generate-002:predict": {status: 400, body: `{"error":{"code":400,"message":"API key not valid."}}`},
	})
	_, err := client.GenerateImages(context.Background(), "bad", ImageRequest{Prompt: "x", NumberOfImages: 1})
	if !errors.Is(err, domain.ErrRemoteCallFailed) {
		t.Fatalf("err = %v, want ErrRemoteCallFailed", err)
	}
	if got := domain.UserMessage(err); got != "API key not valid." {
		t.Fatalf("message = %q", got)
	}
}

func TestInvokeRequiresKey(t *testing.T) {
	client, transport := newTestClient(nil)
	_, err := client.GetOperation(context.Background(), "", "operations/op1")
	if !errors.Is(err, domain.ErrMissingCredential) {
		t.Fatalf("err = %v, want ErrMissingCredential", err)
	}
	if transport.lastReq != nil {
		t.Fatalf("request sent without key")
	}
}
