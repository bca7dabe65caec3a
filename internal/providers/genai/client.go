package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"studio/internal/domain"
	"studio/internal/infra"
)

// Model identifiers used by the dashboard.
const (
	ImageModel   = "imagen-3.0-generate-002"
	ContentModel = "gemini-2.5-flash"
)

// DefaultBaseURL is the public Generative Language endpoint.
const DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Options controls how the Gemini client is configured.
type Options struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     *infra.Logger
}

// Client is a thin REST client for the Gemini API. Keys are passed per call
// because they live in the settings store and may change at runtime.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     infra.Logger
}

// NewClient constructs a Gemini client with sane defaults. Callers may provide
// a nil HTTP client; a reusable one with sensible timeouts will be created.
func NewClient(opts Options) *Client {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 120 * time.Second}
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	logger := zerolog.New(io.Discard)
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	return &Client{baseURL: baseURL, httpClient: client, logger: logger}
}

// ImageRequest is an Imagen predict call.
type ImageRequest struct {
	Prompt         string
	NumberOfImages int
	AspectRatio    string
	OutputMimeType string
	Seed           *int
	NegativePrompt string
}

// Image is one generated image as returned by the API.
type Image struct {
	BytesBase64 string
	MimeType    string
}

type predictRequest struct {
	Instances  []predictInstance `json:"instances"`
	Parameters predictParameters `json:"parameters"`
}

type predictInstance struct {
	Prompt string        `json:"prompt"`
	Image  *inlineBase64 `json:"image,omitempty"`
}

type inlineBase64 struct {
	BytesBase64Encoded string `json:"bytesBase64Encoded"`
	MimeType           string `json:"mimeType"`
}

type predictParameters struct {
	SampleCount    int    `json:"sampleCount"`
	AspectRatio    string `json:"aspectRatio,omitempty"`
	OutputMimeType string `json:"outputMimeType,omitempty"`
	Seed           *int   `json:"seed,omitempty"`
	NegativePrompt string `json:"negativePrompt,omitempty"`
}

type predictResponse struct {
	Predictions []struct {
		BytesBase64Encoded string `json:"bytesBase64Encoded"`
		MimeType           string `json:"mimeType"`
	} `json:"predictions"`
}

// GenerateImages runs a synchronous Imagen prediction.
func (c *Client) GenerateImages(ctx context.Context, apiKey string, req ImageRequest) ([]Image, error) {
	payload := predictRequest{
		Instances: []predictInstance{{Prompt: req.Prompt}},
		Parameters: predictParameters{
			SampleCount:    req.NumberOfImages,
			AspectRatio:    req.AspectRatio,
			OutputMimeType: req.OutputMimeType,
			Seed:           req.Seed,
			NegativePrompt: req.NegativePrompt,
		},
	}
	var resp predictResponse
	if err := c.invoke(ctx, http.MethodPost, "/models/"+url.PathEscape(ImageModel)+":predict", apiKey, payload, &resp); err != nil {
		return nil, err
	}
	images := make([]Image, 0, len(resp.Predictions))
	for _, p := range resp.Predictions {
		if p.BytesBase64Encoded == "" {
			continue
		}
		images = append(images, Image{BytesBase64: p.BytesBase64Encoded, MimeType: p.MimeType})
	}
	c.logger.Debug().Int("count", len(images)).Msg("genai: images generated")
	return images, nil
}

// VideoRequest starts a Veo long-running prediction.
type VideoRequest struct {
	Model          string
	Prompt         string
	NumberOfVideos int
	Seed           *int
	Image          *domain.InlineImage
}

// Operation is a long-running operation resource.
type Operation struct {
	Name     string `json:"name"`
	Done     bool   `json:"done"`
	Metadata struct {
		State string `json:"state"`
	} `json:"metadata"`
	Response struct {
		GenerateVideoResponse struct {
			GeneratedSamples []struct {
				Video struct {
					URI string `json:"uri"`
				} `json:"video"`
			} `json:"generatedSamples"`
		} `json:"generateVideoResponse"`
	} `json:"response"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// VideoURIs lists the non-empty sample URIs of a finished operation.
func (o Operation) VideoURIs() []string {
	samples := o.Response.GenerateVideoResponse.GeneratedSamples
	uris := make([]string, 0, len(samples))
	for _, s := range samples {
		if s.Video.URI != "" {
			uris = append(uris, s.Video.URI)
		}
	}
	return uris
}

// GenerateVideos submits a video prediction and returns the pending operation.
func (c *Client) GenerateVideos(ctx context.Context, apiKey string, req VideoRequest) (Operation, error) {
	instance := predictInstance{Prompt: req.Prompt}
	if req.Image != nil {
		instance.Image = &inlineBase64{BytesBase64Encoded: req.Image.Data, MimeType: req.Image.MimeType}
	}
	payload := predictRequest{
		Instances:  []predictInstance{instance},
		Parameters: predictParameters{SampleCount: req.NumberOfVideos, Seed: req.Seed},
	}
	var op Operation
	if err := c.invoke(ctx, http.MethodPost, "/models/"+url.PathEscape(req.Model)+":predictLongRunning", apiKey, payload, &op); err != nil {
		return Operation{}, err
	}
	if op.Name == "" {
		return Operation{}, domain.NewMessageError(domain.ErrEmptyResult, "Video generation did not return an operation.")
	}
	c.logger.Debug().Str("operation", op.Name).Msg("genai: video operation started")
	return op, nil
}

// GetOperation fetches the current state of a long-running operation.
func (c *Client) GetOperation(ctx context.Context, apiKey, name string) (Operation, error) {
	var op Operation
	if err := c.invoke(ctx, http.MethodGet, "/"+strings.TrimLeft(name, "/"), apiKey, nil, &op); err != nil {
		return Operation{}, err
	}
	return op, nil
}

// Part is a content fragment. Only text parts are used.
type Part struct {
	Text string `json:"text"`
}

// Content is one conversation turn.
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// TextContent builds a single-part content.
func TextContent(role, text string) Content {
	return Content{Role: role, Parts: []Part{{Text: text}}}
}

// Tool enables a server-side tool.
type Tool struct {
	GoogleSearch *struct{} `json:"googleSearch,omitempty"`
}

// GoogleSearchTool grounds answers with Google Search.
func GoogleSearchTool() Tool {
	return Tool{GoogleSearch: &struct{}{}}
}

// GenerationConfig carries sampling overrides.
type GenerationConfig struct {
	Temperature *float64 `json:"temperature,omitempty"`
	TopP        *float64 `json:"topP,omitempty"`
	TopK        *int     `json:"topK,omitempty"`
}

// ContentRequest is a generateContent call.
type ContentRequest struct {
	Model             string
	Contents          []Content
	SystemInstruction string
	Tools             []Tool
	Config            *GenerationConfig
}

// ContentResponse is the first candidate's text and citations.
type ContentResponse struct {
	Text            string
	GroundingChunks []domain.GroundingChunk
}

type generateContentRequest struct {
	Contents          []Content         `json:"contents"`
	SystemInstruction *Content          `json:"systemInstruction,omitempty"`
	Tools             []Tool            `json:"tools,omitempty"`
	GenerationConfig  *GenerationConfig `json:"generationConfig,omitempty"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content           Content `json:"content"`
		GroundingMetadata struct {
			GroundingChunks []domain.GroundingChunk `json:"groundingChunks"`
		} `json:"groundingMetadata"`
	} `json:"candidates"`
}

// GenerateContent runs a text generation and joins the first candidate's parts.
func (c *Client) GenerateContent(ctx context.Context, apiKey string, req ContentRequest) (ContentResponse, error) {
	model := req.Model
	if model == "" {
		model = ContentModel
	}
	payload := generateContentRequest{
		Contents:         req.Contents,
		Tools:            req.Tools,
		GenerationConfig: req.Config,
	}
	if req.SystemInstruction != "" {
		si := TextContent("", req.SystemInstruction)
		payload.SystemInstruction = &si
	}
	var resp generateContentResponse
	if err := c.invoke(ctx, http.MethodPost, "/models/"+url.PathEscape(model)+":generateContent", apiKey, payload, &resp); err != nil {
		return ContentResponse{}, err
	}
	if len(resp.Candidates) == 0 {
		return ContentResponse{}, domain.NewMessageError(domain.ErrEmptyResult, "The model returned no candidates.")
	}
	first := resp.Candidates[0]
	var b strings.Builder
	for _, p := range first.Content.Parts {
		b.WriteString(p.Text)
	}
	chunks := first.GroundingMetadata.GroundingChunks
	if chunks == nil {
		chunks = []domain.GroundingChunk{}
	}
	return ContentResponse{Text: b.String(), GroundingChunks: chunks}, nil
}

type errorEnvelope struct {
	Error struct {
		Code    int    `json:"code,omitempty"`
		Message string `json:"message,omitempty"`
	} `json:"error"`
}

func (c *Client) invoke(ctx context.Context, method, path, apiKey string, payload, out any) error {
	if strings.TrimSpace(apiKey) == "" {
		return domain.NewMessageError(domain.ErrMissingCredential, "Gemini API key is not configured.")
	}
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	q := req.URL.Query()
	q.Set("key", apiKey)
	req.URL.RawQuery = q.Encode()
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn().Err(err).Str("path", path).Msg("genai: request failed")
		return domain.NewMessageError(domain.ErrRemoteCallFailed, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		var apiErr errorEnvelope
		msg := ""
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error.Message != "" {
			msg = apiErr.Error.Message
		} else if text := strings.TrimSpace(string(data)); text != "" {
			msg = text
		} else {
			msg = fmt.Sprintf("Gemini request failed with status %d", resp.StatusCode)
		}
		c.logger.Warn().Int("status", resp.StatusCode).Str("path", path).Msg("genai: non-2xx response")
		return domain.NewMessageError(domain.ErrRemoteCallFailed, msg)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return domain.NewMessageError(domain.ErrRemoteCallFailed, "decode gemini response: "+err.Error())
	}
	return nil
}
