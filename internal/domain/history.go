package domain

import "time"

// GeneratedImage is the archived projection of a completed image job.
type GeneratedImage struct {
	ID             string    `json:"id"`
	Prompt         string    `json:"prompt"`
	ImageURLs      []string  `json:"imageUrls"`
	AspectRatio    string    `json:"aspectRatio"`
	Style          string    `json:"style,omitempty"`
	NegativePrompt string    `json:"negativePrompt,omitempty"`
	Seed           *int      `json:"seed,omitempty"`
	CreatedAt      time.Time `json:"timestamp"`
}

// GeneratedVideo is the archived projection of a completed video job.
type GeneratedVideo struct {
	ID         string       `json:"id"`
	Prompt     string       `json:"prompt"`
	VideoURLs  []string     `json:"videoUrls"`
	Model      string       `json:"model"`
	Seed       *int         `json:"seed,omitempty"`
	InputImage *InlineImage `json:"inputImage,omitempty"`
	CreatedAt  time.Time    `json:"timestamp"`
}

// GeneratedMusic is the archived projection of a completed music job.
type GeneratedMusic struct {
	ID             string    `json:"id"`
	Prompt         string    `json:"prompt"`
	Title          string    `json:"title"`
	Style          string    `json:"style"`
	IsInstrumental bool      `json:"isInstrumental"`
	AudioURL       string    `json:"audioUrl"`
	CreatedAt      time.Time `json:"timestamp"`
}

// WebSource is a single web citation.
type WebSource struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

// GroundingChunk is a citation returned by a grounded search.
type GroundingChunk struct {
	Web WebSource `json:"web"`
}

// SearchResult is a stored AI search answer.
type SearchResult struct {
	ID        string           `json:"id"`
	Prompt    string           `json:"prompt"`
	Result    string           `json:"result"`
	Sources   []GroundingChunk `json:"sources"`
	CreatedAt time.Time        `json:"timestamp"`
}

// Agent message senders.
const (
	SenderUser    = "user"
	SenderModel   = "model"
	SenderWebhook = "webhook"
)

// AgentMessage is one turn of a persona chat.
type AgentMessage struct {
	ID     string `json:"id"`
	Sender string `json:"sender"`
	Text   string `json:"text"`
}

// ChatConfig carries sampling overrides for a chat session.
type ChatConfig struct {
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"topP"`
	TopK        int     `json:"topK"`
}

// ChatSession is a persona chat persisted by upsert.
type ChatSession struct {
	ID                string         `json:"id"`
	Title             string         `json:"title"`
	PersonaName       string         `json:"personaName"`
	SystemInstruction string         `json:"systemInstruction"`
	Messages          []AgentMessage `json:"messages"`
	Config            *ChatConfig    `json:"config,omitempty"`
	CreatedAt         time.Time      `json:"createdAt"`
	UpdatedAt         time.Time      `json:"lastUpdated"`
}

// RecentActivity is the dashboard snapshot of every recent list.
type RecentActivity struct {
	Images   []GeneratedImage `json:"images"`
	Videos   []GeneratedVideo `json:"videos"`
	Music    []GeneratedMusic `json:"music"`
	Searches []SearchResult   `json:"searches"`
	Chats    []ChatSession    `json:"chats"`
}

// Clone returns a copy that shares no slices or pointers with e.
func (e GeneratedImage) Clone() GeneratedImage {
	out := e
	out.ImageURLs = cloneStrings(e.ImageURLs)
	out.Seed = cloneInt(e.Seed)
	return out
}

// Clone returns a copy that shares no slices or pointers with e.
func (e GeneratedVideo) Clone() GeneratedVideo {
	out := e
	out.VideoURLs = cloneStrings(e.VideoURLs)
	out.Seed = cloneInt(e.Seed)
	if e.InputImage != nil {
		in := *e.InputImage
		out.InputImage = &in
	}
	return out
}

// Clone returns a copy that shares no slices with r.
func (r SearchResult) Clone() SearchResult {
	out := r
	if r.Sources != nil {
		out.Sources = append([]GroundingChunk(nil), r.Sources...)
	}
	return out
}

// Clone returns a copy that shares no slices or pointers with s.
func (s ChatSession) Clone() ChatSession {
	out := s
	if s.Messages != nil {
		out.Messages = append([]AgentMessage(nil), s.Messages...)
	}
	if s.Config != nil {
		cfg := *s.Config
		out.Config = &cfg
	}
	return out
}

// Clone deep-copies every list.
func (r RecentActivity) Clone() RecentActivity {
	out := RecentActivity{
		Images:   make([]GeneratedImage, len(r.Images)),
		Videos:   make([]GeneratedVideo, len(r.Videos)),
		Music:    append([]GeneratedMusic{}, r.Music...),
		Searches: make([]SearchResult, len(r.Searches)),
		Chats:    make([]ChatSession, len(r.Chats)),
	}
	for i, e := range r.Images {
		out.Images[i] = e.Clone()
	}
	for i, e := range r.Videos {
		out.Videos[i] = e.Clone()
	}
	for i, e := range r.Searches {
		out.Searches[i] = e.Clone()
	}
	for i, e := range r.Chats {
		out.Chats[i] = e.Clone()
	}
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}
