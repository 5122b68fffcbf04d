package coach

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

const (
	geminiBaseURL      = "https://generativelanguage.googleapis.com/v1beta/models"
	DefaultGeminiModel = "gemini-2.0-flash"
)

// Gemini asks a Gemini model for the coaching report, sending the audio
// payload inline as base64 and requiring a strict JSON reply.
type Gemini struct {
	client *TracedClient
	apiKey string
	model  string
}

func NewGemini(apiKey, model string) *Gemini {
	if model == "" {
		model = DefaultGeminiModel
	}
	return &Gemini{
		client: NewTracedClient(),
		apiKey: apiKey,
		model:  model,
	}
}

func (g *Gemini) Name() string { return "gemini" }

// Warm pre-opens the API connection; call it while the user is still
// recording.
func (g *Gemini) Warm() {
	g.client.Warm(geminiBaseURL + "/" + g.model)
}

type geminiRequest struct {
	Contents []struct {
		Parts []geminiPart `json:"parts"`
	} `json:"contents"`
	GenerationConfig struct {
		ResponseMimeType string `json:"response_mime_type"`
	} `json:"generationConfig"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (g *Gemini) Analyze(ctx context.Context, req Request) (*Report, error) {
	if len(req.Audio) == 0 {
		return nil, fmt.Errorf("gemini: empty audio payload")
	}

	var gReq geminiRequest
	gReq.GenerationConfig.ResponseMimeType = "application/json"
	gReq.Contents = append(gReq.Contents, struct {
		Parts []geminiPart `json:"parts"`
	}{Parts: []geminiPart{
		{Text: buildPrompt(req.Script, req.Language)},
		{InlineData: &geminiInlineData{
			MimeType: req.MimeType,
			Data:     base64.StdEncoding.EncodeToString(req.Audio),
		}},
	}})

	body, err := json.Marshal(gReq)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/%s:generateContent", geminiBaseURL, g.model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("gemini request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gemini API error %d: %s", resp.StatusCode, truncate(string(resp.Body), 300))
	}

	var gResp geminiResponse
	if err := json.Unmarshal(resp.Body, &gResp); err != nil {
		return nil, fmt.Errorf("gemini response parse error: %w", err)
	}
	if gResp.Error != nil {
		return nil, fmt.Errorf("gemini API error %d: %s", gResp.Error.Code, gResp.Error.Message)
	}
	if len(gResp.Candidates) == 0 {
		return nil, fmt.Errorf("gemini returned no candidates")
	}

	var text strings.Builder
	for _, p := range gResp.Candidates[0].Content.Parts {
		text.WriteString(p.Text)
	}

	report, err := parseReport(text.String())
	if err != nil {
		return nil, err
	}
	report.Metrics = resp.Metrics
	return report, nil
}

// parseReport decodes the model's JSON report, tolerating the markdown
// code fence some models wrap around it despite the strict mime type.
func parseReport(text string) (*Report, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var report Report
	if err := json.Unmarshal([]byte(text), &report); err != nil {
		return nil, fmt.Errorf("report parse error: %w", err)
	}
	report.normalize()
	return &report, nil
}

func buildPrompt(script, language string) string {
	lang := language
	if lang == "" {
		lang = "en"
	}
	return fmt.Sprintf(`You are a pronunciation and fluency coach. The attached audio is a
person reading the script below aloud (language: %s). Respond with only a
JSON object with these fields:
 "transcription": exactly what you hear, empty string if no speech,
 "fluency_score": integer 1-5 (1 halting, 5 natural),
 "improvement": one short paragraph on what to practice next,
 "filler_words": array of repeated or filler words you noticed,
 "words": array, one entry per scripted word that was attempted, each
  {"word", "accuracy" one of Excellent/Good/Fair/Poor,
   "stress" one of Correct/Incorrect/"N/A",
   "pronunciation_feedback" one sentence,
   "expected_phonetic" IPA for the word,
   "user_phonetic" approximate IPA of what was said}.

Script:
%s`, lang, script)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
