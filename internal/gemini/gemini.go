package gemini

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const (
	defaultModel = "gemini-1.5-flash"
	// maxTitles bounds the prompt for very large clusters.
	maxTitles   = 12
	maxHeadline = 160
)

type Client struct {
	client *genai.Client
	model  string
}

func NewClient(ctx context.Context, apiKey string) (*Client, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Client{client: client, model: defaultModel}, nil
}

func (c *Client) Close() {
	if c.client != nil {
		c.client.Close()
	}
}

// Headline asks the model for one neutral headline covering every title of
// a story cluster.
func (c *Client) Headline(ctx context.Context, titles []string) (string, error) {
	if len(titles) == 0 {
		return "", fmt.Errorf("no titles")
	}
	model := c.client.GenerativeModel(c.model)
	model.SetTemperature(0.2)

	resp, err := model.GenerateContent(ctx, genai.Text(buildPrompt(titles)))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no response from Gemini")
	}

	headline := parseHeadline(fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0]))
	if headline == "" {
		return "", fmt.Errorf("empty headline from Gemini")
	}
	return headline, nil
}

func buildPrompt(titles []string) string {
	if len(titles) > maxTitles {
		titles = titles[:maxTitles]
	}
	var b strings.Builder
	b.WriteString("These headlines from different outlets describe the same news event.\n")
	b.WriteString("Write one short, neutral English headline for the event.\n")
	b.WriteString("Answer with the headline only, in the form:\nHEADLINE: <headline>\n\n")
	for _, t := range titles {
		fmt.Fprintf(&b, "- %s\n", strings.Join(strings.Fields(t), " "))
	}
	return b.String()
}

// parseHeadline takes the HEADLINE: line when present and the first
// non-empty line otherwise, stripped of quotes and markdown.
func parseHeadline(response string) string {
	var first string
	for _, raw := range strings.Split(response, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if upper := strings.ToUpper(line); strings.HasPrefix(upper, "HEADLINE:") {
			first = strings.TrimSpace(line[len("HEADLINE:"):])
			break
		}
		if first == "" {
			first = line
		}
	}

	first = strings.Trim(first, "*\"'` ")
	if utf8.RuneCountInString(first) > maxHeadline {
		first = string([]rune(first)[:maxHeadline])
	}
	return first
}
