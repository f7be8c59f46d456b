package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"
)

// LocalStub is a deterministic offline provider. It answers every task with
// keyword heuristics over the prompt so the app works without a model.
type LocalStub struct {
	logger *log.Logger
	now    func() time.Time
}

// NewLocalStub constructs the offline provider.
func NewLocalStub(logger *log.Logger) *LocalStub {
	return &LocalStub{logger: logger, now: time.Now}
}

// Name implements Provider.
func (ls *LocalStub) Name() string { return "local_stub" }

var (
	concernWords = []string{"question", "scandal", "investigat", "allegation", "corrupt", "critici", "oversight", "misuse", "probe", "lack of"}
	urlPattern   = regexp.MustCompile(`https?://[^\s)]+`)
	hashtag      = regexp.MustCompile(`#\w+`)
	sentenceEnd  = regexp.MustCompile(`[.!?](\s|$)`)
)

// Generate implements Provider.
func (ls *LocalStub) Generate(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out any
	switch req.Task {
	case TaskFactCheck, TaskIntegritySummary:
		out = map[string]string{"integrityReport": ls.integrityReport(req.Prompt)}
	case TaskSocialHighlights:
		out = map[string]any{"highlights": ls.highlights(section(req.Prompt, markerPosts))}
	default:
		return nil, fmt.Errorf("local_stub: unsupported task %q", req.Task)
	}
	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("local_stub: encode output: %w", err)
	}
	text := string(data)
	tokens := usage(req, text)
	if ls.logger != nil {
		ls.logger.Printf("local_stub answered %s (%d tokens)", req.Task, tokens)
	}
	return &Response{Text: text, TokensUsed: tokens, Cost: 0, Model: "local_stub"}, nil
}

func (ls *LocalStub) integrityReport(prompt string) string {
	name := section(prompt, markerName)
	if name == "" {
		name = "The representative"
	}
	var concerns []string
	for _, s := range sentences(section(prompt, markerNews)) {
		lower := strings.ToLower(s)
		for _, w := range concernWords {
			if strings.Contains(lower, w) {
				concerns = append(concerns, s)
				break
			}
		}
	}
	if len(concerns) == 0 {
		return fmt.Sprintf("No significant integrity concerns were found for %s in the reviewed articles.", name)
	}
	noun := "points"
	if len(concerns) == 1 {
		noun = "point"
	}
	return fmt.Sprintf("Reports on %s raise %d %s of integrity concern: %s", name, len(concerns), noun, strings.Join(concerns, " "))
}

type stubHighlight struct {
	Title       string `json:"title"`
	Date        string `json:"date"`
	Description string `json:"description"`
	Category    string `json:"category"`
	SourceURL   string `json:"sourceUrl,omitempty"`
}

func (ls *LocalStub) highlights(posts string) []stubHighlight {
	out := []stubHighlight{}
	if posts == "" || strings.HasPrefix(posts, "No social media activity found") {
		return out
	}
	today := ls.now().UTC()
	for i, post := range strings.Split(posts, strings.TrimSpace(postSeparator)) {
		post = strings.TrimSpace(post)
		if post == "" {
			continue
		}
		if len(out) == 5 {
			break
		}
		plain := strings.Join(strings.Fields(hashtag.ReplaceAllString(post, "")), " ")
		desc := plain
		if ss := sentences(plain); len(ss) > 0 {
			desc = ss[0]
		}
		out = append(out, stubHighlight{
			Title:       title(desc, 10),
			Date:        today.AddDate(0, 0, -i).Format("2006-01-02"),
			Description: desc,
			Category:    categorize(post),
			SourceURL:   urlPattern.FindString(post),
		})
	}
	return out
}

func categorize(post string) string {
	lower := strings.ToLower(post)
	switch {
	case strings.Contains(lower, "voted") || strings.Contains(lower, " vote"):
		return "Significant Vote"
	case strings.Contains(lower, "launch"):
		return "Project Launch"
	case strings.Contains(lower, "statement"):
		return "Important Statement"
	case strings.Contains(lower, "complet") || strings.Contains(lower, "proud"):
		return "Achievement"
	default:
		return "Important Statement"
	}
}

func title(s string, maxWords int) string {
	words := strings.Fields(urlPattern.ReplaceAllString(s, ""))
	if len(words) > maxWords {
		words = words[:maxWords]
	}
	return strings.TrimRight(strings.Join(words, " "), ".,:;!?")
}

func sentences(s string) []string {
	var out []string
	for _, para := range strings.Split(s, "\n") {
		para = strings.TrimSpace(para)
		for para != "" {
			loc := sentenceEnd.FindStringIndex(para)
			if loc == nil {
				out = append(out, para)
				break
			}
			out = append(out, strings.TrimSpace(para[:loc[0]+1]))
			para = strings.TrimSpace(para[loc[1]:])
		}
	}
	return out
}
