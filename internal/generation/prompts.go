package generation

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"BriefingAgent/internal/domain"
)

// Settings tunes the model call of one task.
type Settings struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

// Builder renders selections into prompts.
type Builder struct {
	settings map[domain.TaskType]Settings
}

// NewBuilder keeps per-task model settings.
func NewBuilder(settings map[domain.TaskType]Settings) *Builder {
	return &Builder{settings: settings}
}

// Subject is the mail subject of a task for the given target day.
func Subject(task domain.TaskType, day time.Time) string {
	name := string(task)
	if name != "" {
		name = strings.ToUpper(name[:1]) + name[1:]
	}
	return fmt.Sprintf("%s Brief: %s", name, day.Format(time.DateOnly))
}

// Build turns a selection into the generation payload.
func (b *Builder) Build(sel domain.Selection) (domain.Prompt, error) {
	var (
		prompt domain.Prompt
		err    error
	)
	switch sel.Task {
	case domain.TaskMorning:
		prompt, err = digestPrompt(sel)
	case domain.TaskAfternoon:
		prompt, err = topicPrompt(sel)
	case domain.TaskEvening:
		prompt, err = articlePrompt(sel)
	default:
		return domain.Prompt{}, fmt.Errorf("build prompt: %w: %q", domain.ErrUnknownTask, sel.Task)
	}
	if err != nil {
		return domain.Prompt{}, err
	}

	s := b.settings[sel.Task]
	prompt.Model = s.Model
	prompt.Temperature = s.Temperature
	prompt.MaxTokens = s.MaxTokens
	return prompt, nil
}

const htmlRules = `Output rules:
1. Never use Markdown. Style with HTML tags only (<b>, <u>, <ul>, <li>).
2. Return raw HTML without code fences.`

func digestPrompt(sel domain.Selection) (domain.Prompt, error) {
	if len(sel.Digest) == 0 {
		return domain.Prompt{}, fmt.Errorf("digest prompt: empty digest")
	}

	var pool strings.Builder
	for _, entry := range sel.Digest {
		fmt.Fprintf(&pool, "[Title] %s\n[Source] %s\n[Summary] %s\n[Link] %s\n\n", entry.Title, entry.Source, entry.Body, entry.ID)
	}

	system := `You are the editor of a global morning briefing for busy professionals.
Select the most valuable stories and group them. After each story, teach one
idiomatic English expression taken from your own English summary.
` + htmlRules

	user := fmt.Sprintf(`Today is %s.
Pick 3 stories for each of the fixed sections, in this order:
1. Market & Economy
2. Technology
3. Entertainment
4. Culture

For every story write a 3-4 sentence English summary, underline 3-5 worthwhile
expressions with <u></u>, translate the summary into Chinese and explain each
underlined expression. Only explain expressions that appear in the summary.

Raw news pool:
%s`, sel.Day.Format("Monday, January 02, 2006"), pool.String())

	return domain.Prompt{System: system, User: user}, nil
}

func topicPrompt(sel domain.Selection) (domain.Prompt, error) {
	if sel.Topic == nil {
		return domain.Prompt{}, fmt.Errorf("topic prompt: no topic selected")
	}

	questions := make([]string, 0, len(sel.Questions))
	for _, q := range sel.Questions {
		questions = append(questions, "- "+q)
	}

	system := `You are a Band 9 IELTS speaking coach. Produce an HTML training brief
that teaches logic plus natural collocations instead of templates. In the logic
part give pros/cons or macro/micro analysis; teach at least 10 collocations.
` + htmlRules

	sample := "the first question"
	if len(sel.Questions) > 0 {
		sample = fmt.Sprintf("%q", sel.Questions[0])
	}

	user := fmt.Sprintf(`Topic: %s

[Part 2 cue card]
%s

[Part 3 selected questions]
%s

Tasks:
1. Bold the first sentence of the cue card and turn the "You should say" points into a list.
2. Give 5-6 pairs of logic analysis plus an English expression; underline hard words and add a Chinese gloss.
3. Write a sample answer for %s with an examiner's note.
Footer: Daily Progress · %s`, sel.Topic.Name, sel.Topic.CueCard, strings.Join(questions, "\n"), sample, sel.Day.Format("2006.01.02"))

	return domain.Prompt{System: system, User: user}, nil
}

func articlePrompt(sel domain.Selection) (domain.Prompt, error) {
	if sel.Article == nil {
		return domain.Prompt{}, fmt.Errorf("article prompt: no article selected")
	}
	a := sel.Article

	system := `You are a warm, erudite evening reading companion. Turn an English article
into an annotated bedtime edition: split it into reading blocks of one or two
paragraphs, gloss advanced words inline in Chinese, and add a grammar card only
below blocks that contain a genuinely complex sentence. Warm paper tone
(#fdfbf7), Times New Roman.
` + htmlRules

	user := fmt.Sprintf(`Title: %s
Author: %s
Source: %s
Original link: %s

Article:
%s

End with the single most soothing sentence of the article as a golden quote.`, a.Title, a.Author, a.Source, a.ID, a.Body)

	return domain.Prompt{System: system, User: user}, nil
}

var fence = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*\\n(.*?)\\n?```$")

// Clean strips a surrounding code fence that models add despite instructions.
func Clean(output string) string {
	trimmed := strings.TrimSpace(output)
	if m := fence.FindStringSubmatch(trimmed); m != nil {
		return strings.TrimSpace(m[1])
	}
	return trimmed
}
