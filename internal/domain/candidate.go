package domain

import "time"

// Candidate is raw input fetched from a feed or article page. Only its ID
// (the link) is ever persisted, in dedup history.
type Candidate struct {
	ID          string
	Title       string
	Body        string
	Author      string
	Source      string
	PublishedAt *time.Time
}

// Feed is a parsed RSS/Atom document with entries newest first.
type Feed struct {
	Title   string
	Entries []Candidate
}

// ArticleText is the extracted full text of a long-form page.
type ArticleText struct {
	Title  string
	Author string
	Text   string
}

// Topic is one entry of the fixed speaking-topic bank.
type Topic struct {
	ID        int      `yaml:"id"`
	Name      string   `yaml:"topic_name"`
	CueCard   string   `yaml:"part2_content"`
	Questions []string `yaml:"part3_questions"`
}

// RotationState is the persisted pointer of a rotation domain.
type RotationState struct {
	CurrentIndex int
	LastUpdated  string
	LastLabel    string
}

// Selection is the chosen input for one generation run. Exactly one of
// Topic, Article or Digest is set, according to Task.
type Selection struct {
	Task      TaskType
	Day       time.Time
	Topic     *Topic
	Questions []string
	Article   *Candidate
	Digest    []Candidate
}

// DedupID returns the identifier to remember once the selection has been
// used, or "" for selections that are not deduplicated.
func (s Selection) DedupID() string {
	if s.Article == nil {
		return ""
	}
	return s.Article.ID
}

// Prompt is the opaque payload handed to the generation call.
type Prompt struct {
	System      string
	User        string
	Model       string
	Temperature float64
	MaxTokens   int
}
