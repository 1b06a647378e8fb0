package llm

import (
	"fmt"
	"os"
	"strings"
	"sync"
)

const defaultSystemPrompt = `You are an analyst who distills newsletters into structured gists.
Respond with a single JSON object and nothing else. The object must contain:
"title" (string, concise), "digest" (string, 2-4 sentences), "score"
(integer 0-100 rating how valuable the content is), "tags" (array of up
to 10 short strings), "key_insights" (array of the most important
takeaways), "mentioned_links" (array of URLs worth keeping), and
"is_spam_or_irrelevant" (boolean, true for promotions, receipts, or
content-free mail).`

const defaultUserPromptTemplate = `Subject: %s
Sender: %s

Content:
%s`

// PromptSet holds the extraction prompts. Files on disk override the
// built-in defaults and can be reloaded while the daemon runs.
type PromptSet struct {
	mu         sync.RWMutex
	systemPath string
	userPath   string
	system     string
	user       string
}

// NewPromptSet builds a prompt set backed by the given override files.
// Either path may be empty, in which case the built-in default is used.
func NewPromptSet(systemPath, userPath string) *PromptSet {
	set := &PromptSet{
		systemPath: strings.TrimSpace(systemPath),
		userPath:   strings.TrimSpace(userPath),
		system:     defaultSystemPrompt,
		user:       defaultUserPromptTemplate,
	}
	_ = set.Reload()
	return set
}

// Reload re-reads the override files. A missing file falls back to the
// built-in default rather than erroring, so a fresh install works with
// no prompt files present.
func (p *PromptSet) Reload() error {
	system := defaultSystemPrompt
	user := defaultUserPromptTemplate
	var firstErr error

	if p.systemPath != "" {
		if data, err := os.ReadFile(p.systemPath); err == nil {
			if text := strings.TrimSpace(string(data)); text != "" {
				system = text
			}
		} else if !os.IsNotExist(err) {
			firstErr = fmt.Errorf("read system prompt: %w", err)
		}
	}
	if p.userPath != "" {
		if data, err := os.ReadFile(p.userPath); err == nil {
			if text := strings.TrimSpace(string(data)); text != "" {
				user = text
			}
		} else if !os.IsNotExist(err) && firstErr == nil {
			firstErr = fmt.Errorf("read user prompt: %w", err)
		}
	}

	p.mu.Lock()
	p.system = system
	p.user = user
	p.mu.Unlock()
	return firstErr
}

// Render produces the system and user prompts for one document. The
// user template receives subject, sender, and cleaned text in order;
// templates without format verbs get the document appended instead.
func (p *PromptSet) Render(subject, sender, cleaned string) (string, string) {
	p.mu.RLock()
	system, user := p.system, p.user
	p.mu.RUnlock()

	if strings.Count(user, "%s") >= 3 {
		return system, fmt.Sprintf(user, subject, sender, cleaned)
	}
	return system, user + "\n\nSubject: " + subject + "\nSender: " + sender + "\n\n" + cleaned
}

// Current returns the active prompt texts for inspection.
func (p *PromptSet) Current() (string, string) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.system, p.user
}
