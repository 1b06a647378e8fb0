package config

const (
	defaultDataDir            = "~/.local/share/quill"
	defaultLogDir             = "~/.local/share/quill/logs"
	defaultAPIBind            = "127.0.0.1:7691"
	defaultMailPort           = 993
	defaultMailMailbox        = "INBOX"
	defaultLLMBaseURL         = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel           = "google/gemini-3-flash-preview"
	defaultLLMReferer         = "https://github.com/quill"
	defaultLLMTitle           = "Quill Gist Extractor"
	defaultLLMTimeoutSeconds  = 60
	defaultSystemPromptPath   = "~/.config/quill/prompts/system.txt"
	defaultUserPromptPath     = "~/.config/quill/prompts/user.txt"
	defaultNotesBaseURL       = "https://api.notion.com/v1"
	defaultNotesAPIVersion    = "2022-06-28"
	defaultNotesTimeout       = 30
	defaultContentHeading     = "Original Content"
	defaultRunIntervalMinutes = 30
	defaultFetchLimit         = 10
	defaultMinScore           = 30
	defaultMaxLinks           = 10
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultArchiveFormat      = "markdown"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Mail: Mail{
			Port:    defaultMailPort,
			Mailbox: defaultMailMailbox,
		},
		LLM: LLM{
			BaseURL:          defaultLLMBaseURL,
			Model:            defaultLLMModel,
			Referer:          defaultLLMReferer,
			Title:            defaultLLMTitle,
			TimeoutSeconds:   defaultLLMTimeoutSeconds,
			SystemPromptPath: defaultSystemPromptPath,
			UserPromptPath:   defaultUserPromptPath,
		},
		Notes: Notes{
			BaseURL:        defaultNotesBaseURL,
			APIVersion:     defaultNotesAPIVersion,
			TimeoutSeconds: defaultNotesTimeout,
			ContentHeading: defaultContentHeading,
		},
		Workflow: Workflow{
			RunIntervalMinutes: defaultRunIntervalMinutes,
			FetchLimit:         defaultFetchLimit,
			MinScore:           defaultMinScore,
			MaxLinks:           defaultMaxLinks,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Archive: Archive{
			Dir:    defaultArchiveDir(),
			Format: defaultArchiveFormat,
		},
	}
}
