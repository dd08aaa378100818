package config

const (
	defaultSubreddit       = "AskReddit"
	defaultUserAgent       = "reelforge/1.0"
	defaultKokoroVoice     = "af_bella"
	defaultEspeakVoice     = "en-us"
	defaultLLMModel        = "z-ai/glm-4.5-air:free"
	defaultLLMBaseURL      = "https://openrouter.ai"
	defaultYouTubeCategory = "24"
	defaultYouTubePrivacy  = "public"
	defaultServerBind      = ":8000"
)

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:       "data",
			OutDir:        "out",
			CacheDir:      ".cache",
			BackgroundDir: "backgrounds",
			DBPath:        ".cache/reelforge.db",
		},
		Reddit: Reddit{
			UserAgent:       defaultUserAgent,
			Subreddit:       defaultSubreddit,
			PostsLimit:      10,
			MinPostScore:    50,
			CommentsPerPost: 5,
			MinCommentScore: 10,
			WindowHours:     24,
			PauseMillis:     1000,
		},
		TTS: TTS{
			Engine: "espeak",
			Lang:   "en-us",
			Speed:  1.0,
		},
		Timeline: Timeline{
			GapSeconds:      1.0,
			ChunkWords:      4,
			TargetSeconds:   70,
			FallbackSeconds: 70,
			IntroText:       "Reddit Asks",
			AuthorTag:       "User says",
		},
		Render: Render{
			FFmpegPath:  "ffmpeg",
			FFprobePath: "ffprobe",
			SpeedFactor: 1.10,
			PartSeconds: 120,
		},
		LLM: LLM{
			Model:   defaultLLMModel,
			BaseURL: defaultLLMBaseURL,
		},
		YouTube: YouTube{
			ClientSecretsFile: "client_secrets.json",
			TokenFile:         ".cache/youtube_token.json",
			Category:          defaultYouTubeCategory,
			Privacy:           defaultYouTubePrivacy,
		},
		Storage: Storage{
			SignedURLTTLMinute: 60,
		},
		Server: Server{
			Bind: defaultServerBind,
		},
		Logging: Logging{
			Level:  "info",
			Format: "text",
		},
	}
}
