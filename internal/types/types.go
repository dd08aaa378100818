package types

import "time"

// Post is one forum post with its curated top comments, as written by
// `reelforge fetch` and read back by `reelforge render`.
type Post struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Score          int       `json:"score"`
	URL            string    `json:"url,omitempty"`
	Permalink      string    `json:"permalink,omitempty"`
	CreatedUTC     string    `json:"created_utc,omitempty"`
	TitleAudioFile string    `json:"title_audio_file,omitempty"`
	TopComments    []Comment `json:"top_comments"`
}

type Comment struct {
	ID            string   `json:"id"`
	Author        string   `json:"author"`
	Body          string   `json:"body"`
	Score         int      `json:"score"`
	CreatedUTC    string   `json:"created_utc,omitempty"`
	AudioFile     string   `json:"audio_file,omitempty"`
	AudioDuration *float64 `json:"audio_duration,omitempty"`
}

type ForumQuery struct {
	Subreddit       string
	PostsLimit      int
	MinPostScore    int
	CommentsPerPost int
	MinCommentScore int
	Window          time.Duration
}

type ItemKind int

const (
	KindIntro ItemKind = iota
	KindTitle
	KindAuthorTag
	KindNarration
)

func (k ItemKind) String() string {
	switch k {
	case KindIntro:
		return "intro"
	case KindTitle:
		return "title"
	case KindAuthorTag:
		return "author tag"
	case KindNarration:
		return "narration"
	default:
		return "unknown"
	}
}

// Audio is a synthesized clip. Duration is in seconds.
type Audio struct {
	Path     string
	Duration float64
}

func (a Audio) Resolved() bool { return a.Path != "" }

// Item is one narrated unit on the timeline.
type Item struct {
	Kind  ItemKind
	Text  string
	Audio Audio
}

// Cue is a timed caption. Start and End are seconds on the output timeline.
type Cue struct {
	Text  string
	Start float64
	End   float64
}

// Placement positions one audio clip on the output timeline.
type Placement struct {
	Path     string
	Start    float64
	Duration float64
}

type Voice struct {
	Engine string  `json:"engine"`
	Name   string  `json:"name"`
	Lang   string  `json:"lang"`
	Speed  float64 `json:"speed"`
}

type RenderRequest struct {
	Background       string
	BackgroundOffset time.Duration
	Audio            string
	Subtitles        string
	Duration         time.Duration
	Output           string
}

type VideoMetadata struct {
	Title         string   `json:"title"`
	TitleKeywords []string `json:"title_keywords"`
	Tags          []string `json:"tags"`
	Description   string   `json:"description"`
}

type PublishOptions struct {
	Category string
	Privacy  string
}

// VideoRecord is one row of the story metadata table.
type VideoRecord struct {
	RequestID    string      `json:"request_id"`
	Title        string      `json:"title"`
	Content      string      `json:"content"`
	Duration     float64     `json:"duration"`
	CreatedAt    time.Time   `json:"created_at"`
	FullVideoKey string      `json:"full_video_key"`
	Parts        []VideoPart `json:"parts"`
}

type VideoPart struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

type Manifest struct {
	Input          string         `json:"input"`
	Video          string         `json:"video"`
	Subtitles      string         `json:"subtitles"`
	SubtitlesSRT   string         `json:"subtitles_srt"`
	Background     string         `json:"background"`
	TargetSec      float64        `json:"target_sec"`
	MaxDurationSec float64        `json:"max_duration_sec"`
	DurationSec    float64        `json:"duration_sec"`
	SpeedFactor    float64        `json:"speed_factor"`
	Posts          []ManifestPost `json:"posts"`
	Metadata       *VideoMetadata `json:"metadata,omitempty"`
	VideoID        string         `json:"video_id,omitempty"`
}

type ManifestPost struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Comments []string `json:"comments"`
}
