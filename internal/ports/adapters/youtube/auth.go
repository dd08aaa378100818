package youtube

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	yt "google.golang.org/api/youtube/v3"
)

// authorizedClient returns an HTTP client for the upload scope. Without a
// saved token it runs the installed-app flow on prompt/input once and saves
// the token.
func authorizedClient(ctx context.Context, secretsFile, tokenFile string, prompt io.Writer, input io.Reader) (*http.Client, error) {
	secrets, err := os.ReadFile(secretsFile)
	if err != nil {
		return nil, fmt.Errorf("read client secrets: %w", err)
	}
	cfg, err := google.ConfigFromJSON(secrets, yt.YoutubeUploadScope)
	if err != nil {
		return nil, fmt.Errorf("parse client secrets: %w", err)
	}

	tok, err := loadToken(tokenFile)
	if err != nil {
		if prompt == nil || input == nil {
			return nil, fmt.Errorf("no saved youtube token at %s and no terminal to authorize", tokenFile)
		}
		tok, err = exchangeInteractively(ctx, cfg, prompt, input)
		if err != nil {
			return nil, err
		}
		if err := saveToken(tokenFile, tok); err != nil {
			return nil, err
		}
	}
	ts := &savingTokenSource{
		src:  cfg.TokenSource(ctx, tok),
		path: tokenFile,
		last: tok.AccessToken,
	}
	return oauth2.NewClient(ctx, ts), nil
}

func exchangeInteractively(ctx context.Context, cfg *oauth2.Config, prompt io.Writer, input io.Reader) (*oauth2.Token, error) {
	url := cfg.AuthCodeURL("state", oauth2.AccessTypeOffline)
	fmt.Fprintf(prompt, "Open this URL to authorize YouTube uploads:\n%s\nPaste the authorization code: ", url)
	code, err := bufio.NewReader(input).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read authorization code: %w", err)
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, errors.New("empty authorization code")
	}
	tok, err := cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}
	return tok, nil
}

func loadToken(path string) (*oauth2.Token, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var tok oauth2.Token
	if err := json.Unmarshal(b, &tok); err != nil {
		return nil, fmt.Errorf("parse token %s: %w", path, err)
	}
	return &tok, nil
}

func saveToken(path string, tok *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	b, err := json.Marshal(tok)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o600)
}

// savingTokenSource writes refreshed tokens back to disk.
type savingTokenSource struct {
	src  oauth2.TokenSource
	path string
	last string
}

func (s *savingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.src.Token()
	if err != nil {
		return nil, err
	}
	if tok.AccessToken != s.last {
		s.last = tok.AccessToken
		_ = saveToken(s.path, tok)
	}
	return tok, nil
}
