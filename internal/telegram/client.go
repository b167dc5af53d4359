package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/ytget/playlist-bot/internal/metrics"
)

// Bot API defaults
const (
	DefaultAPIBase     = "https://api.telegram.org"
	DefaultPollTimeout = 30 * time.Second
	// MaxUploadBytes is the Bot API limit for files sent by bots
	MaxUploadBytes = 50 * 1024 * 1024
)

// ErrFileTooLarge is returned when an artifact exceeds MaxUploadBytes
var ErrFileTooLarge = errors.New("file exceeds telegram upload limit")

// APIError is an error reported by the Bot API itself
type APIError struct {
	Method      string
	Code        int
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram %s error %d: %s", e.Method, e.Code, e.Description)
}

// Client wraps the Bot API methods the bot uses
type Client struct {
	log         zerolog.Logger
	api         *tgbotapi.BotAPI
	apiBase     string
	pollTimeout time.Duration
	maxUpload   int64
}

// ClientOption customizes a Client
type ClientOption func(*Client)

// WithAPIBase points the client at another Bot API server
func WithAPIBase(base string) ClientOption {
	return func(c *Client) { c.apiBase = strings.TrimRight(base, "/") }
}

// WithPollTimeout sets the long polling timeout of getUpdates
func WithPollTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) { c.pollTimeout = timeout }
}

// WithMaxUpload sets the largest file SendAudio accepts
func WithMaxUpload(n int64) ClientOption {
	return func(c *Client) { c.maxUpload = n }
}

// NewClient creates a client for token and checks it with getMe
func NewClient(log zerolog.Logger, token string, opts ...ClientOption) (*Client, error) {
	c := &Client{
		log:         log.With().Str("component", "telegram").Logger(),
		apiBase:     DefaultAPIBase,
		pollTimeout: DefaultPollTimeout,
		maxUpload:   MaxUploadBytes,
	}
	for _, opt := range opts {
		opt(c)
	}

	// Leave room for the long poll on top of the server-side timeout
	httpClient := &instrumentedClient{http: &http.Client{Timeout: c.pollTimeout + 30*time.Second}}
	api, err := tgbotapi.NewBotAPIWithClient(token, c.apiBase+"/bot%s/%s", httpClient)
	if err != nil {
		return nil, fmt.Errorf("failed to authorize bot: %w", apiError("getMe", err))
	}
	c.api = api
	c.log.Info().Str("bot", api.Self.UserName).Msg("authorized on telegram")
	return c, nil
}

// GetUpdates long-polls for updates with IDs from offset on. When ctx is
// cancelled it returns at once; the abandoned request ends with the poll
// timeout and its updates are fetched again from the same offset.
func (c *Client) GetUpdates(ctx context.Context, offset int) ([]Update, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cfg :=tgbotapi.NewUpdate(offset)
	cfg.Timeout = int(c.pollTimeout.Seconds())
	cfg.AllowedUpdates = []string{"message"}

	type result struct {
		updates []tgbotapi.Update
		err     error
	}
	done := make(chan result, 1)
	go func() {
		updates, err := c.api.GetUpdates(cfg)
		done <- result{updates: updates, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-done:
		if res.err != nil {
			return nil, apiError("getUpdates", res.err)
		}
		return fromUpdates(res.updates), nil
	}
}

// SendMessage posts text to chatID
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := c.api.Send(tgbotapi.NewMessage(chatID, text))
	return apiError("sendMessage", err)
}

// SendAudio uploads the file at path as an audio message titled title. The
// file is streamed from disk, never held in memory as a whole.
func (c *Client) SendAudio(ctx context.Context, chatID int64, path, title string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.Size() > c.maxUpload {
		return fmt.Errorf("%w: %s is %d bytes", ErrFileTooLarge, info.Name(), info.Size())
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	audio := tgbotapi.NewAudio(chatID, tgbotapi.FilePath(path))
	audio.Title = title
	_, err = c.api.Send(audio)
	return apiError("sendAudio", err)
}

// apiError maps errors of the Bot API library to APIError
func apiError(method string, err error) error {
	if err == nil {
		return nil
	}
	var tgErr *tgbotapi.Error
	if errors.As(err, &tgErr) {
		return &APIError{Method: method, Code: tgErr.Code, Description: tgErr.Message}
	}
	return fmt.Errorf("telegram %s failed: %w", method, err)
}

func fromUpdates(in []tgbotapi.Update) []Update {
	out := make([]Update, 0, len(in))
	for _, u := range in {
		upd := Update{UpdateID: u.UpdateID}
		if m := u.Message; m != nil && m.Chat != nil {
			upd.Message = &Message{
				MessageID: m.MessageID,
				Chat:      Chat{ID: m.Chat.ID, Type: m.Chat.Type},
				Text:      m.Text,
			}
			if m.From != nil {
				upd.Message.From = &User{ID: m.From.ID, FirstName: m.From.FirstName, Username: m.From.UserName}
			}
		}
		out = append(out, upd)
	}
	return out
}

// instrumentedClient records request metrics and keeps the token, which is
// part of every request URL, out of errors
type instrumentedClient struct {
	http *http.Client
}

func (c *instrumentedClient) Do(req *http.Request) (*http.Response, error) {
	method := path.Base(req.URL.Path)
	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.TelegramRequestDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.TelegramRequestsTotal.WithLabelValues(method, "error").Inc()
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return nil, err
	}

	status := "ok"
	if resp.StatusCode >= http.StatusBadRequest {
		status = "error"
	}
	metrics.TelegramRequestsTotal.WithLabelValues(method, status).Inc()
	return resp, nil
}
