package telegram

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"

	"github.com/ytget/playlist-bot/internal/messages"
	"github.com/ytget/playlist-bot/internal/metrics"
	"github.com/ytget/playlist-bot/internal/model"
	"github.com/ytget/playlist-bot/internal/pipeline"
	"github.com/ytget/playlist-bot/internal/platform"
)

// Poll backoff bounds
const (
	PollBackoffBase = time.Second
	PollBackoffMax  = 30 * time.Second
)

// Commands
const (
	CommandStart = "/start"
	CommandHelp  = "/help"
)

// Runner executes one playlist run
type Runner interface {
	Run(ctx context.Context, reference string, progress pipeline.ProgressSink, delivery pipeline.DeliverySink) model.RunSummary
}

// Bot serves chats: at most one run per chat and at most maxRuns overall
type Bot struct {
	log      zerolog.Logger
	client   *Client
	runner   Runner
	messages *messages.Catalog
	slots    chan struct{}

	mu     sync.Mutex
	active map[int64]bool
	wg     sync.WaitGroup
}

// NewBot creates a bot
func NewBot(log zerolog.Logger, client *Client, runner Runner, catalog *messages.Catalog, maxRuns int) *Bot {
	if maxRuns < 1 {
		maxRuns = 1
	}
	if catalog == nil {
		catalog = messages.NewCatalog(messages.DefaultLanguage)
	}
	return &Bot{
		log:      log.With().Str("component", "bot").Logger(),
		client:   client,
		runner:   runner,
		messages: catalog,
		slots:    make(chan struct{}, maxRuns),
		active:   make(map[int64]bool),
	}
}

// ActiveRuns returns the number of runs in progress
func (b *Bot) ActiveRuns() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.active)
}

// Run polls for updates until ctx is cancelled, then waits for the runs in
// progress to stop
func (b *Bot) Run(ctx context.Context) error {
	b.log.Info().Msg("bot started")
	defer b.wg.Wait()

	offset := 0
	for {
		updates, err := b.poll(ctx, offset)
		if err != nil {
			if ctx.Err() != nil {
				b.log.Info().Msg("bot stopping")
				return nil
			}
			return err
		}

		for _, upd := range updates {
			if upd.UpdateID >= offset {
				offset = upd.UpdateID + 1
			}
			if upd.Message != nil {
				b.HandleMessage(ctx, upd.Message)
			}
		}
	}
}

// poll fetches the next batch of updates, backing off while the API fails
func (b *Bot) poll(ctx context.Context, offset int) ([]Update, error) {
	var updates []Update
	backoff := retry.WithCappedDuration(PollBackoffMax, retry.NewExponential(PollBackoffBase))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var err error
		updates, err = b.client.GetUpdates(ctx, offset)
		if err != nil {
			if ctx.Err() != nil {
				return err
			}
			b.log.Warn().Err(err).Msg("getUpdates failed")
			return retry.RetryableError(err)
		}
		return nil
	})
	return updates, err
}

// HandleMessage reacts to one chat message
func (b *Bot) HandleMessage(ctx context.Context, msg *Message) {
	chatID := msg.Chat.ID
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}

	switch command(text) {
	case CommandStart:
		name := ""
		if msg.From != nil {
			name = msg.From.FirstName
		}
		b.reply(ctx, chatID, b.messages.Format(messages.KeyGreeting, name))
		return
	case CommandHelp:
		b.reply(ctx, chatID, b.messages.Text(messages.KeyHelp))
		return
	}

	if !platform.ContainsPlaylistLink(text) {
		b.reply(ctx, chatID, b.messages.Text(messages.KeyNotAPlaylist))
		return
	}
	b.startRun(ctx, chatID, platform.ExtractLink(text))
}

// startRun launches a run for chatID unless the chat or the bot is busy
func (b *Bot) startRun(ctx context.Context, chatID int64, link string) {
	b.mu.Lock()
	if b.active[chatID] {
		b.mu.Unlock()
		metrics.ChatsRejectedTotal.WithLabelValues("chat_busy").Inc()
		b.reply(ctx, chatID, b.messages.Text(messages.KeyBusy))
		return
	}
	select {
	case b.slots <- struct{}{}:
	default:
		b.mu.Unlock()
		metrics.ChatsRejectedTotal.WithLabelValues("server_busy").Inc()
		b.reply(ctx, chatID, b.messages.Text(messages.KeyServerBusy))
		return
	}
	b.active[chatID] = true
	b.wg.Add(1)
	b.mu.Unlock()

	log := b.log.With().Int64("chat_id", chatID).Logger()
	log.Info().Str("link", link).Msg("playlist requested")

	go func() {
		defer func() {
			b.mu.Lock()
			delete(b.active, chatID)
			b.mu.Unlock()
			<-b.slots
			b.wg.Done()
		}()

		b.reply(ctx, chatID, b.messages.Text(messages.KeyLinkReceived))

		progress := pipeline.ProgressFunc(func(ctx context.Context, message string) error {
			return b.client.SendMessage(ctx, chatID, message)
		})
		delivery := pipeline.DeliveryFunc(func(ctx context.Context, artifact model.AudioArtifact) error {
			return b.client.SendAudio(ctx, chatID, artifact.Path, artifact.DisplayName)
		})
		summary := b.runner.Run(ctx, link, progress, delivery)

		log.Info().
			Str("run_id", summary.RunID).
			Int("delivered", summary.Delivered).
			Int("failed", summary.Failed()).
			Msg("playlist request finished")
	}()
}

func (b *Bot) reply(ctx context.Context, chatID int64, text string) {
	if err := b.client.SendMessage(ctx, chatID, text); err != nil {
		b.log.Warn().Err(err).Int64("chat_id", chatID).Msg("failed to send message")
	}
}

// command returns the bot command of text without any "@botname" suffix,
// or "" when text is not a command
func command(text string) string {
	if !strings.HasPrefix(text, "/") {
		return ""
	}
	cmd, _, _ := strings.Cut(strings.Fields(text)[0], "@")
	return strings.ToLower(cmd)
}
