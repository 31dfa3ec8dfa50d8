package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"bondradar-backend/lib/telemetry"
	"bondradar-backend/lib/timezone"
	"bondradar-backend/services/bonds"

	"github.com/shirou/gopsutil/v4/process"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = telemetry.Tracer("bondradar.services.telegram")

const (
	minCount = 1
	maxCount = 20
)

// Transport is the outward-facing message plumbing the bot loop runs on.
// The production implementation is Client; tests substitute a fake.
type Transport interface {
	DeleteWebhook(ctx context.Context, dropPending bool) error
	GetUpdates(ctx context.Context, offset int64) ([]Update, error)
	SendMessage(ctx context.Context, chatID int64, text string, htmlMarkup bool) error
}

type Options struct {
	// bonds shown by a bare /bonds and by the daily digest, defaults
	// to 5
	DefaultCount int
	// local hour (see lib/timezone) the digest goes out at, defaults
	// to 10
	DigestHour int
	// pause between digest sends to stay under API rate limits,
	// defaults to 500ms
	SendPause time.Duration
	// defaults to one second
	PollInterval time.Duration
	// defaults to timezone.Now
	Now func() time.Time
}

type Service struct {
	transport Transport
	bonds     *bonds.Service
	subs      *Subscribers
	config    Options

	startedAt    time.Time
	lastUpdateID int64
}

func NewService(transport Transport, bondsService *bonds.Service, subs *Subscribers, opts Options) *Service {
	if opts.DefaultCount == 0 {
		opts.DefaultCount = 5
	}
	if opts.DigestHour == 0 {
		opts.DigestHour = 10
	}
	if opts.SendPause == 0 {
		opts.SendPause = time.Millisecond * 500
	}
	if opts.PollInterval == 0 {
		opts.PollInterval = time.Second
	}
	if opts.Now == nil {
		opts.Now = timezone.Now
	}
	return &Service{
		transport: transport,
		bonds:     bondsService,
		subs:      subs,
		config:    opts,
		startedAt: opts.Now(),
	}
}

// Run drives the long-poll loop until the context is canceled. Nothing a
// single cycle does can terminate the loop, failures are logged and the
// next tick starts clean.
func (s *Service) Run(ctx context.Context) error {
	err := s.transport.DeleteWebhook(ctx, true)
	if err != nil {
		slog.ErrorContext(ctx, "failed to delete webhook", "err", err)
	}

	go s.digestDaemon(ctx)

	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.poll(ctx)
		}
	}
}

func (s *Service) poll(ctx context.Context) {
	updates, err := s.transport.GetUpdates(ctx, s.lastUpdateID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to get updates", "err", err)
		return
	}

	for _, update := range updates {
		s.lastUpdateID = update.UpdateID + 1
		if update.Message == nil || update.Message.Text == "" {
			continue
		}
		s.handleMessage(ctx, *update.Message)
	}
}

func (s *Service) handleMessage(ctx context.Context, msg Message) {
	ctx, span := tracer.Start(ctx, "handleMessage")
	defer span.End()

	fields := strings.Fields(msg.Text)
	if len(fields) == 0 {
		return
	}
	command := fields[0]
	// commands in group chats arrive as /bonds@botname
	if at := strings.Index(command, "@"); at > 0 {
		command = command[:at]
	}
	span.SetAttributes(attribute.String("command", command))

	switch command {
	case "/start":
		s.send(ctx, msg.Chat.ID, s.greeting(msg.From), false)
	case "/help":
		s.send(ctx, msg.Chat.ID, helpText, false)
	case "/subscribe":
		s.subs.Add(msg.Chat.ID)
		s.send(ctx, msg.Chat.ID,
			"✅ Subscribed to the daily bond digest!\n\n"+
				fmt.Sprintf("You will receive the top bonds by yield every day at %02d:00 MSK.", s.config.DigestHour),
			false)
	case "/unsubscribe":
		if s.subs.Remove(msg.Chat.ID) {
			s.send(ctx, msg.Chat.ID, "❌ Unsubscribed from the daily digest.", false)
		} else {
			s.send(ctx, msg.Chat.ID, "You were not subscribed.", false)
		}
	case "/status":
		s.send(ctx, msg.Chat.ID, s.statusText(), false)
	case "/bonds":
		s.handleBonds(ctx, msg.Chat.ID, fields)
	default:
		s.send(ctx, msg.Chat.ID, "Unknown command. Use /help for the list of available commands.", false)
	}
}

func (s *Service) handleBonds(ctx context.Context, chatID int64, fields []string) {
	count := s.config.DefaultCount
	if len(fields) > 1 {
		requested, err := strconv.Atoi(fields[1])
		if err == nil {
			count = clampCount(requested)
		}
	}

	s.send(ctx, chatID, fmt.Sprintf("Fetching the top %d bonds from smart-lab.ru...", count), false)

	top, err := s.bonds.Top(ctx, count)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load bonds", "chat_id", chatID, "err", err)
		s.send(ctx, chatID, "Could not load bond data, please try again later.", false)
		return
	}

	s.send(ctx, chatID, bonds.TelegramMessage(top), true)
}

// SendDigest pushes the ranked digest to every subscriber. A failing
// recipient is logged and skipped, the rest still get their copy.
func (s *Service) SendDigest(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "SendDigest")
	defer span.End()

	recipients := s.subs.Snapshot()
	if len(recipients) == 0 {
		slog.InfoContext(ctx, "no subscribers for the daily digest")
		return nil
	}

	top, err := s.bonds.Top(ctx, s.config.DefaultCount)
	if err != nil {
		return fmt.Errorf("daily digest: %w", err)
	}
	message := bonds.TelegramMessage(top)

	for _, chatID := range recipients {
		err := s.transport.SendMessage(ctx, chatID, message, true)
		if err != nil {
			slog.ErrorContext(ctx, "failed to send digest", "chat_id", chatID, "err", err)
			continue
		}
		slog.InfoContext(ctx, "sent daily digest", "chat_id", chatID)
		time.Sleep(s.config.SendPause)
	}
	return nil
}

func (s *Service) digestDaemon(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := s.config.Now()
			if now.Hour() != s.config.DigestHour || now.Minute() != 0 {
				continue
			}
			err := s.SendDigest(ctx)
			if err != nil {
				slog.ErrorContext(ctx, "daily digest failed", "err", err)
			}
		}
	}
}

func (s *Service) send(ctx context.Context, chatID int64, text string, htmlMarkup bool) {
	err := s.transport.SendMessage(ctx, chatID, text, htmlMarkup)
	if err != nil {
		slog.ErrorContext(ctx, "failed to send message", "chat_id", chatID, "err", err)
	}
}

const helpText = "Available commands:\n" +
	"/start - Start the bot\n" +
	"/help - Show this help\n" +
	"/bonds [n] - Top n bonds by yield to maturity (default 5)\n" +
	"/subscribe - Subscribe to the daily digest\n" +
	"/unsubscribe - Unsubscribe from the daily digest\n" +
	"/status - Bot status"

func (s *Service) greeting(from *User) string {
	name := "there"
	if from != nil && from.FirstName != "" {
		name = from.FirstName
	}
	return fmt.Sprintf("Hi %s! 👋\n\n", name) +
		"I track the bonds with the highest yield to maturity on smart-lab.ru.\n\n" +
		helpText
}

func (s *Service) statusText() string {
	uptime := s.config.Now().Sub(s.startedAt)
	hours := int(uptime.Hours())
	minutes := int(uptime.Minutes()) % 60
	seconds := int(uptime.Seconds()) % 60

	var b strings.Builder
	b.WriteString("✅ Bot is up and running\n\n")
	fmt.Fprintf(&b, "Uptime: %02d:%02d:%02d\n", hours, minutes, seconds)
	fmt.Fprintf(&b, "Subscribers: %d\n", s.subs.Count())

	if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if mem, err := proc.MemoryInfo(); err == nil {
			fmt.Fprintf(&b, "Memory: %.1f MB\n", float64(mem.RSS)/1024/1024)
		}
	}

	last, ok := s.bonds.LastRefresh()
	if ok {
		fmt.Fprintf(&b, "Last data refresh: %s", last.Format("2006-01-02 15:04:05"))
	} else {
		b.WriteString("No data loaded yet")
	}
	return b.String()
}

func clampCount(count int) int {
	if count < minCount {
		return minCount
	}
	if count > maxCount {
		return maxCount
	}
	return count
}
