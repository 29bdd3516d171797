package channel

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/akravchenko/alertmap/internal/config"
	"github.com/akravchenko/alertmap/internal/models"
	"github.com/akravchenko/alertmap/internal/worker"
)

// Listener long-polls the Telegram Bot API for posts in the configured
// channel and submits their text to the pipeline queue. Poll failures are
// logged and retried on the next cycle; the listener itself never stops on
// them.
type Listener struct {
	baseURL     string
	token       string
	channel     string
	pollTimeout time.Duration
	client      *http.Client
	pool        *worker.Pool
	offset      int64
	wg          sync.WaitGroup
}

func NewListener(cfg config.TelegramConfig, pool *worker.Pool) *Listener {
	return &Listener{
		baseURL:     strings.TrimRight(cfg.APIBaseURL, "/"),
		token:       cfg.BotToken,
		channel:     strings.TrimPrefix(cfg.Channel, "@"),
		pollTimeout: cfg.PollTimeout,
		client: &http.Client{
			// Must outlive the server-side long-poll hold.
			Timeout: cfg.PollTimeout + 10*time.Second,
		},
		pool: pool,
	}
}

func (l *Listener) Start(ctx context.Context) {
	l.wg.Add(1)
	go l.run(ctx)
}

func (l *Listener) run(ctx context.Context) {
	defer l.wg.Done()
	slog.Info("channel listener started", "channel", l.channel)

	for {
		select {
		case <-ctx.Done():
			slog.Info("channel listener shutting down")
			return
		default:
		}

		if err := l.poll(ctx); err != nil {
			if ctx.Err() != nil {
				continue
			}
			slog.Error("channel poll failed", "error", err)
			select {
			case <-ctx.Done():
			case <-time.After(5 * time.Second):
			}
		}
	}
}

type updatesResponse struct {
	OK     bool     `json:"ok"`
	Result []update `json:"result"`
}

type update struct {
	UpdateID    int64        `json:"update_id"`
	ChannelPost *channelPost `json:"channel_post"`
}

type channelPost struct {
	Text string `json:"text"`
	Chat chat   `json:"chat"`
}

type chat struct {
	Username string `json:"username"`
}

func (l *Listener) poll(ctx context.Context) error {
	params := url.Values{
		"timeout":         {strconv.Itoa(int(l.pollTimeout.Seconds()))},
		"allowed_updates": {`["channel_post"]`},
	}
	if l.offset > 0 {
		params.Set("offset", strconv.FormatInt(l.offset, 10))
	}

	endpoint := fmt.Sprintf("%s/bot%s/getUpdates?%s", l.baseURL, l.token, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return fmt.Errorf("error while doing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d - status: %s", resp.StatusCode, resp.Status)
	}

	var data updatesResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return fmt.Errorf("error decoding resp.Body: %w", err)
	}
	if !data.OK {
		return fmt.Errorf("telegram API returned ok=false")
	}

	for _, u := range data.Result {
		if u.UpdateID >= l.offset {
			l.offset = u.UpdateID + 1
		}

		post := u.ChannelPost
		if post == nil || post.Text == "" {
			continue
		}
		if !strings.EqualFold(post.Chat.Username, l.channel) {
			continue
		}

		l.pool.Submit(models.InboundMessage{Text: post.Text})
	}

	return nil
}

// Stop blocks until the poll loop has exited. Cancel the context first.
func (l *Listener) Stop() {
	l.wg.Wait()
}
