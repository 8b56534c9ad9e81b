package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"page-analyzer/api/internal/analysis"
	"page-analyzer/api/internal/config"
	"page-analyzer/api/internal/handle"
	"page-analyzer/api/internal/ocrclient"
)

// The bot is a thin client for the analyzer API: photo in, OCR via
// Yandex Vision, one POST to /v1/analyze, a readable exercise list back.

type client struct {
	bot    *tgbotapi.BotAPI
	ocr    *ocrclient.Client
	httpc  *http.Client
	apiURL string
	secret string
}

func main() {
	cfg := config.Load().MustBot()

	bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		log.Fatal(err)
	}
	bot.Debug = false

	c := &client{
		bot:    bot,
		ocr:    ocrclient.New(cfg.YCOAuthToken, cfg.YCFolderID),
		httpc:  &http.Client{Timeout: 180 * time.Second},
		apiURL: strings.TrimRight(cfg.AnalyzerURL, "/"),
		secret: cfg.AttestSecret,
	}

	log.Printf("bot polling; analyzer at %s", c.apiURL)
	runPolling(context.Background(), bot, c.handleUpdate)
}

func (c *client) handleUpdate(upd tgbotapi.Update) {
	if upd.Message == nil {
		return
	}
	cid := upd.Message.Chat.ID

	if upd.Message.IsCommand() {
		switch upd.Message.Command() {
		case "start":
			c.send(cid, "Send me a photo of a homework page and I will split it into exercises.")
		default:
			c.send(cid, "Unknown command")
		}
		return
	}

	if len(upd.Message.Photo) == 0 {
		return
	}
	c.send(cid, "Got the photo, analyzing…")

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	ph := upd.Message.Photo[len(upd.Message.Photo)-1]
	img, err := c.downloadPhoto(ph.FileID)
	if err != nil {
		c.send(cid, "Could not fetch the photo: "+err.Error())
		return
	}

	fragments, err := c.ocr.Recognize(ctx, img, []string{"ru", "en"})
	if err != nil {
		c.send(cid, "OCR failed: "+err.Error())
		return
	}
	if len(fragments) == 0 {
		c.send(cid, "No text found on the photo.")
		return
	}

	env, err := c.analyze(ctx, img, fragments)
	if err != nil {
		c.send(cid, "Analysis failed: "+err.Error())
		return
	}
	c.send(cid, formatEnvelope(env))
}

func (c *client) downloadPhoto(fileID string) ([]byte, error) {
	tf, err := c.bot.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, err
	}
	url := fmt.Sprintf("https://api.telegram.org/file/bot%s/%s", c.bot.Token, tf.FilePath)
	resp, err := c.httpc.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, string(b))
	}
	return io.ReadAll(resp.Body)
}

func (c *client) analyze(ctx context.Context, img []byte, fragments []analysis.OCRFragment) (*analysis.AnalysisEnvelope, error) {
	body, _ := json.Marshal(map[string]any{
		"image":        base64.StdEncoding.EncodeToString(img),
		"ocrFragments": fragments,
	})
	req, err := http.NewRequestWithContext(ctx, "POST", c.apiURL+"/v1/analyze", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(handle.AttestHeader, c.secret)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("analyzer %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	var env analysis.AnalysisEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, err
	}
	return &env, nil
}

func formatEnvelope(env *analysis.AnalysisEnvelope) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Subject: %s (%s)\n", env.Routing.Subject, env.Routing.ContentType)
	if s := env.Analysis.LessonSummary; s != nil {
		fmt.Fprintf(&b, "\n📖 %s\n", s.Title)
		for _, kp := range s.KeyPoints {
			fmt.Fprintf(&b, "• %s\n", kp.Text)
		}
	}
	for _, ex := range env.Analysis.Exercises {
		fmt.Fprintf(&b, "\n%s. %s\n", ex.Number, ex.QuestionText)
		fmt.Fprintf(&b, "   answer via: %s", ex.InputType)
		if ex.Topic != "" {
			fmt.Fprintf(&b, " | topic: %s", ex.Topic)
		}
		b.WriteString("\n")
	}
	if n := env.Metadata.ExcludedExercises; n > 0 {
		fmt.Fprintf(&b, "\n⚠️ %d exercise(s) could not be read.\n", n)
	}
	out := b.String()
	if len(out) > 3900 {
		out = out[:3900] + "…"
	}
	return out
}

func (c *client) send(chatID int64, text string) {
	_, _ = c.bot.Send(tgbotapi.NewMessage(chatID, text))
}

// ---------------- Polling loop -----------------

var reRetryAfter = regexp.MustCompile(`(?i)retry after\s+(\d+)`)

func retryDelayFromError(err error) time.Duration {
	if err == nil {
		return 0
	}
	s := strings.ToLower(err.Error())
	if strings.Contains(s, "too many requests") { // HTTP 429 from Telegram
		if m := reRetryAfter.FindStringSubmatch(s); len(m) == 2 {
			if n, _ := strconv.Atoi(m[1]); n > 0 {
				return time.Duration(n) * time.Second
			}
		}
		return 3 * time.Second
	}
	var ne net.Error
	if errors.As(err, &ne) {
		if ne.Timeout() {
			return 2 * time.Second
		}
	}
	return 1 * time.Second
}

func runPolling(ctx context.Context, bot *tgbotapi.BotAPI, handleUpd func(tgbotapi.Update)) {
	offset := 0
	baseDelay := 1 * time.Second
	maxDelay := 15 * time.Second

	for {
		select {
		case <-ctx.Done():
			log.Printf("polling: context cancelled")
			return
		default:
		}

		u := tgbotapi.NewUpdate(offset)
		u.Timeout = 30 // long polling timeout (sec)

		updates, err := bot.GetUpdates(u)
		if err != nil {
			d := retryDelayFromError(err)
			if d < baseDelay {
				d = baseDelay
			}
			if d > maxDelay {
				d = maxDelay
			}
			log.Printf("polling error: %v; retry in %v", err, d)
			time.Sleep(d)
			continue
		}

		for _, upd := range updates {
			if upd.UpdateID >= offset {
				offset = upd.UpdateID + 1
			}
			handleUpd(upd)
		}

		if len(updates) == 0 {
			time.Sleep(200 * time.Millisecond)
		}
	}
}
