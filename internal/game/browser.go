package game

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultGameURL is the public HackMerlin instance.
const DefaultGameURL = "https://hackmerlin.io/"

// replyPoll is how often the driver re-reads the page while waiting for
// Merlin's answer to render.
const replyPoll = 500 * time.Millisecond

// BrowserConfig holds browser channel configuration.
type BrowserConfig struct {
	URL      string
	Headless bool
	// AskTimeout bounds one question round-trip when the caller's context
	// carries no deadline of its own.
	AskTimeout time.Duration
}

// Browser drives the HackMerlin page through a rod-controlled Chromium.
type Browser struct {
	id       string
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
	cfg      BrowserConfig
	log      *zap.Logger
}

// NewBrowser launches a browser, opens the game page and waits for it to
// load.
func NewBrowser(cfg BrowserConfig, log *zap.Logger) (*Browser, error) {
	if cfg.URL == "" {
		cfg.URL = DefaultGameURL
	}
	if cfg.AskTimeout <= 0 {
		cfg.AskTimeout = 30 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}

	l := launcher.New().Headless(cfg.Headless)
	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		l.Cleanup()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	page, err := b.Page(proto.TargetCreateTarget{URL: cfg.URL})
	if err != nil {
		_ = b.Close()
		l.Cleanup()
		return nil, fmt.Errorf("failed to open game page: %w", err)
	}
	if err := page.Timeout(30 * time.Second).WaitLoad(); err != nil {
		_ = b.Close()
		l.Cleanup()
		return nil, fmt.Errorf("game page did not load: %w", err)
	}

	ch := &Browser{
		id:       uuid.NewString(),
		launcher: l,
		browser:  b,
		page:     page,
		cfg:      cfg,
		log:      log,
	}
	log.Info("browser channel ready",
		zap.String("session", ch.id), zap.String("url", cfg.URL))
	return ch, nil
}

// Ask types the question into Merlin's prompt box, submits it, and waits for
// the reply blockquote to change.
func (c *Browser) Ask(ctx context.Context, question string) (string, error) {
	ctx, cancel := c.withDeadline(ctx)
	defer cancel()
	page := c.page.Context(ctx)

	before := c.readReply(page)

	box, err := page.Element("textarea")
	if err != nil {
		return "", fmt.Errorf("question box not found: %w", err)
	}
	if err := box.SelectAllText(); err != nil {
		return "", fmt.Errorf("failed to focus question box: %w", err)
	}
	if err := box.Input(question); err != nil {
		return "", fmt.Errorf("failed to type question: %w", err)
	}
	if err := c.clickButton(page, `(?i)^ask`); err != nil {
		return "", err
	}

	reply, err := c.waitReplyChange(ctx, page, before)
	if err != nil {
		return "", err
	}
	c.log.Debug("merlin replied",
		zap.String("session", c.id), zap.String("reply", reply))
	return reply, nil
}

// SubmitGuess types the word into the password field and reports the
// verdict: a synthesized confirmation when the level counter advances,
// otherwise Merlin's textual reaction.
func (c *Browser) SubmitGuess(ctx context.Context, word string) (string, error) {
	ctx, cancel := c.withDeadline(ctx)
	defer cancel()
	page := c.page.Context(ctx)

	levelBefore := c.readLevel(page)
	replyBefore := c.readReply(page)

	field, err := page.Element("input")
	if err != nil {
		return "", fmt.Errorf("password field not found: %w", err)
	}
	if err := field.SelectAllText(); err != nil {
		return "", fmt.Errorf("failed to focus password field: %w", err)
	}
	if err := field.Input(strings.ToUpper(word)); err != nil {
		return "", fmt.Errorf("failed to type password: %w", err)
	}
	if err := c.clickButton(page, `(?i)^submit`); err != nil {
		return "", err
	}

	ticker := time.NewTicker(replyPoll)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("%w: no verdict for guess %q", ErrTimeout, word)
		case <-ticker.C:
			if lvl := c.readLevel(page); lvl > levelBefore {
				return fmt.Sprintf("Correct! Advancing to level %d.", lvl), nil
			}
			if reply := c.readReply(page); reply != "" && reply != replyBefore {
				return reply, nil
			}
		}
	}
}

// Close shuts down the page, browser and launcher.
func (c *Browser) Close() error {
	var errs []error
	if c.page != nil {
		errs = append(errs, c.page.Close())
	}
	if c.browser != nil {
		errs = append(errs, c.browser.Close())
	}
	if c.launcher != nil {
		c.launcher.Cleanup()
	}
	return errors.Join(errs...)
}

func (c *Browser) withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.cfg.AskTimeout)
}

func (c *Browser) clickButton(page *rod.Page, textPattern string) error {
	btn, err := page.ElementR("button", textPattern)
	if err != nil {
		// Mantine renders the primary action as the form's submit button.
		btn, err = page.Element(`button[type="submit"]`)
		if err != nil {
			return fmt.Errorf("submit button not found: %w", err)
		}
	}
	if err := btn.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("failed to click button: %w", err)
	}
	return nil
}

// readReply returns the current text of Merlin's reply blockquote, or ""
// when it is not present yet.
func (c *Browser) readReply(page *rod.Page) string {
	el, err := page.Timeout(2 * time.Second).Element("blockquote")
	if err != nil {
		return ""
	}
	text, err := el.Text()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}

var levelRe = regexp.MustCompile(`(?i)level\s+(\d+)`)

// readLevel scrapes the level counter from the page header; 0 when absent.
func (c *Browser) readLevel(page *rod.Page) int {
	el, err := page.Timeout(2 * time.Second).ElementR("h1, h2, h3, span", `(?i)level\s+\d+`)
	if err != nil {
		return 0
	}
	text, err := el.Text()
	if err != nil {
		return 0
	}
	m := levelRe.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}

// waitReplyChange polls until the reply text changes from before.
func (c *Browser) waitReplyChange(ctx context.Context, page *rod.Page, before string) (string, error) {
	ticker := time.NewTicker(replyPoll)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("%w: no reply from merlin", ErrTimeout)
		case <-ticker.C:
			if reply := c.readReply(page); reply != "" && reply != before {
				return reply, nil
			}
		}
	}
}
