package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	tele "gopkg.in/telebot.v4"
)

// chatRecipient addresses a chat by id or @username.
type chatRecipient string

func (c chatRecipient) Recipient() string { return string(c) }

type telebotDriver struct {
	cfg Config
	bot *tele.Bot
}

func newTelebotDriver(cfg Config, hc *http.Client) (*telebotDriver, error) {
	b, err := tele.NewBot(tele.Settings{
		URL:     cfg.APIURL,
		Token:   cfg.Token,
		Client:  hc,
		Offline: true,
	})
	if err != nil {
		return nil, fmt.Errorf("telebot: %w", err)
	}
	return &telebotDriver{cfg: cfg, bot: b}, nil
}

func (d *telebotDriver) deliver(ctx context.Context, chatID, text string) error {
	opt := &tele.SendOptions{DisableWebPagePreview: d.cfg.DisablePreview}
	if d.cfg.ParseMode != ModeNone {
		opt.ParseMode = tele.ParseMode(d.cfg.ParseMode)
	}
	return d.call(ctx, func() error {
		_, err := d.bot.Send(chatRecipient(chatID), text, opt)
		return err
	})
}

func (d *telebotDriver) getMe(ctx context.Context) (string, error) {
	var raw []byte
	err := d.call(ctx, func() error {
		var err error
		raw, err = d.bot.Raw("getMe", nil)
		return err
	})
	if err != nil {
		return "", err
	}
	var out struct {
		Result struct {
			Username string `json:"username"`
		} `json:"result"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", &DeliveryError{Err: fmt.Errorf("decode getMe result: %w", err)}
	}
	return out.Result.Username, nil
}

// call runs fn, giving up when ctx is done. telebot calls are not context aware;
// the http client timeout bounds the abandoned call.
func (d *telebotDriver) call(ctx context.Context, fn func() error) error {
	done := make(chan error, 1)
	go func() { done <- fn() }()

	select {
	case err := <-done:
		if err == nil {
			return nil
		}
		de := &DeliveryError{Err: err}
		var te *tele.Error
		if errors.As(err, &te) {
			de.StatusCode = te.Code
			de.Description = te.Description
		}
		return de
	case <-ctx.Done():
		return &DeliveryError{Err: ctx.Err()}
	}
}
