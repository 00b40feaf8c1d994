package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const maxResponseBytes = 1 << 20

// apiResponse is the common Telegram Bot API envelope.
type apiResponse struct {
	OK          bool            `json:"ok"`
	ErrorCode   int             `json:"error_code"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

type formDriver struct {
	cfg  Config
	http *http.Client
}

func (d *formDriver) endpoint(method string) string {
	return d.cfg.APIURL + "/bot" + d.cfg.Token + "/" + method
}

func (d *formDriver) deliver(ctx context.Context, chatID, text string) error {
	form := url.Values{}
	form.Set("chat_id", chatID)
	form.Set("text", text)
	if d.cfg.ParseMode != ModeNone {
		form.Set("parse_mode", d.cfg.ParseMode)
	}
	if d.cfg.DisablePreview {
		form.Set("disable_web_page_preview", "true")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint("sendMessage"), strings.NewReader(form.Encode()))
	if err != nil {
		return &DeliveryError{Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	_, err = d.do(req)
	return err
}

func (d *formDriver) getMe(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.endpoint("getMe"), nil)
	if err != nil {
		return "", &DeliveryError{Err: err}
	}
	raw, err := d.do(req)
	if err != nil {
		return "", err
	}
	var me struct {
		Username string `json:"username"`
	}
	if err := json.Unmarshal(raw, &me); err != nil {
		return "", &DeliveryError{Err: fmt.Errorf("decode getMe result: %w", err)}
	}
	return me.Username, nil
}

// do executes req and returns the result of a successful envelope.
func (d *formDriver) do(req *http.Request) (json.RawMessage, error) {
	resp, err := d.http.Do(req)
	if err != nil {
		return nil, &DeliveryError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &DeliveryError{StatusCode: resp.StatusCode, Err: err}
	}

	var out apiResponse
	decErr := json.Unmarshal(body, &out)

	if resp.StatusCode/100 != 2 || !out.OK {
		de := &DeliveryError{StatusCode: resp.StatusCode, Description: out.Description}
		switch {
		case decErr != nil:
			de.Err = fmt.Errorf("decode response: %w", decErr)
		case out.ErrorCode != 0:
			de.Err = fmt.Errorf("error_code=%d", out.ErrorCode)
		default:
			de.Err = errors.New("ok=false")
		}
		return nil, de
	}
	return out.Result, nil
}
