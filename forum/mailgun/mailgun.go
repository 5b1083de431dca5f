// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package mailgun is a forum backed by the Mailgun HTTP API.
//
// Outgoing mail is posted to /<domain>/messages with a plain-text and
// an HTML part. Incoming mail must be kept by a Mailgun "store"
// route; [Forum.Messages] lists the stored events in the window and
// downloads each message addressed to the game.
//
// Mailgun does not promise that a stored message shows up in the
// events API immediately, so the forum reports a [ReceiptLag] of 30
// seconds.
package mailgun

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/bureau-foundation/godfather/forum"
	"github.com/bureau-foundation/godfather/lib/netutil"
	"github.com/bureau-foundation/godfather/lib/secret"
	"github.com/bureau-foundation/godfather/rules"
)

// ReceiptLag is how long Mailgun may take to expose a stored message.
const ReceiptLag = 30 * time.Second

// APIKeyVariable is read when the configuration names no key file.
const APIKeyVariable = "GODFATHER_MAILGUN_API_KEY"

// pageLimit is the events page size; 300 is Mailgun's maximum.
const pageLimit = 300

// Config holds everything New needs.
type Config struct {
	forum.MailgunConfig

	// APIKey authenticates every request. The forum takes ownership
	// and closes it in Close.
	APIKey *secret.Buffer

	// HTTPClient defaults to a client with a one-minute timeout.
	HTTPClient *http.Client

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Forum sends and receives mail through Mailgun.
type Forum struct {
	config     forum.MailgunConfig
	apiKey     *secret.Buffer
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

var _ forum.Forum = (*Forum)(nil)

// LoadAPIKey reads the key from config.APIKeyFile, or from
// $GODFATHER_MAILGUN_API_KEY when no file is configured.
func LoadAPIKey(config forum.MailgunConfig) (*secret.Buffer, error) {
	if config.APIKeyFile != "" {
		key, err := secret.ReadFromPath(config.APIKeyFile)
		if err != nil {
			return nil, fmt.Errorf("mailgun: reading API key: %w", err)
		}
		return key, nil
	}
	key, err := secret.FromEnvironment(APIKeyVariable)
	if err != nil {
		return nil, fmt.Errorf("mailgun: no api_key_file configured: %w", err)
	}
	return key, nil
}

// New returns a Mailgun forum.
func New(config Config) (*Forum, error) {
	if config.APIKey == nil {
		return nil, errors.New("mailgun: APIKey is required")
	}
	if config.Domain == "" || config.Address == "" {
		return nil, errors.New("mailgun: domain and address are required")
	}
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = "https://api.mailgun.net/v3"
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("mailgun: invalid base URL %q: %w", baseURL, err)
	}
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: time.Minute}
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Forum{
		config:     config.MailgunConfig,
		apiKey:     config.APIKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// ReceiptLag implements forum.Forum.
func (f *Forum) ReceiptLag() time.Duration { return ReceiptLag }

// Close releases the API key.
func (f *Forum) Close() error {
	f.httpClient.CloseIdleConnections()
	return f.apiKey.Close()
}

// Send posts message. Broadcasts go to every player with the public CC
// list added; every message carries the private CC list.
func (f *Forum) Send(ctx context.Context, game rules.Game, message forum.Message) error {
	to := slices.Clone(message.To.Addresses)
	for _, player := range message.To.Resolve(game.Players()) {
		to = append(to, fmt.Sprintf("%s <%s>", player.Name, player.Address))
	}
	if len(to) == 0 {
		return forum.Failed("send", errors.New("message has no recipients"))
	}
	cc := slices.Clone(f.config.PrivateCC)
	if message.To.Public {
		cc = append(cc, f.config.PublicCC...)
	}

	form := url.Values{
		"from":    {fmt.Sprintf("%s <%s>", f.config.Sender, f.config.EmailAddress())},
		"to":      to,
		"subject": {message.Subject},
		"text":    {message.Body},
	}
	if len(cc) > 0 {
		form["cc"] = cc
	}
	if message.HTML != "" {
		form.Set("html", message.HTML)
	}

	request, err := f.newRequest(ctx, http.MethodPost, f.baseURL+"/"+f.config.Domain+"/messages", strings.NewReader(form.Encode()))
	if err != nil {
		return forum.Failed("send", err)
	}
	request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if _, err := f.do(request); err != nil {
		return forum.Failed("send", err)
	}
	f.logger.Info("mail sent", "to", strings.Join(to, ", "), "subject", message.Subject)
	return nil
}

type eventsPage struct {
	Items  []storedEvent `json:"items"`
	Paging struct {
		Next string `json:"next"`
	} `json:"paging"`
}

type storedEvent struct {
	ID        string  `json:"id"`
	Timestamp float64 `json:"timestamp"`
	Message   struct {
		Recipients []string `json:"recipients"`
	} `json:"message"`
	Storage struct {
		URL string `json:"url"`
	} `json:"storage"`
}

type storedMessage struct {
	Sender       string `json:"sender"`
	From         string `json:"From"`
	Subject      string `json:"subject"`
	StrippedText string `json:"stripped-text"`
	BodyPlain    string `json:"body-plain"`
}

// Messages lists the stored events in window and downloads every
// message addressed to the game. Events outside the half-open window
// are dropped even if Mailgun's inclusive bounds return them.
func (f *Forum) Messages(ctx context.Context, game rules.Game, window forum.Window) ([]forum.Inbound, error) {
	if window.Empty() {
		return nil, nil
	}
	f.logger.Debug("fetching mail", "window", window.String())

	query := url.Values{
		"event":     {"stored"},
		"begin":     {timestamp(window.From)},
		"end":       {timestamp(window.To)},
		"ascending": {"yes"},
		"limit":     {strconv.Itoa(pageLimit)},
	}
	next := f.baseURL + "/" + f.config.Domain + "/events?" + query.Encode()
	address := strings.ToLower(f.config.EmailAddress())

	var inbound []forum.Inbound
	for next != "" {
		var page eventsPage
		if err := f.getJSON(ctx, next, &page); err != nil {
			return nil, forum.Failed("fetch", err)
		}
		if len(page.Items) == 0 {
			break
		}
		for _, event := range page.Items {
			receivedAt := fromTimestamp(event.Timestamp)
			if !window.Contains(receivedAt) {
				continue
			}
			if !addressedTo(event.Message.Recipients, address) {
				f.logger.Debug("discarding mail for another address", "recipients", event.Message.Recipients)
				continue
			}
			var stored storedMessage
			if err := f.getJSON(ctx, event.Storage.URL, &stored); err != nil {
				return nil, forum.Failed("fetch", err)
			}
			inbound = append(inbound, stored.inbound(event.ID, receivedAt))
		}
		next = page.Paging.Next
	}
	slices.SortStableFunc(inbound, func(a, b forum.Inbound) int {
		return a.ReceivedAt.Compare(b.ReceivedAt)
	})
	return inbound, nil
}

func (m storedMessage) inbound(id string, receivedAt time.Time) forum.Inbound {
	sender := m.Sender
	if sender == "" {
		sender = m.From
	}
	body := m.StrippedText
	if strings.TrimSpace(body) == "" {
		body = m.BodyPlain
	}
	return forum.Inbound{
		ID:         id,
		From:       sender,
		Subject:    m.Subject,
		Body:       body,
		ReceivedAt: receivedAt,
	}
}

func addressedTo(recipients []string, address string) bool {
	for _, recipient := range recipients {
		if rules.NormalizeAddress(recipient) == address {
			return true
		}
	}
	return false
}

func (f *Forum) getJSON(ctx context.Context, requestURL string, v any) error {
	request, err := f.newRequest(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return err
	}
	body, err := f.do(request)
	if err != nil {
		return err
	}
	return netutil.DecodeResponse(bytes.NewReader(body), v)
}

func (f *Forum) newRequest(ctx context.Context, method, requestURL string, body io.Reader) (*http.Request, error) {
	request, err := http.NewRequestWithContext(ctx, method, requestURL, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	request.SetBasicAuth("api", f.apiKey.String())
	return request, nil
}

// do sends request and returns the body of a 2xx response.
func (f *Forum) do(request *http.Request) ([]byte, error) {
	response, err := f.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", request.Method, request.URL.Path, err)
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return nil, &StatusError{
			Method:     request.Method,
			Path:       request.URL.Path,
			StatusCode: response.StatusCode,
			Body:       netutil.ErrorBody(response.Body),
		}
	}
	body, err := netutil.ReadResponse(response.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s %s response: %w", request.Method, request.URL.Path, err)
	}
	return body, nil
}

// StatusError is a non-2xx response from the API.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("mailgun: %s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// timestamp formats t as fractional Unix seconds, the form Mailgun's
// begin and end parameters accept.
func timestamp(t time.Time) string {
	return strconv.FormatFloat(float64(t.UnixMicro())/1e6, 'f', 6, 64)
}

func fromTimestamp(seconds float64) time.Time {
	whole, fraction := math.Modf(seconds)
	return time.Unix(int64(whole), int64(math.Round(fraction*1e6))*1e3).UTC()
}
