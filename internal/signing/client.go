package signing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"multisign-server/config"
	"multisign-server/internal/model"

	"go.uber.org/zap"
)

const maxErrorBody = 1 << 10

type prepareRequest struct {
	PDF    string                 `json:"pdf"`
	Signer model.SignerAttributes `json:"signerAttributes"`
	IdP    string                 `json:"authnServiceID"`
}

type createRequest struct {
	Documents []model.PreparedDocument `json:"documents"`
	Authn     model.AuthnRequirements  `json:"authnRequirements"`
}

type processRequest struct {
	SignResponse string `json:"signResponse"`
	RelayState   string `json:"relayState"`
}

type processResponse struct {
	SignedDocuments []model.SignedDocument `json:"signedDocuments"`
}

// Client : HTTP-клиент внешнего сервиса электронной подписи
type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string, client *http.Client) *Client {
	if client == nil {
		client = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

// NewClientFromConfig : клиент с таймаутом из конфигурации
func NewClientFromConfig(cfg *config.SignAPIConfig) (*Client, error) {
	timeout := 30 * time.Second
	if cfg.Timeout != "" {
		parsed, err := time.ParseDuration(cfg.Timeout)
		if err != nil {
			return nil, fmt.Errorf("[SignAPI] неверный таймаут %q: %w", cfg.Timeout, err)
		}
		timeout = parsed
	}
	return NewClient(cfg.URL, &http.Client{Timeout: timeout}), nil
}

func (c *Client) Prepare(ctx context.Context, pdf string, signer model.SignerAttributes, idp string) (*model.PreparedDocument, error) {
	var prepared model.PreparedDocument
	if err := c.post(ctx, "/prepare", prepareRequest{PDF: pdf, Signer: signer, IdP: idp}, &prepared); err != nil {
		return nil, err
	}
	if prepared.Reference == "" {
		return nil, fmt.Errorf("[SignAPI] prepare: пустая ссылка на документ: %w", model.ErrSignAPI)
	}
	return &prepared, nil
}

func (c *Client) Create(ctx context.Context, documents []model.PreparedDocument, authn model.AuthnRequirements) (*model.SignRequest, error) {
	var signRequest model.SignRequest
	if err := c.post(ctx, "/create", createRequest{Documents: documents, Authn: authn}, &signRequest); err != nil {
		return nil, err
	}
	return &signRequest, nil
}

func (c *Client) Process(ctx context.Context, signResponse, relayState string) ([]model.SignedDocument, error) {
	var response processResponse
	if err := c.post(ctx, "/process", processRequest{SignResponse: signResponse, RelayState: relayState}, &response); err != nil {
		return nil, err
	}
	return response.SignedDocuments, nil
}

func (c *Client) post(ctx context.Context, path string, body, dst interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("[SignAPI] %s: кодирование запроса: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("[SignAPI] %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("[SignAPI] %s: %w: %w", path, model.ErrSignAPI, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		zap.L().Warn("[SignAPI] сервис подписи вернул ошибку",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", text))
		return fmt.Errorf("[SignAPI] %s вернул %s: %w", path, resp.Status, model.ErrSignAPI)
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("[SignAPI] %s: разбор ответа: %w: %w", path, model.ErrSignAPI, err)
	}
	return nil
}
