package gateway

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	domain "github.com/aq2208/payment-api/internal/entity"
	"github.com/aq2208/payment-api/internal/logging"
	"github.com/aq2208/payment-api/internal/security"
	"github.com/aq2208/payment-api/internal/usecase"
	"github.com/google/uuid"
)

const (
	pathNativePay   = "/v3/pay/transactions/native"
	pathQueryOrder  = "/v3/pay/transactions/out-trade-no/%s"
	pathCloseOrder  = "/v3/pay/transactions/out-trade-no/%s/close"
	pathRefunds     = "/v3/refund/domestic/refunds"
	pathQueryRefund = "/v3/refund/domestic/refunds/%s"

	notifyPathPayment = "/api/wx-pay/native/notify"
	notifyPathRefund  = "/api/wx-pay/refunds/notify"
)

// WeChatClient talks to the WeChat Pay v3 REST API. Every request is
// signed (SHA256-RSA2048 over the v3 message format); 200 and 204 count
// as success, anything else surfaces as *usecase.GatewayError.
type WeChatClient struct {
	hc           *http.Client
	baseURL      string
	notifyDomain string
	appID        string
	mchID        string
	serialNo     string
	signer       security.Signer
}

func NewWeChatClient(baseURL, notifyDomain, appID, mchID, serialNo string, signer security.Signer, timeout time.Duration) *WeChatClient {
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &WeChatClient{
		hc:           &http.Client{Timeout: timeout},
		baseURL:      strings.TrimRight(baseURL, "/"),
		notifyDomain: strings.TrimRight(notifyDomain, "/"),
		appID:        appID,
		mchID:        mchID,
		serialNo:     serialNo,
		signer:       signer,
	}
}

func (c *WeChatClient) CreatePaymentIntent(ctx context.Context, o *domain.Order) (string, error) {
	body := map[string]any{
		"appid":        c.appID,
		"mchid":        c.mchID,
		"description":  o.Title,
		"out_trade_no": o.OrderNo,
		"notify_url":   c.notifyDomain + notifyPathPayment,
		"amount": map[string]any{
			"total":    o.TotalFee,
			"currency": "CNY",
		},
	}
	raw, err := c.do(ctx, http.MethodPost, pathNativePay, body)
	if err != nil {
		return "", err
	}
	var resp struct {
		CodeURL string `json:"code_url"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("decode native pay response: %w", err)
	}
	if resp.CodeURL == "" {
		return "", fmt.Errorf("native pay response missing code_url")
	}
	return resp.CodeURL, nil
}

func (c *WeChatClient) QueryOrder(ctx context.Context, orderNo string) (*usecase.GatewayOrder, error) {
	path := fmt.Sprintf(pathQueryOrder, orderNo) + "?mchid=" + c.mchID
	raw, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	var resp struct {
		OrderNo        string `json:"out_trade_no"`
		TransactionID  string `json:"transaction_id"`
		TradeType      string `json:"trade_type"`
		TradeState     string `json:"trade_state"`
		TradeStateDesc string `json:"trade_state_desc"`
		Amount         struct {
			PayerTotal int64 `json:"payer_total"`
		} `json:"amount"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decode query order response: %w", err)
	}
	return &usecase.GatewayOrder{
		OrderNo:        resp.OrderNo,
		TransactionID:  resp.TransactionID,
		TradeType:      resp.TradeType,
		TradeState:     resp.TradeState,
		TradeStateDesc: resp.TradeStateDesc,
		PayerTotal:     resp.Amount.PayerTotal,
		RawBody:        string(raw),
	}, nil
}

func (c *WeChatClient) CloseOrder(ctx context.Context, orderNo string) error {
	_, err := c.do(ctx, http.MethodPost, fmt.Sprintf(pathCloseOrder, orderNo), map[string]any{"mchid": c.mchID})
	return err
}

func (c *WeChatClient) CreateRefund(ctx context.Context, r *domain.Refund) (string, error) {
	body := map[string]any{
		"out_trade_no":  r.OrderNo,
		"out_refund_no": r.RefundNo,
		"reason":        r.Reason,
		"notify_url":    c.notifyDomain + notifyPathRefund,
		"amount": map[string]any{
			"refund":   r.RefundFee,
			"total":    r.TotalFee,
			"currency": "CNY",
		},
	}
	raw, err := c.do(ctx, http.MethodPost, pathRefunds, body)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func (c *WeChatClient) QueryRefund(ctx context.Context, refundNo string) (*usecase.GatewayRefund, error) {
	raw, err := c.do(ctx, http.MethodGet, fmt.Sprintf(pathQueryRefund, refundNo), nil)
	if err != nil {
		return nil, err
	}
	resp, err := usecase.ParseRefundApplyResponse(raw)
	if err != nil {
		return nil, err
	}
	return &usecase.GatewayRefund{
		RefundNo:        resp.RefundNo,
		OrderNo:         resp.OrderNo,
		GatewayRefundID: resp.RefundID,
		Status:          resp.Status,
		RefundedFee:     resp.Amount.Refund,
		RawBody:         string(raw),
	}, nil
}

// do signs and executes one request, returning the body on 200/204.
func (c *WeChatClient) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if err := c.authorize(req, path, payload); err != nil {
		return nil, err
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway call %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read gateway response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		return raw, nil
	default:
		logging.FromCtx(ctx).Error("gateway request failed",
			"method", method, "path", path, "status", resp.StatusCode)
		return nil, &usecase.GatewayError{Status: resp.StatusCode, Body: string(raw)}
	}
}

// authorize builds the WECHATPAY2-SHA256-RSA2048 Authorization header.
// Message format: method\nurl_path\ntimestamp\nnonce\nbody\n
func (c *WeChatClient) authorize(req *http.Request, path string, body []byte) error {
	ts := strconv.FormatInt(time.Now().Unix(), 10)
	nonce := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))

	msg := strings.Join([]string{req.Method, path, ts, nonce, string(body)}, "\n") + "\n"
	sig, err := c.signer.Sign([]byte(msg))
	if err != nil {
		return fmt.Errorf("sign request: %w", err)
	}

	req.Header.Set("Authorization", fmt.Sprintf(
		`WECHATPAY2-SHA256-RSA2048 mchid="%s",nonce_str="%s",signature="%s",timestamp="%s",serial_no="%s"`,
		c.mchID, nonce, base64.StdEncoding.EncodeToString(sig), ts, c.serialNo,
	))
	return nil
}

var _ usecase.GatewayClient = (*WeChatClient)(nil)
