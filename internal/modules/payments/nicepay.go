package payments

import (
	"bytes"
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"baeumcoop.kr/app/internal/config"
)

const nicepaySuccessCode = "0000"

// NicePay implements Gateway against the NicePay v1 REST API.
// Server-to-server calls use Basic auth built from clientID:secretKey.
type NicePay struct {
	clientID  string
	secretKey string
	baseURL   string
	hc        *http.Client
}

func NewNicePay(cfg config.NicePayConfig) *NicePay {
	return &NicePay{
		clientID:  cfg.ClientID,
		secretKey: cfg.SecretKey,
		baseURL:   cfg.BaseURL,
		hc:        &http.Client{Timeout: 10 * time.Second},
	}
}

func (n *NicePay) ClientID() string { return n.clientID }

type nicepayResponse struct {
	ResultCode   string `json:"resultCode"`
	ResultMsg    string `json:"resultMsg"`
	TID          string `json:"tid"`
	CancelledTID string `json:"cancelledTid"`
	OrderID      string `json:"orderId"`
	Amount       int    `json:"amount"`
	Status       string `json:"status"`
}

func (n *NicePay) Approve(ctx context.Context, tid string, amount int) (ApproveResult, error) {
	body, raw, err := n.post(ctx, "/v1/payments/"+tid, map[string]any{"amount": amount})
	if err != nil {
		return ApproveResult{Raw: raw}, err
	}

	out := ApproveResult{
		ResultCode: body.ResultCode,
		ResultMsg:  body.ResultMsg,
		TID:        body.TID,
		OrderID:    body.OrderID,
		Amount:     body.Amount,
		Status:     body.Status,
		Raw:        raw,
	}
	if body.ResultCode != nicepaySuccessCode {
		return out, &GatewayError{Code: body.ResultCode, Msg: body.ResultMsg}
	}
	return out, nil
}

func (n *NicePay) Cancel(ctx context.Context, tid, orderID, reason string) (CancelResult, error) {
	body, raw, err := n.post(ctx, "/v1/payments/"+tid+"/cancel", map[string]any{
		"reason":  reason,
		"orderId": orderID,
	})
	if err != nil {
		return CancelResult{Raw: raw}, err
	}

	out := CancelResult{
		ResultCode: body.ResultCode,
		ResultMsg:  body.ResultMsg,
		TID:        body.TID,
		CancelTID:  body.CancelledTID,
		OrderID:    body.OrderID,
		Status:     body.Status,
		Raw:        raw,
	}
	if body.ResultCode != nicepaySuccessCode {
		return out, &GatewayError{Code: body.ResultCode, Msg: body.ResultMsg}
	}
	return out, nil
}

// VerifySignature checks hex(sha256(authToken + clientID + amount + secretKey)).
func (n *NicePay) VerifySignature(authToken, tid string, amount int, signature string) bool {
	_ = tid // not part of the auth signature input
	if authToken == "" || signature == "" {
		return false
	}
	expected := CallbackSignature(authToken, n.clientID, amount, n.secretKey)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) == 1
}

// CallbackSignature computes the redirect-back signature. Exported for the
// mockcallback tool.
func CallbackSignature(authToken, clientID string, amount int, secretKey string) string {
	h := sha256.Sum256([]byte(authToken + clientID + strconv.Itoa(amount) + secretKey))
	return hex.EncodeToString(h[:])
}

func (n *NicePay) post(ctx context.Context, path string, payload map[string]any) (nicepayResponse, []byte, error) {
	var parsed nicepayResponse

	reqBody, err := json.Marshal(payload)
	if err != nil {
		return parsed, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.baseURL+path, bytes.NewReader(reqBody))
	if err != nil {
		return parsed, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Basic "+basicAuth(n.clientID, n.secretKey))

	resp, err := n.hc.Do(req)
	if err != nil {
		return parsed, nil, fmt.Errorf("nicepay request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return parsed, nil, fmt.Errorf("nicepay read body failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Error responses still carry resultCode/resultMsg when parseable
		if jerr := json.Unmarshal(raw, &parsed); jerr == nil && parsed.ResultCode != "" {
			return parsed, raw, &GatewayError{Code: parsed.ResultCode, Msg: parsed.ResultMsg}
		}
		return parsed, raw, fmt.Errorf("nicepay http %d", resp.StatusCode)
	}

	if err := json.Unmarshal(raw, &parsed); err != nil {
		return parsed, raw, fmt.Errorf("nicepay decode failed: %w", err)
	}
	return parsed, raw, nil
}

func basicAuth(user, pass string) string {
	return base64.StdEncoding.EncodeToString([]byte(user + ":" + pass))
}
