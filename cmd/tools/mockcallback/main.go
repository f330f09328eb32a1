// Command mockcallback simulates the gateway's browser redirect and the
// server-to-server webhook against a local instance. Useful in dev, where the
// real gateway cannot reach localhost.
//
//	mockcallback -order ORD123 -amount 50000 -mode callback
//	mockcallback -order ORD123 -amount 50000 -mode webhook -status paid
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"baeumcoop.kr/app/internal/modules/payments"
)

func main() {
	_ = godotenv.Load()

	var (
		base    = flag.String("base", "http://localhost:8080", "server base URL")
		orderID = flag.String("order", "", "order id of a pending payment")
		amount  = flag.Int("amount", 0, "payment amount in KRW")
		mode    = flag.String("mode", "callback", "callback|webhook")
		status  = flag.String("status", "paid", "webhook status")
		tid     = flag.String("tid", "", "transaction id (random when empty)")
	)
	flag.Parse()

	if *orderID == "" || *amount <= 0 {
		log.Fatal("-order and -amount are required")
	}
	if *tid == "" {
		*tid = "UT0000000m" + uuid.NewString()[:8]
	}

	switch *mode {
	case "callback":
		sendCallback(*base, *orderID, *amount, *tid)
	case "webhook":
		sendWebhook(*base, *orderID, *amount, *tid, *status)
	default:
		log.Fatalf("unknown mode %q", *mode)
	}
}

func sendCallback(base, orderID string, amount int, tid string) {
	clientID := os.Getenv("NICEPAY_CLIENT_ID")
	secretKey := os.Getenv("NICEPAY_SECRET_KEY")
	if clientID == "" || secretKey == "" {
		log.Fatal("NICEPAY_CLIENT_ID and NICEPAY_SECRET_KEY are required for -mode callback")
	}

	authToken := "AUTH" + uuid.NewString()[:12]
	form := url.Values{}
	form.Set("authResultCode", "0000")
	form.Set("authResultMsg", "인증 성공")
	form.Set("tid", tid)
	form.Set("orderId", orderID)
	form.Set("amount", fmt.Sprintf("%d", amount))
	form.Set("authToken", authToken)
	form.Set("signature", payments.CallbackSignature(authToken, clientID, amount, secretKey))

	client := &http.Client{
		// surface the redirect target instead of following it
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	resp, err := client.PostForm(base+"/api/nicepay/callback", form)
	if err != nil {
		log.Fatalf("callback: %v", err)
	}
	defer resp.Body.Close()
	fmt.Printf("status=%d location=%s\n", resp.StatusCode, resp.Header.Get("Location"))
}

func sendWebhook(base, orderID string, amount int, tid, status string) {
	body, _ := json.Marshal(map[string]any{
		"resultCode": "0000",
		"resultMsg":  "정상 처리되었습니다.",
		"tid":        tid,
		"orderId":    orderID,
		"status":     status,
		"amount":     amount,
	})

	resp, err := http.Post(base+"/api/nicepay/webhook", "application/json", bytes.NewReader(body))
	if err != nil {
		log.Fatalf("webhook: %v", err)
	}
	defer resp.Body.Close()
	ack, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	fmt.Printf("status=%d ack=%s\n", resp.StatusCode, ack)
}
