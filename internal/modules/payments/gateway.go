package payments

import "context"

type ApproveResult struct {
	ResultCode string
	ResultMsg  string
	TID        string
	OrderID    string
	Amount     int
	Status     string
	Raw        []byte // response body, verbatim
}

type CancelResult struct {
	ResultCode string
	ResultMsg  string
	TID        string
	CancelTID  string
	OrderID    string
	Status     string
	Raw        []byte
}

// Gateway is the server-to-server surface of the payment provider. No
// retries or circuit breaking: a failed call surfaces directly.
type Gateway interface {
	// Approve confirms an authenticated transaction. The amount must match
	// what the buyer authorized; the provider rejects a mismatch.
	Approve(ctx context.Context, tid string, amount int) (ApproveResult, error)

	// Cancel voids or refunds an approved transaction.
	Cancel(ctx context.Context, tid, orderID, reason string) (CancelResult, error)

	// VerifySignature checks the redirect-back payload signature. Fails
	// closed: a forged client redirect must never fake a payment.
	VerifySignature(authToken, tid string, amount int, signature string) bool

	// ClientID is the public merchant identifier handed to the JS SDK.
	ClientID() string
}
