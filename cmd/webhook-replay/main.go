package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/safarihub/booking-backend/pkg/paystack"
	"github.com/shopspring/decimal"
)

// Sends a signed charge event to a running server, the way Paystack would.
func main() {
	var (
		reference string
		amount    string
		currency  string
		event     string
		target    string
		badSig    bool
	)
	flag.StringVar(&reference, "reference", "", "Payment reference (transaction_id), e.g. booking_12_a1b2c3d4")
	flag.StringVar(&amount, "amount", "", "Charged amount in major units, e.g. 250.00")
	flag.StringVar(&currency, "currency", "", "Charged currency (defaults to PAYSTACK_CURRENCY)")
	flag.StringVar(&event, "event", paystack.EventChargeSuccess, "Event name: charge.success or charge.failed")
	flag.StringVar(&target, "url", "", "Webhook URL (defaults to http://localhost:$PORT/api/v1/webhook/payments)")
	flag.BoolVar(&badSig, "bad-signature", false, "Send a corrupted signature")
	flag.Parse()

	_ = godotenv.Load()

	if reference == "" || amount == "" {
		flag.Usage()
		os.Exit(2)
	}

	major, err := decimal.NewFromString(amount)
	if err != nil {
		log.Fatalf("invalid amount %q: %v", amount, err)
	}
	if currency == "" {
		currency = envOr("PAYSTACK_CURRENCY", "USD")
	}
	if target == "" {
		target = fmt.Sprintf("http://localhost:%s/api/v1/webhook/payments", envOr("PORT", "8080"))
	}

	secret := envOr("PAYSTACK_WEBHOOK_SECRET", os.Getenv("PAYSTACK_SECRET_KEY"))
	if secret == "" {
		log.Fatal("PAYSTACK_WEBHOOK_SECRET or PAYSTACK_SECRET_KEY must be set")
	}

	status := "success"
	if event == paystack.EventChargeFailed {
		status = "failed"
	}
	body, err := json.Marshal(paystack.Event{
		Event: event,
		Data: paystack.TransactionData{
			Reference:       reference,
			Status:          status,
			Amount:          major.Shift(2).IntPart(),
			Currency:        strings.ToUpper(currency),
			GatewayResponse: "Replayed locally",
		},
	})
	if err != nil {
		log.Fatalf("failed to encode event: %v", err)
	}

	signature := paystack.Sign(body, secret)
	if badSig {
		signature = strings.Repeat("0", len(signature))
	}

	req, err := http.NewRequest(http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		log.Fatalf("failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(paystack.SignatureHeader, signature)

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		log.Fatalf("webhook delivery failed: %v", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	fmt.Printf("POST %s\n%s\n\n%d %s\n%s\n", target, body, resp.StatusCode, http.StatusText(resp.StatusCode), respBody)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
