package verify

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	config "github.com/districtone/backend/configs"
)

const twilioVerifyBaseURL = "https://verify.twilio.com/v2/Services"

// CheckResult is the outcome of a code check. Expired is distinct from
// Denied: an expired code lets the user request a fresh one, a denied code
// must not mint an account or session.
type CheckResult int

const (
	ResultDenied CheckResult = iota
	ResultApproved
	ResultExpired
)

type verificationResponse struct {
	Sid    string `json:"sid"`
	Status string `json:"status"`
	To     string `json:"to"`
}

// Service talks to the Twilio Verify API for one verification service.
type Service struct {
	AccountSID string
	AuthToken  string
	VerifySID  string
	BaseURL    string
	Client     *http.Client
}

func NewService() *Service {
	return &Service{
		AccountSID: config.Config("TWILIO_ACCOUNT_SID"),
		AuthToken:  config.Config("TWILIO_AUTH_KEY"),
		VerifySID:  config.Config("TWILIO_VERIFY_ID"),
		BaseURL:    twilioVerifyBaseURL,
		Client:     &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *Service) post(path string, form url.Values) (*http.Response, error) {
	endpoint := fmt.Sprintf("%s/%s/%s", s.BaseURL, s.VerifySID, path)
	req, err := http.NewRequest("POST", endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create verify request: %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(s.AccountSID, s.AuthToken)

	return s.Client.Do(req)
}

// SendCode asks the provider to deliver a one-time code. Callers run it in a
// goroutine: delivery is fire-and-forget and must never hold up the HTTP
// response, the result is only logged.
func (s *Service) SendCode(dialCode, phoneNumber string) error {
	form := url.Values{}
	form.Set("To", fmt.Sprintf("+%s%s", dialCode, phoneNumber))
	form.Set("Channel", "sms")

	resp, err := s.post("Verifications", form)
	if err != nil {
		return fmt.Errorf("failed to send verification request: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		log.Printf("Twilio Verify error: Status %d, Body: %s", resp.StatusCode, string(body))
		return fmt.Errorf("verify API returned status %d", resp.StatusCode)
	}

	log.Printf("Verification SMS queued for +%s%s", dialCode, phoneNumber)
	return nil
}

// CheckCode submits a code the user typed in. A provider 404 means the
// verification is gone (expired or consumed); any non-approved status is a
// plain denial.
func (s *Service) CheckCode(dialCode, phoneNumber, code string) (CheckResult, error) {
	form := url.Values{}
	form.Set("To", fmt.Sprintf("+%s%s", dialCode, phoneNumber))
	form.Set("Code", code)

	resp, err := s.post("VerificationCheck", form)
	if err != nil {
		return ResultDenied, fmt.Errorf("failed to send verification check: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return ResultDenied, fmt.Errorf("failed to read verification check response: %v", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return ResultExpired, nil
	}
	if resp.StatusCode != http.StatusOK {
		log.Printf("Twilio Verify check error: Status %d, Body: %s", resp.StatusCode, string(body))
		return ResultDenied, fmt.Errorf("verify API returned status %d", resp.StatusCode)
	}

	var check verificationResponse
	if err := json.Unmarshal(body, &check); err != nil {
		return ResultDenied, fmt.Errorf("failed to unmarshal verification check response: %v", err)
	}
	if check.Status == "approved" {
		return ResultApproved, nil
	}
	return ResultDenied, nil
}
