package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"
)

const (
	smsMaxAttempts  = 3
	smsRetryBackoff = 5 * time.Second
)

// SMSService sends OTP codes through the Eskiz gateway.
type SMSService struct {
	baseURL  string
	email    string
	password string
	from     string
	client   *http.Client
}

// NewSMSService creates a new SMSService.
func NewSMSService(baseURL, email, password, from string) *SMSService {
	return &SMSService{
		baseURL:  baseURL,
		email:    email,
		password: password,
		from:     from,
		client:   &http.Client{Timeout: 15 * time.Second},
	}
}

// SendCodeAsync dispatches the verification code in the background,
// at-least-once with a bounded number of retries.
func (s *SMSService) SendCodeAsync(phone, code string) {
	go func() {
		message := fmt.Sprintf("Your verification code is: %s. Valid for 5 minutes.", code)

		var err error
		for attempt := 1; attempt <= smsMaxAttempts; attempt++ {
			if err = s.send(phone, message); err == nil {
				log.Printf("[SMS] Code sent to %s", phone)
				return
			}
			log.Printf("[SMS] Attempt %d/%d to %s failed: %v", attempt, smsMaxAttempts, phone, err)
			if attempt < smsMaxAttempts {
				time.Sleep(smsRetryBackoff)
			}
		}
		log.Printf("[SMS] Giving up on %s: %v", phone, err)
	}()
}

type eskizLoginResponse struct {
	Data struct {
		Token string `json:"token"`
	} `json:"data"`
}

func (s *SMSService) send(phone, message string) error {
	if s.email == "" || s.password == "" {
		log.Printf("[SMS] Gateway not configured, skipping send to %s", phone)
		return nil
	}

	token, err := s.login()
	if err != nil {
		return err
	}

	payload := map[string]string{
		"mobile_phone": phone,
		"message":      message,
		"from":         s.from,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, s.baseURL+"/message/sms/send", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("sms gateway returned status %d", resp.StatusCode)
	}

	return nil
}

func (s *SMSService) login() (string, error) {
	body, err := json.Marshal(map[string]string{
		"email":    s.email,
		"password": s.password,
	})
	if err != nil {
		return "", err
	}

	resp, err := s.client.Post(s.baseURL+"/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("sms gateway login returned status %d", resp.StatusCode)
	}

	var parsed eskizLoginResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", err
	}

	if parsed.Data.Token == "" {
		return "", fmt.Errorf("sms gateway login returned empty token")
	}

	return parsed.Data.Token, nil
}
