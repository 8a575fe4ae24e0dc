package email

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

type Client struct {
	noReplyAddress string
	siteName       string
	client         http.Client
	apiKey         string
	baseURL        string
}

type Address struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

type Content struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type Personalization struct {
	To []Address `json:"to"`
}

// Message is the sendgrid v3 mail/send payload
type Message struct {
	Personalizations []Personalization `json:"personalizations"`
	From             Address           `json:"from"`
	ReplyTo          *Address          `json:"reply_to,omitempty"`
	Subject          string            `json:"subject"`
	Content          []Content         `json:"content"`
}

func NewClient(apiKey, noReplyAddress, siteName string) Client {
	return Client{
		client:         http.Client{Timeout: 10 * time.Second},
		apiKey:         apiKey,
		siteName:       siteName,
		noReplyAddress: noReplyAddress,
		baseURL:        "https://api.sendgrid.com",
	}
}

func (e Client) NoReplySender() Address {
	return Address{Name: e.siteName, Email: e.noReplyAddress}
}

// SendHTMLEmail sends a single html email from the no-reply address
func (e Client) SendHTMLEmail(to Address, subject, html string) error {
	msg := Message{
		Personalizations: []Personalization{{To: []Address{to}}},
		From:             e.NoReplySender(),
		Subject:          subject,
		Content:          []Content{{Type: "text/html", Value: html}},
	}
	reqData, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPost, e.baseURL+"/v3/mail/send", bytes.NewReader(reqData))
	if err != nil {
		return err
	}
	req.Header.Add("Authorization", "Bearer "+e.apiKey)
	req.Header.Add("content-type", "application/json")
	res, err := e.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode >= http.StatusBadRequest {
		errBody, err := io.ReadAll(res.Body)
		if err != nil {
			errBody = []byte(`unable to read body`)
		}
		return fmt.Errorf("got status code %d when sending email: err %s", res.StatusCode, string(errBody))
	}
	return nil
}
