// Package dispatch fans one notification out to every recipient through a
// channel adapter and aggregates the per-recipient outcomes.
package dispatch

import "fmt"

// Channel selects the outbound transport family.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

// Recipient is one destination. Address is an email address or a phone
// number depending on the channel; Name is only used for email.
type Recipient struct {
	Address string `json:"address"`
	Name    string `json:"name,omitempty"`
}

// Content is what every recipient of a request receives.
type Content struct {
	Subject string
	Body    string
}

// Request is one dispatch call. Duplicated recipients are sent twice.
type Request struct {
	Channel    Channel
	Recipients []Recipient
	Subject    string
	Body       string
}

func (r Request) content() Content {
	return Content{Subject: r.Subject, Body: r.Body}
}

type Status string

const (
	StatusSent   Status = "sent"
	StatusFailed Status = "failed"
)

// Outcome is the terminal result of one send. Err is set iff Status is failed.
type Outcome struct {
	Recipient         Recipient
	Status            Status
	ProviderReference string
	Err               error
}

func Sent(r Recipient, reference string) Outcome {
	return Outcome{Recipient: r, Status: StatusSent, ProviderReference: reference}
}

func Failed(r Recipient, err error) Outcome {
	if err == nil {
		err = fmt.Errorf("send failed")
	}
	return Outcome{Recipient: r, Status: StatusFailed, Err: err}
}

// Detail is the error text of a failed outcome, empty otherwise.
func (o Outcome) Detail() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}

// Report holds one outcome per input recipient, in input order.
type Report struct {
	Channel  Channel
	Outcomes []Outcome
}

func (r *Report) SentCount() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == StatusSent {
			n++
		}
	}
	return n
}

// Failed returns the failed outcomes in input order.
func (r *Report) Failed() []Outcome {
	var failed []Outcome
	for _, o := range r.Outcomes {
		if o.Status == StatusFailed {
			failed = append(failed, o)
		}
	}
	return failed
}

// Err returns a *DeliveryError naming every failed destination, or nil
// when every recipient was sent.
func (r *Report) Err() error {
	failed := r.Failed()
	if len(failed) == 0 {
		return nil
	}
	addrs := make([]string, len(failed))
	for i, o := range failed {
		addrs[i] = o.Recipient.Address
	}
	return &DeliveryError{Channel: r.Channel, Failed: addrs, Total: len(r.Outcomes)}
}
