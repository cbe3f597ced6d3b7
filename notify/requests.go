package notify

import (
	"context"
	"encoding/json"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"i4.energy/across/valvegw/modem"
)

// Sender queues an outbound SMS and waits for the modem's answer.
type Sender interface {
	Send(ctx context.Context, number, body string) (int, modem.Status, error)
}

// SendRequest is the JSON payload accepted on <prefix>/sms/send.
type SendRequest struct {
	To      string `json:"to"`
	Message string `json:"message"`
	ID      string `json:"id,omitempty"` // optional caller-supplied id
}

// SendResult is published on <prefix>/sms/result for every request.
type SendResult struct {
	ID     string `json:"id,omitempty"`
	To     string `json:"to"`
	Ref    int    `json:"ref"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

func (p *Publisher) subscribe(c mqtt.Client) {
	if p.sender == nil {
		return
	}
	topic := p.prefix + "/sms/send"
	tok := c.Subscribe(topic, 0, p.handleSend)
	if tok.WaitTimeout(p.timeout) && tok.Error() != nil {
		p.logger.Error("MQTT subscribe failed", "topic", topic, "error", tok.Error())
		return
	}
	p.logger.Info("Subscribed for send requests", "topic", topic)
}

// handleSend runs on the client's callback goroutine, so the send itself
// is moved off it.
func (p *Publisher) handleSend(_ mqtt.Client, m mqtt.Message) {
	var req SendRequest
	if err := json.Unmarshal(m.Payload(), &req); err != nil {
		p.logger.Warn("Bad send request payload", "error", err)
		return
	}
	if req.To == "" || req.Message == "" {
		p.logger.Warn("Send request without to or message", "id", req.ID)
		return
	}
	go p.serve(req)
}

func (p *Publisher) serve(req SendRequest) {
	ctx, cancel := context.WithTimeout(context.Background(), p.sendTimeout)
	defer cancel()

	ref, st, err := p.sender.Send(ctx, req.To, req.Message)
	res := SendResult{ID: req.ID, To: req.To, Ref: ref, Status: st.String()}
	if err != nil {
		res.Error = err.Error()
	}
	payload, err := json.Marshal(res)
	if err != nil {
		p.logger.Error("Failed to encode send result", "error", err)
		return
	}
	tok := p.client.Publish(p.prefix+"/sms/result", p.qos, false, payload)
	if tok.WaitTimeout(p.timeout) && tok.Error() != nil {
		p.logger.Warn("Failed to publish send result", "id", req.ID, "error", tok.Error())
	}
}
