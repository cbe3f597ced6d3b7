package journal

import "time"

// Received is one SMS taken from the modem.
type Received struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Slot      int       `json:"slot"`
	Sender    string    `gorm:"index" json:"sender"`
	Stamp     string    `json:"stamp"` // service centre time stamp as sent by the modem
	Body      string    `json:"body"`
	Command   string    `json:"command"`
	Applied   bool      `json:"applied"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (Received) TableName() string { return "received" }

// Sent is one attempt to send an SMS.
type Sent struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Number    string    `gorm:"index" json:"number"`
	Body      string    `json:"body"`
	Ref       int       `json:"ref"`
	Status    string    `json:"status"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (Sent) TableName() string { return "sent" }
