package domain

import "time"

type Publisher struct {
	ID        string    `json:"publisherId"`
	Name      string    `json:"publisherName"`
	CreatedAt time.Time `json:"createdAt"`
}
