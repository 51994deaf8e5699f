// Package domain holds the debate types shared by http, service and the stream pipeline
package domain

// Segment is one contribution in a sitting, in speaking order
type Segment struct {
	Index   int    `json:"index" example:"12"`
	Speaker string `json:"speaker" example:"Jane Doe"`
	Text    string `json:"text"`
}

// Debate is a sitting with its ordered segments
type Debate struct {
	ID       string    `json:"id" example:"2024-05-14a.112.0"`
	Title    string    `json:"title" example:"Housing (Scotland) Bill"`
	Date     string    `json:"date,omitempty" example:"2024-05-14"`
	Segments []Segment `json:"segments"`
}
