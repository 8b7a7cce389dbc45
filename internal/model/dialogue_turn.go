package model

// DialogueTurn is one turn of prior conversation as carried on the wire,
// ordered oldest to newest.
type DialogueTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
