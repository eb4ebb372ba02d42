package api

type Memo struct {
	ID int `json:"id"`

	// Standard fields
	CreatedTs int64 `json:"createdTs"`
	UpdatedTs int64 `json:"updatedTs"`

	// Domain specific fields
	UserID         int    `json:"userId"`
	ConversationID int    `json:"conversationId"`
	Content        string `json:"content"`
	// HTML is the rendered content, set when requested with ?render=html.
	HTML string `json:"html,omitempty"`
}

type UpsertMemoRequest struct {
	Content string `json:"content"`
}

type DeleteMemoResponse struct {
	Deleted bool `json:"deleted"`
}
