package api

import "fmt"

// ForkMode tells the fork widget which of its two states to show.
type ForkMode string

const (
	// ForkModeRoot is shown on a conversation that may have forks.
	ForkModeRoot ForkMode = "root"
	// ForkModeFork is shown on a conversation branched from a parent.
	ForkModeFork ForkMode = "fork"
)

const maxConversationTitleLength = 256

type Conversation struct {
	ID int `json:"id"`

	// Standard fields
	RowStatus RowStatus `json:"rowStatus"`
	CreatorID int       `json:"creatorId"`
	CreatedTs int64     `json:"createdTs"`
	UpdatedTs int64     `json:"updatedTs"`

	// Domain specific fields
	Title    string `json:"title"`
	ParentID *int   `json:"parentId"`
}

type CreateConversationRequest struct {
	Title string `json:"title"`
}

func (create CreateConversationRequest) Validate() error {
	return validateConversationTitle(create.Title)
}

type UpdateConversationRequest struct {
	RowStatus *RowStatus `json:"rowStatus"`
	Title     *string    `json:"title"`
}

func (patch UpdateConversationRequest) Validate() error {
	if patch.RowStatus != nil && !patch.RowStatus.IsValid() {
		return fmt.Errorf("invalid row status %q", *patch.RowStatus)
	}
	if patch.Title != nil {
		return validateConversationTitle(*patch.Title)
	}
	return nil
}

type ForkConversationRequest struct {
	Title string `json:"title"`
}

func (fork ForkConversationRequest) Validate() error {
	return validateConversationTitle(fork.Title)
}

// ForkNavigation is the fork widget state of one conversation.
type ForkNavigation struct {
	Mode         ForkMode        `json:"mode"`
	Conversation *Conversation   `json:"conversation"`
	Parent       *Conversation   `json:"parent,omitempty"`
	Forks        []*Conversation `json:"forks"`
}

func validateConversationTitle(title string) error {
	if len(title) > maxConversationTitleLength {
		return fmt.Errorf("title is too long, maximum length is %d", maxConversationTitleLength)
	}
	return nil
}
