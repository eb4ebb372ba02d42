package store

import (
	"context"
	"fmt"
	"strconv"

	"github.com/patrickmn/go-cache"

	"github.com/rabithua/chatmemo/common"
)

// forkTitleSuffix is appended to the parent title when a fork is created without one.
const forkTitleSuffix = " (fork)"

type ForkConversation struct {
	ParentID  int
	CreatorID int
	// Title defaults to the parent title with a fork suffix.
	Title string
}

// ForkNavigation is what the fork widget shows for one conversation.
// A root conversation lists its forks; a fork points at its parent and siblings.
type ForkNavigation struct {
	Conversation *Conversation
	Parent       *Conversation
	// Forks of the root conversation, oldest first. For a fork these are its siblings,
	// itself included.
	Forks []*Conversation
}

func (n *ForkNavigation) IsFork() bool {
	return n.Parent != nil
}

// ForkConversation branches a root conversation. Forks cannot be forked again.
func (s *Store) ForkConversation(ctx context.Context, fork *ForkConversation) (*Conversation, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, FormatError(err)
	}
	defer tx.Rollback()

	if _, err := requireUser(ctx, tx, fork.CreatorID); err != nil {
		return nil, err
	}
	parent, err := requireConversation(ctx, tx, fork.ParentID)
	if err != nil {
		return nil, err
	}
	if err := checkForkParent(fork.CreatorID, parent); err != nil {
		return nil, err
	}

	title := fork.Title
	if title == "" {
		title = parent.Title + forkTitleSuffix
	}
	conversation, err := createConversation(ctx, tx, &Conversation{
		CreatorID: fork.CreatorID,
		Title:     title,
		ParentID:  &parent.ID,
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, FormatError(err)
	}

	s.conversationCache.Set(strconv.Itoa(conversation.ID), *conversation, cache.DefaultExpiration)
	return conversation, nil
}

// GetForkNavigation returns the parent and forks around the given conversation.
func (s *Store) GetForkNavigation(ctx context.Context, conversationID int) (*ForkNavigation, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, FormatError(err)
	}
	defer tx.Rollback()

	conversation, err := requireConversation(ctx, tx, conversationID)
	if err != nil {
		return nil, err
	}

	navigation := &ForkNavigation{
		Conversation: conversation,
	}
	rootID := conversation.ID
	if conversation.IsFork() {
		parent, err := requireConversation(ctx, tx, *conversation.ParentID)
		if err != nil {
			return nil, err
		}
		navigation.Parent = parent
		rootID = parent.ID
	}

	forks, err := listConversations(ctx, tx, &FindConversation{ParentID: &rootID})
	if err != nil {
		return nil, err
	}
	navigation.Forks = forks

	return navigation, nil
}

// checkForkParent enforces that only the owner forks a conversation and that forks stay one level deep.
func checkForkParent(creatorID int, parent *Conversation) error {
	if parent.CreatorID != creatorID {
		return &common.Error{Code: common.NotAuthorized, Err: fmt.Errorf("conversation %d is not owned by user %d", parent.ID, creatorID)}
	}
	if parent.IsFork() {
		return &common.Error{Code: common.Invalid, Err: fmt.Errorf("conversation %d is already a fork and cannot be forked", parent.ID)}
	}
	return nil
}
