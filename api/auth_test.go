package api

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSignUpValidate(t *testing.T) {
	tests := []struct {
		signUp SignUp
		valid  bool
	}{
		{
			signUp: SignUp{Username: "alice", Password: "secret"},
			valid:  true,
		},
		{
			signUp: SignUp{Username: "al", Password: "secret"},
			valid:  false,
		},
		{
			signUp: SignUp{Username: "Alice", Password: "secret"},
			valid:  false,
		},
		{
			signUp: SignUp{Username: "alice", Password: "no"},
			valid:  false,
		},
		{
			signUp: SignUp{Username: "alice", Password: "secret", Nickname: strings.Repeat("n", 65)},
			valid:  false,
		},
	}

	for _, test := range tests {
		err := test.signUp.Validate()
		if test.valid {
			require.NoError(t, err)
		} else {
			require.Error(t, err)
		}
	}
}

func TestUpdateConversationRequestValidate(t *testing.T) {
	archived := Archived
	bogus := RowStatus("DELETED")
	title := strings.Repeat("t", maxConversationTitleLength+1)

	require.NoError(t, UpdateConversationRequest{RowStatus: &archived}.Validate())
	require.Error(t, UpdateConversationRequest{RowStatus: &bogus}.Validate())
	require.Error(t, UpdateConversationRequest{Title: &title}.Validate())
}
