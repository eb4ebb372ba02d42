package common

import (
	"database/sql"
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestErrorCode(t *testing.T) {
	tests := []struct {
		err  error
		code Code
		msg  string
	}{
		{
			err:  nil,
			code: Ok,
			msg:  "",
		},
		{
			err:  &Error{Code: NotFound, Err: fmt.Errorf("conversation not found")},
			code: NotFound,
			msg:  "conversation not found",
		},
		{
			err:  errors.Wrap(&Error{Code: Invalid, Err: fmt.Errorf("content is too long")}, "failed to save memo"),
			code: Invalid,
			msg:  "content is too long",
		},
		{
			err:  sql.ErrConnDone,
			code: Internal,
			msg:  "Internal error.",
		},
	}

	for _, test := range tests {
		require.Equal(t, test.code, ErrorCode(test.err))
		require.Equal(t, test.msg, ErrorMessage(test.err))
	}
}

func TestHasPrefixes(t *testing.T) {
	require.True(t, HasPrefixes("/api/auth/signin", "/api/ping", "/api/auth"))
	require.False(t, HasPrefixes("/api/conversation", "/api/ping", "/api/auth"))
}
