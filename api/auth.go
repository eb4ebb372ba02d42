package api

import (
	"fmt"
	"regexp"
)

var usernameMatcher = regexp.MustCompile("^[a-z0-9][a-z0-9-]{1,30}[a-z0-9]$")

type SignUp struct {
	Username string `json:"username"`
	Nickname string `json:"nickname"`
	Password string `json:"password"`
}

func (create SignUp) Validate() error {
	if !usernameMatcher.MatchString(create.Username) {
		return fmt.Errorf("invalid username %q: use 3 to 32 lowercase letters, digits or dashes", create.Username)
	}
	if len(create.Password) < 3 {
		return fmt.Errorf("password is too short, minimum length is 3")
	}
	if len(create.Password) > 512 {
		return fmt.Errorf("password is too long, maximum length is 512")
	}
	if len(create.Nickname) > 64 {
		return fmt.Errorf("nickname is too long, maximum length is 64")
	}
	return nil
}

type SignIn struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AuthResponse struct {
	AccessToken string `json:"accessToken"`
	ExpiresTs   int64  `json:"expiresTs"`
	User        *User  `json:"user"`
}
