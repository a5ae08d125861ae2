package services

import "errors"

// Service-level errors. Handlers map these onto HTTP status codes.
var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("email or password incorrect")
	ErrAccountDisabled    = errors.New("account is deactivated")
	ErrUserNotFound       = errors.New("user not found")
	ErrGroupNotFound      = errors.New("group not found")
	ErrInviteNotFound     = errors.New("invite code not found")
	ErrAlreadyMember      = errors.New("already a member of this group")
	ErrNotMember          = errors.New("not a member of this group")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrMessageNotFound    = errors.New("message not found")
	ErrChatNotFound       = errors.New("chat not found")
	ErrBadTarget          = errors.New("message must target exactly one of group or recipient")
	ErrCreatorCannotLeave = errors.New("group creator cannot leave group")
)
