package tui

import "errors"

// ErrMissingPolicyService is returned when the policy service is not provided.
var ErrMissingPolicyService = errors.New("tui: policy service is required")

// ErrMissingSession is returned when no session ID is given.
var ErrMissingSession = errors.New("tui: session id is required")
