package domain

import "errors"

var (
	ErrSiteNotFound     = errors.New("site not found")
	ErrSiteExists       = errors.New("site already registered")
	ErrReferrerNotFound = errors.New("referrer not found")
)
