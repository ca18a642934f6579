package domain

import "errors"

var (
	ErrShiftNotFound   = errors.New("shift not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrVersionConflict = errors.New("record was modified concurrently")
)
