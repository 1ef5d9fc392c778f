package services

import "errors"

var (
	ErrInvalidCredentials      = errors.New("invalid email or password")
	ErrInvalidToken            = errors.New("invalid refresh token")
	ErrExpiredRefreshToken     = errors.New("refresh token expired, please log in again")
	ErrUserNotFound            = errors.New("user not found")
	ErrEmailTaken              = errors.New("email already registered")
	ErrNicknameTaken           = errors.New("nickname already in use")
	ErrSocialUserUpdate        = errors.New("social login accounts cannot change email or password")
	ErrInvalidVerificationCode = errors.New("invalid or expired verification code")
	ErrEmailNotVerified        = errors.New("email has not been verified")
)
