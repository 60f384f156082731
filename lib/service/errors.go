package service

import "errors"

var (
	ErrInvalidAddress             = errors.New("invalid address")
	ErrInvalidAmount              = errors.New("invalid amount")
	ErrPaymentNotFound            = errors.New("payment not found")
	ErrPaymentAlreadyProcessed    = errors.New("payment already processed")
	ErrPaymentNotDeposited        = errors.New("payment not deposited")
	ErrUnauthorizedAccess         = errors.New("unauthorized access")
	ErrOwnableUnauthorizedAccount = errors.New("ownable: unauthorized account")
	ErrOwnableInvalidOwner        = errors.New("ownable: invalid owner")
	ErrInsufficientBalance        = errors.New("insufficient balance")
	ErrTransferFailed             = errors.New("transfer failed")
	ErrEnforcedPause              = errors.New("pausable: enforced pause")
	ErrExpectedPause              = errors.New("pausable: expected pause")
	ErrReentrantCall              = errors.New("reentrancy guard: reentrant call")
	ErrLedgerNotInitialized       = errors.New("ledger not initialized")
)
