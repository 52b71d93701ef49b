package model

import "errors"

// Common errors used across the application
var (
	// Board errors
	ErrOutOfBounds  = errors.New("coordinate is off the board")
	ErrCellOccupied = errors.New("cell is already occupied")
	ErrNotYourTurn  = errors.New("not this side's turn")
	ErrGameOver     = errors.New("game is already over")

	// User errors
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("user already exists")
	ErrInvalidUser  = errors.New("user id and password are required")

	// Game record errors
	ErrGameNotFound = errors.New("game not found")

	// Wire errors
	ErrUnknownCommand = errors.New("unknown command")
	ErrInvalidCommand = errors.New("invalid command")

	// Store errors
	ErrStoreClosed = errors.New("data store is closed")
)
