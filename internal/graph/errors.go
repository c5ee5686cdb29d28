package graph

import "errors"

var (
	ErrNodeNotFound   = errors.New("node not found")
	ErrDuplicateNode  = errors.New("node already exists")
	ErrSocketNotFound = errors.New("socket not found")
	ErrSocketOccupied = errors.New("socket already occupied")
	ErrSocketExists   = errors.New("socket already exists")
	ErrIncompatible   = errors.New("connector does not fit socket")
	ErrCycle          = errors.New("connection would create a cycle")
)
