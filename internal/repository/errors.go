// Package repository contains the data access layer. Sentinel errors let
// handlers translate persistence failures into the right HTTP status
// without inspecting driver errors themselves.
package repository

import "errors"

// ErrEmailExists is returned when a registration collides with an existing
// email address. Handlers translate it into HTTP 400.
var ErrEmailExists = errors.New("email already exists")

// ErrUsernameExists is returned when a registration collides with an
// existing username. Handlers translate it into HTTP 400.
var ErrUsernameExists = errors.New("username already exists")

// ErrTaskNotFound is returned when a task does not exist or is owned by a
// different user. The two cases are deliberately indistinguishable so the
// API never leaks the existence of another user's task.
var ErrTaskNotFound = errors.New("task not found")
