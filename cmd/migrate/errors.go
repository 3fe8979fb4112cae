package main

import (
	"errors"
	"fmt"
)

var errNameRequired = errors.New("name is required for 'create' command")

func errUnknownCommand(command string) error {
	return fmt.Errorf("unknown command: %s. Use: up, down, status, create", command)
}
