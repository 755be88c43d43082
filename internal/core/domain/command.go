package domain

import "strings"

// Command is one external process invocation.
type Command struct {
	// Name is the program to run, resolved against PATH.
	Name string

	// Args are the program arguments, without the program name.
	Args []string

	// Dir is the working directory. Empty means the caller's directory.
	Dir string

	// Env are extra NAME=value pairs layered over the inherited
	// environment. Later entries win over earlier ones.
	Env []string
}

// String renders the invocation the way a shell prompt would show it.
func (c Command) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}
