// Package compdb derives compilation database entries from build actions and
// writes them in the compile_commands.json format understood by clang tooling.
package compdb

// CompileCommand is one compilation database entry before the working
// directory is attached.
type CompileCommand struct {
	// File is the translation unit being compiled, nil when no argument
	// carried a recognized source suffix.
	File *string

	// Arguments is the action's argument vector with denylisted entries removed.
	Arguments []string
}

// FileName returns the recorded file or "" if none was found.
func (c CompileCommand) FileName() string {
	if c.File == nil {
		return ""
	}
	return *c.File
}

// Database is an ordered list of compile commands, one per build action.
type Database []CompileCommand

// entry is the on-disk shape of a compilation database record.
// Field order matters to consumers that diff the output.
type entry struct {
	Directory string   `json:"directory"`
	File      *string  `json:"file"`
	Arguments []string `json:"arguments"`
}

func (db Database) entries(directory string) []entry {
	out := make([]entry, 0, len(db))
	for _, cmd := range db {
		args := cmd.Arguments
		if args == nil {
			args = []string{}
		}
		out = append(out, entry{
			Directory: directory,
			File:      cmd.File,
			Arguments: args,
		})
	}
	return out
}
