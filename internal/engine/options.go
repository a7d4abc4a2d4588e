package engine

import "fmt"

// Option is a copy or move option token. The zero value is not a valid
// option.
type Option int

const (
	// ReplaceExisting removes an existing target before copying or moving.
	ReplaceExisting Option = iota + 1
	// NoFollowLinks copies a symlink itself rather than what it points to.
	NoFollowLinks
	// CopyAttributes replicates ownership, permissions, extended attributes
	// and timestamps onto the copy.
	CopyAttributes
	// AtomicMove requires the move to be a single rename.
	AtomicMove
	// Interruptible lets a cancel token abort a regular-file transfer.
	Interruptible
	// Sparse keeps the holes of a sparse regular file instead of writing
	// them out as zeros.
	Sparse
)

var optionNames = [...]string{
	ReplaceExisting: "REPLACE_EXISTING",
	NoFollowLinks:   "NOFOLLOW_LINKS",
	CopyAttributes:  "COPY_ATTRIBUTES",
	AtomicMove:      "ATOMIC_MOVE",
	Interruptible:   "INTERRUPTIBLE",
	Sparse:          "SPARSE",
}

func (o Option) String() string {
	if o > 0 && int(o) < len(optionNames) {
		return optionNames[o]
	}
	return fmt.Sprintf("Option(%d)", int(o))
}

// Flags is the normalized policy for one copy or move.
type Flags struct {
	ReplaceExisting bool
	AtomicMove      bool
	FollowLinks     bool
	Interruptible   bool
	Sparse          bool

	CopyBasic    bool
	CopyPosix    bool
	CopyNonPosix bool

	FailIfUnableToCopyBasic    bool
	FailIfUnableToCopyPosix    bool
	FailIfUnableToCopyNonPosix bool
}

// CopiesAttributes reports whether any attribute class is requested.
func (f Flags) CopiesAttributes() bool {
	return f.CopyBasic || f.CopyPosix || f.CopyNonPosix
}

// CopyFlags translates copy options. It fails before any I/O on an option
// that is unknown or not valid for copy.
func CopyFlags(opts ...Option) (Flags, error) {
	f := Flags{FollowLinks: true}
	for _, opt := range opts {
		switch opt {
		case ReplaceExisting:
			f.ReplaceExisting = true
		case NoFollowLinks:
			f.FollowLinks = false
		case CopyAttributes:
			f.CopyBasic = true
			f.CopyPosix = true
			f.CopyNonPosix = true
			f.FailIfUnableToCopyBasic = true
		case Interruptible:
			f.Interruptible = true
		case Sparse:
			f.Sparse = true
		default:
			return Flags{}, optionError("copy", opt)
		}
	}
	return f, nil
}

// MoveFlags translates move options. A move always carries every attribute
// class and never follows links; CopyAttributes and NoFollowLinks are
// accepted and have no further effect.
func MoveFlags(opts ...Option) (Flags, error) {
	f := Flags{
		CopyBasic:               true,
		CopyPosix:               true,
		CopyNonPosix:            true,
		FailIfUnableToCopyBasic: true,
	}
	for _, opt := range opts {
		switch opt {
		case AtomicMove:
			f.AtomicMove = true
		case ReplaceExisting:
			f.ReplaceExisting = true
		case NoFollowLinks, CopyAttributes:
		default:
			return Flags{}, optionError("move", opt)
		}
	}
	return f, nil
}

func optionError(op string, opt Option) error {
	if opt == 0 {
		return newError(InvalidArgument, op, "", "", fmt.Errorf("nil option"))
	}
	return newError(UnsupportedOption, op, "", "", fmt.Errorf("option %s not supported for %s", opt, op))
}
