package errors

import (
	"errors"
	"fmt"
)

// Error message constants for the pysort application
const (
	// File processing errors
	ErrMsgFailedToReadFile   = "failed to read file"
	ErrMsgFailedToWriteFile  = "failed to write file"
	ErrMsgFailedToParseFile  = "failed to parse file"
	ErrMsgFailedToRenderDiff = "failed to render diff"

	// Directory processing errors
	ErrMsgFailedToCheckPath       = "failed to check path"
	ErrMsgFailedToFindPythonFiles = "failed to find Python files in directory"
	ErrMsgFailedToReadDirectory   = "failed to read directory, skipping"
	ErrMsgFilesFailedToProcess    = "%d files failed to process"
	ErrMsgFailedToWatchDirectory  = "failed to watch directory"
	ErrMsgInvalidExcludePattern   = "invalid exclude pattern %q"
	ErrMsgFailedToLoadConfig      = "failed to load config"
	ErrMsgUnsupportedConfigFormat = "unsupported config file format %q"
	ErrMsgUnknownConfigKeys       = "unknown config keys: %s"
	ErrMsgUnknownPolicy           = "unknown sorting type %q (want one of: %s)"
	ErrMsgSortingFailed           = "Error during import sorting"

	// Validation errors
	ErrMsgNoTarget         = "either --file or --directory must be specified"
	ErrMsgPathDoesNotExist = "path does not exist"
	ErrMsgNotPythonFile    = "file must be a Python file"
	ErrMsgNotDirectory     = "path is not a directory"
	ErrMsgInvalidJobs      = "jobs must be at least 1"
	ErrMsgInvalidDebounce  = "debounce must be positive"

	// Info/warning messages
	InfoMsgProcessingFile     = "Processing file"
	InfoMsgOriginalImports    = "Original imports:"
	InfoMsgSortedImports      = "Sorted imports:"
	InfoMsgSortedFile         = "Successfully sorted imports"
	InfoMsgDryRun             = "Dry run, file not written"
	InfoMsgAlreadySorted      = "Imports already sorted"
	InfoMsgNoPythonFilesFound = "No Python files found in directory"
	InfoMsgFoundPythonFiles   = "Found Python files in directory"
	InfoMsgErrorProcessing    = "Error processing file"
	InfoMsgProcessedCount     = "Processed files"
	InfoMsgWatching           = "Watching for changes"
	InfoMsgWatchStopped       = "Watcher stopped"
)

// Kind classifies failures so callers can tell configuration problems from
// unparseable sources and file-system errors.
type Kind int

const (
	KindParse Kind = iota + 1
	KindValidation
	KindIO
)

func (k Kind) String() string {
	switch k {
	case KindParse:
		return "parse error"
	case KindValidation:
		return "validation error"
	case KindIO:
		return "io error"
	default:
		return "error"
	}
}

// Error is a failure tagged with its Kind and, when known, the offending path.
type Error struct {
	Kind Kind
	Path string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if e.Path != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Path)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validation returns a KindValidation error for path.
func Validation(msg, path string) error {
	return &Error{Kind: KindValidation, Msg: msg, Path: path}
}

// Parse wraps err as a KindParse error for path.
func Parse(err error, path string) error {
	return &Error{Kind: KindParse, Msg: ErrMsgFailedToParseFile, Path: path, Err: err}
}

// IO wraps err as a KindIO error for path.
func IO(err error, msg, path string) error {
	return &Error{Kind: KindIO, Msg: msg, Path: path, Err: err}
}

// IsKind reports whether any error in err's chain is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
