package stitch

import "fmt"

// ConfigError reports unusable input settings. It is fatal and is
// raised before any document is opened.
type ConfigError struct {
	Msg string
	Err error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *ConfigError) Unwrap() error { return e.Err }

// DocumentError reports an input that could not be used. The file is
// marked failed and the run continues.
type DocumentError struct {
	Path      string
	Encrypted bool
	Err       error
}

func (e *DocumentError) Error() string {
	if e.Encrypted {
		return fmt.Sprintf("%s: encrypted, skipped", e.Path)
	}
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *DocumentError) Unwrap() error { return e.Err }

// Reason is the short cause shown in summaries.
func (e *DocumentError) Reason() string {
	if e.Encrypted {
		return "encrypted, skipped"
	}
	if e.Err == nil {
		return "unknown error"
	}
	return e.Err.Error()
}

// WriteError reports a failure to serialize the output document.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }
