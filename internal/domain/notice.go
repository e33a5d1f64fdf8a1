package domain

import "errors"

// Level mirrors the message levels the dashboard understands.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notice is the user-visible outcome of an operation. The transport decides
// how to carry it to the next rendered page.
type Notice struct {
	Level Level  `json:"level"`
	Text  string `json:"text"`
}

func (n Notice) IsZero() bool { return n.Text == "" }

func Info(text string) Notice    { return Notice{Level: LevelInfo, Text: text} }
func Success(text string) Notice { return Notice{Level: LevelSuccess, Text: text} }
func Warning(text string) Notice { return Notice{Level: LevelWarning, Text: text} }
func Failure(text string) Notice { return Notice{Level: LevelError, Text: text} }

// NoticeFromError turns an error into a notice. Domain errors keep their
// message; anything else becomes the generic failure text.
func NoticeFromError(err error) Notice {
	if err == nil {
		return Notice{}
	}
	var de *Error
	if !errors.As(err, &de) {
		return Failure(GenericFailure)
	}
	switch de.Kind {
	case KindValidation, KindAuth, KindRateLimited:
		return Warning(de.Message)
	case KindNotFound, KindConflict, KindForbidden:
		return Failure(de.Message)
	default:
		return Failure(GenericFailure)
	}
}
