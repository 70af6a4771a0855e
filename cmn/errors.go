package cmn

import "errors"

type shortMessager interface {
	ShortMessage() string
}

// ErrorText is what the user sees for err: the short form when some error
// in the chain provides one, the full message otherwise.
func ErrorText(err error) string {
	if err == nil {
		return ""
	}

	var sm shortMessager
	if errors.As(err, &sm) {
		if s := sm.ShortMessage(); s != "" {
			return s
		}
	}
	return err.Error()
}
