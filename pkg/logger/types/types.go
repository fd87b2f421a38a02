package types

import "go.uber.org/zap"

// Logger is a named zap sugared logger handed to each component.
type Logger struct {
	*zap.SugaredLogger
	LogsPath string
	Name     string
}
