package main

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// kernelLevels maps the line prefixes written by kfmt to zap levels. Fatal
// kernel lines are logged as errors so that zap does not exit the process.
var kernelLevels = map[byte]zapcore.Level{
	'd': zapcore.DebugLevel,
	'i': zapcore.InfoLevel,
	'W': zapcore.WarnLevel,
	'E': zapcore.ErrorLevel,
	'F': zapcore.ErrorLevel,
}

// logSink is the kfmt output sink of the tool. It reassembles the byte
// stream written by the kernel packages into lines and forwards each line
// to zap.
type logSink struct {
	log  *zap.Logger
	line []byte
}

func (s *logSink) Write(p []byte) (int, error) {
	for _, b := range p {
		if b == '\n' {
			s.emit()
			continue
		}
		s.line = append(s.line, b)
	}
	return len(p), nil
}

// Flush emits a trailing partial line.
func (s *logSink) Flush() {
	if len(s.line) > 0 {
		s.emit()
	}
}

func (s *logSink) emit() {
	msg := string(s.line)
	s.line = s.line[:0]

	level := zapcore.InfoLevel
	if len(msg) >= 2 && msg[1] == ' ' {
		if l, ok := kernelLevels[msg[0]]; ok {
			level, msg = l, msg[2:]
		}
	}

	if ce := s.log.Check(level, msg); ce != nil {
		ce.Write(zap.String("source", "kernel"))
	}
}
