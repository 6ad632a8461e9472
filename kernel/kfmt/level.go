package kfmt

import "github.com/ababo/arwen/kernel/config"

// Level defines the severity of a log line.
type Level uint8

// Log levels in increasing order of severity.
const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarning
	LevelError
	LevelFatal
)

var (
	levelNames    = [...]string{"debug", "info", "warning", "error", "fatal"}
	levelPrefixes = [...][]byte{[]byte("d "), []byte("i "), []byte("W "), []byte("E "), []byte("F ")}
	newLine       = []byte("\n")

	// minLevel is the lowest level that reaches the output sink.
	minLevel = Level(config.DefaultLogLevel)
)

// String implements fmt.Stringer for Level.
func (l Level) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return "unknown"
}

// ParseLevel maps a level name (as found on the boot command line) to a
// Level.
func ParseLevel(name []byte) (Level, bool) {
	for l, levelName := range levelNames {
		if string(name) == levelName {
			return Level(l), true
		}
	}
	return LevelInfo, false
}

// SetLevel sets the lowest level that gets logged.
func SetLevel(l Level) {
	if l > LevelFatal {
		l = LevelFatal
	}
	minLevel = l
}

// CurrentLevel returns the lowest level that gets logged.
func CurrentLevel() Level {
	return minLevel
}

// Logf formats a message and emits it as a single line prefixed with the
// level marker. Messages below the configured level are discarded.
func Logf(l Level, format string, args ...interface{}) {
	if l < minLevel {
		return
	}
	if l > LevelFatal {
		l = LevelFatal
	}

	sink := outputSink
	if sink == nil {
		sink = &earlyPrintBuffer
	}

	w := PrefixWriter{Sink: sink, Prefix: levelPrefixes[l]}
	Fprintf(&w, format, args...)
	w.Write(newLine)
}

// Debugf logs a message at LevelDebug.
func Debugf(format string, args ...interface{}) { Logf(LevelDebug, format, args...) }

// Infof logs a message at LevelInfo.
func Infof(format string, args ...interface{}) { Logf(LevelInfo, format, args...) }

// Warnf logs a message at LevelWarning.
func Warnf(format string, args ...interface{}) { Logf(LevelWarning, format, args...) }

// Errorf logs a message at LevelError.
func Errorf(format string, args ...interface{}) { Logf(LevelError, format, args...) }
