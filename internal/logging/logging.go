package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Channel names a collated log stream. Every message written through the
// logger is tagged with exactly one channel.
type Channel string

const (
	ChannelCommandUse          Channel = "CommandUse"
	ChannelRestore             Channel = "Restore"
	ChannelBackup              Channel = "Backup"
	ChannelBackingDataAccess   Channel = "BackingDataAccess"
	ChannelAccountActivity     Channel = "AccountActivity"
	ChannelAuthentication      Channel = "Authentication"
	ChannelProcessingLoops     Channel = "ProcessingLoops"
	ChannelSocketCommunication Channel = "SocketCommunication"

	errorChannel Channel = "SystemError"
)

// Logger writes structured messages to stdout and mirrors each channel to a
// flat file under {root}/Logs. Logging is fire-and-forget: a failure to write
// never propagates to the caller.
type Logger struct {
	log  *logrus.Logger
	root string
	mu   sync.Mutex
}

// New builds a logger rooted at the provided data directory. An empty root
// disables the per-channel files. Level and format fall back to info/text
// when unrecognised.
func New(root, level, format string) *Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	log.SetLevel(parsed)

	if strings.EqualFold(format, "json") {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	return &Logger{log: log, root: root}
}

// NewDiscard returns a logger that keeps logrus output out of test noise.
func NewDiscard() *Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	log.SetLevel(logrus.PanicLevel)
	return &Logger{log: log}
}

// WriteToLog commits one message to a channel.
func (l *Logger) WriteToLog(message string, channel Channel) {
	if l == nil {
		return
	}
	l.log.WithFields(logrus.Fields{"channel": string(channel)}).Info(message)
	l.mirror(message, channel)
}

// LogError records a fault on the system error channel.
func (l *Logger) LogError(err error) {
	if l == nil || err == nil {
		return
	}
	l.log.WithFields(logrus.Fields{"channel": string(errorChannel)}).Error(err.Error())
	l.mirror(err.Error(), errorChannel)
}

func (l *Logger) mirror(message string, channel Channel) {
	if l.root == "" {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	dir := filepath.Join(l.root, "Logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return
	}
	f, err := os.OpenFile(filepath.Join(dir, string(channel)+".log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return
	}
	defer f.Close()
	line := fmt.Sprintf("%s: %s\n", time.Now().UTC().Format(time.RFC3339), message)
	_, _ = f.WriteString(line)
}
