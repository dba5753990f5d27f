package logging

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	Logger = logrus.New()
	once   sync.Once
)

// Formatter writes one line per entry: timestamp, level, message.
type Formatter struct {
	SystemName string
}

func (f *Formatter) Format(entry *logrus.Entry) ([]byte, error) {
	b := &bytes.Buffer{}
	if entry.Buffer != nil {
		b = entry.Buffer
	}
	b.WriteString(fmt.Sprintf("%s %s [%s] %s",
		entry.Time.UTC().Format("2006-01-02 15:04:05"),
		f.SystemName,
		strings.ToUpper(entry.Level.String()),
		entry.Message,
	))
	b.WriteByte('\n')
	return b.Bytes(), nil
}

// Init routes the global logger to a rotating file, or to stderr when
// file is empty.
func Init(file string) {
	once.Do(func() {
		if file != "" {
			Logger.SetOutput(&lumberjack.Logger{
				Filename:   file,
				MaxSize:    10, // megabytes
				MaxBackups: 3,
				MaxAge:     28, // days
				Compress:   true,
			})
		} else {
			Logger.SetOutput(os.Stderr)
		}
		Logger.SetFormatter(&Formatter{SystemName: "taskflow"})
		Logger.SetLevel(logrus.InfoLevel)
	})
}
