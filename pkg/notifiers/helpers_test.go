package notifiers

import (
	"context"
	"sync"
)

type logEntry struct {
	level string
	msg   string
	obj   interface{}
}

type recordingLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (l *recordingLogger) add(level, msg string, obj interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logEntry{level: level, msg: msg, obj: obj})
}

func (l *recordingLogger) InfoObj(msg, _ string, obj interface{})  { l.add("info", msg, obj) }
func (l *recordingLogger) DebugObj(msg, _ string, obj interface{}) { l.add("debug", msg, obj) }
func (l *recordingLogger) WarnObj(msg, _ string, obj interface{})  { l.add("warn", msg, obj) }
func (l *recordingLogger) ErrorObj(msg, _ string, obj interface{}) { l.add("error", msg, obj) }

func (l *recordingLogger) count(level string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, e := range l.entries {
		if e.level == level {
			n++
		}
	}
	return n
}

type fakeSender struct {
	kind   string
	err    error
	mu     sync.Mutex
	sent   []Message
	closed bool
	closes int
}

func (f *fakeSender) Kind() string { return f.kind }

func (f *fakeSender) Send(_ context.Context, msg Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	return f.err
}

func (f *fakeSender) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	f.closes++
	return nil
}
